package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBreaker(threshold int, reset time.Duration) CircuitBreaker {
	return New(&Config{Threshold: threshold, ResetTimeout: reset, HalfOpenMaxCalls: 1}, zap.NewNop())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := testBreaker(3, time.Hour)
	boom := errors.New("down")
	for i := 0; i < 3; i++ {
		_ = b.Call(context.Background(), func() error { return boom })
	}
	assert.Equal(t, StateOpen, b.State())

	err := b.Call(context.Background(), func() error { return nil })
	require.ErrorIs(t, err, ErrOpen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := testBreaker(3, time.Hour)
	boom := errors.New("down")
	_ = b.Call(context.Background(), func() error { return boom })
	_ = b.Call(context.Background(), func() error { return boom })
	require.NoError(t, b.Call(context.Background(), func() error { return nil }))
	_ = b.Call(context.Background(), func() error { return boom })
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenProbesAfterReset(t *testing.T) {
	b := testBreaker(1, 10*time.Millisecond)
	boom := errors.New("down")
	_ = b.Call(context.Background(), func() error { return boom })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Call(context.Background(), func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := testBreaker(1, 10*time.Millisecond)
	boom := errors.New("down")
	_ = b.Call(context.Background(), func() error { return boom })
	time.Sleep(20 * time.Millisecond)
	_ = b.Call(context.Background(), func() error { return boom })
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_ManualReset(t *testing.T) {
	b := testBreaker(1, time.Hour)
	_ = b.Call(context.Background(), func() error { return errors.New("down") })
	require.Equal(t, StateOpen, b.State())
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	require.NoError(t, b.Call(context.Background(), func() error { return nil }))
}
