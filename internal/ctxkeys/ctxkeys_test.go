package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-123")
	got, ok := TraceID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "trace-123", got)
}

func TestTraceIDAbsent(t *testing.T) {
	_, ok := TraceID(context.Background())
	assert.False(t, ok)

	_, ok = TraceID(WithTraceID(context.Background(), ""))
	assert.False(t, ok, "an empty trace id reads as absent")
}
