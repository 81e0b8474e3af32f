package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the breaker's position in the closed/open/half-open cycle.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// ErrOpen is returned when the breaker rejects a call without executing it.
var ErrOpen = errors.New("circuit breaker is open")

// Config tunes the breaker protecting an external provider (embedding
// service, LLM, graph store transport).
type Config struct {
	// Threshold is the consecutive-failure count that trips the breaker.
	Threshold int

	// ResetTimeout is how long the breaker stays open before probing.
	ResetTimeout time.Duration

	// HalfOpenMaxCalls caps concurrent probe calls while half-open.
	HalfOpenMaxCalls int

	// OnStateChange is invoked on every transition.
	OnStateChange func(from, to State)
}

// DefaultConfig returns breaker defaults suitable for provider calls that
// already carry their own per-call retry.
func DefaultConfig() *Config {
	return &Config{
		Threshold:        5,
		ResetTimeout:     60 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker guards calls to an unreliable dependency.
type CircuitBreaker interface {
	Call(ctx context.Context, fn func() error) error
	CallWithResult(ctx context.Context, fn func() (any, error)) (any, error)
	State() State
	Reset()
}

type breaker struct {
	config *Config
	logger *zap.Logger

	mu                sync.Mutex
	state             State
	failureCount      int
	lastFailureTime   time.Time
	halfOpenCallCount int
}

// New creates a breaker in the closed state. A nil config selects
// DefaultConfig; out-of-range fields are clamped.
func New(config *Config, logger *zap.Logger) CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Threshold <= 0 {
		config.Threshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 60 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &breaker{config: config, logger: logger, state: StateClosed}
}

func (b *breaker) Call(ctx context.Context, fn func() error) error {
	_, err := b.CallWithResult(ctx, func() (any, error) {
		return nil, fn()
	})
	return err
}

func (b *breaker) CallWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := b.beforeCall(); err != nil {
		return nil, err
	}
	result, err := fn()
	b.afterCall(err)
	return result, err
}

func (b *breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.lastFailureTime) >= b.config.ResetTimeout {
			b.transition(StateHalfOpen)
			b.halfOpenCallCount = 1
			return nil
		}
		return ErrOpen
	case StateHalfOpen:
		if b.halfOpenCallCount >= b.config.HalfOpenMaxCalls {
			return ErrOpen
		}
		b.halfOpenCallCount++
		return nil
	}
	return nil
}

func (b *breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		b.failureCount = 0
		return
	}

	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateHalfOpen:
		b.transition(StateOpen)
	case StateClosed:
		if b.failureCount >= b.config.Threshold {
			b.transition(StateOpen)
		}
	}
}

// transition must be called with b.mu held.
func (b *breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.halfOpenCallCount = 0
	b.logger.Info("circuit breaker state change",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failureCount = 0
}
