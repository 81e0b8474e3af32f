package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy configures retry behavior at the embedding / LLM / graph-store
// boundary: exponential backoff with optional jitter, bounded attempts,
// and an optional allowlist of retryable errors.
type Policy struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	Jitter          bool
	RetryableErrors []error // empty means every error is retryable
	OnRetry         func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns the retry policy applied to external provider
// calls: three retries after the first attempt, exponential backoff
// starting at two seconds.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     16 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retryer executes functions under a Policy.
type Retryer interface {
	Do(ctx context.Context, fn func() error) error
	DoWithResult(ctx context.Context, fn func() (any, error)) (any, error)
}

type backoffRetryer struct {
	policy *Policy
	logger *zap.Logger
}

// NewBackoffRetryer creates an exponential-backoff Retryer. A nil policy
// selects DefaultPolicy; out-of-range fields are clamped.
func NewBackoffRetryer(policy *Policy, logger *zap.Logger) Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 2 * time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 16 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &backoffRetryer{policy: policy, logger: logger}
}

func (r *backoffRetryer) Do(ctx context.Context, fn func() error) error {
	_, err := r.DoWithResult(ctx, func() (any, error) {
		return nil, fn()
	})
	return err
}

func (r *backoffRetryer) DoWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.calculateDelay(attempt)
			r.logger.Debug("retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", r.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry canceled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !r.isRetryable(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("retry canceled: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("exhausted %d retries: %w", r.policy.MaxRetries, lastErr)
}

func (r *backoffRetryer) isRetryable(err error) bool {
	if len(r.policy.RetryableErrors) == 0 {
		return true
	}
	for _, retryable := range r.policy.RetryableErrors {
		if errors.Is(err, retryable) {
			return true
		}
	}
	return false
}

func (r *backoffRetryer) calculateDelay(attempt int) time.Duration {
	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		// Jitter within +-25% keeps concurrent retriers from
		// synchronizing against a rate-limited provider.
		delay = delay * (0.75 + rand.Float64()*0.5)
	}
	return time.Duration(delay)
}
