package completion

import (
	"context"
	"time"
)

// Retry configuration
const (
	DefaultMaxAttempts = 1
	InitialBackoffMs   = 200
	MaxBackoffMs       = 5000
	BackoffMultiplier  = 2.0
)

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxAttempts int           // Total attempts, including the first one
	BaseDelay   time.Duration // Initial delay between attempts
	MaxDelay    time.Duration // Maximum delay between attempts
	Multiplier  float64       // Exponential backoff multiplier
}

// DefaultRetryConfig makes a single attempt per turn
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:    time.Duration(MaxBackoffMs) * time.Millisecond,
		Multiplier:  BackoffMultiplier,
	}
}

// retryWithBackoff executes fn until it succeeds, attempts run out, or ctx is done.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
