package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryConfig bounds how outbound calls are reattempted.
type RetryConfig struct {
	MaxAttempts     int              // Total attempts, including the first
	InitialDelay    time.Duration    // Delay before the first reattempt
	MaxDelay        time.Duration    // Cap on the backoff delay
	Multiplier      float64          // Exponential backoff multiplier
	RandomizeFactor float64          // Jitter factor (0-1) applied per delay
	RetryIf         func(error) bool // Whether an error is worth retrying
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf:         IsRetryable,
	}
}

// RetryWithConfig runs fn until it succeeds, the error is classified as not
// retryable, the context ends, or MaxAttempts is reached. Exhaustion returns
// ErrMaxRetriesExceeded wrapping the last error.
func RetryWithConfig(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if config.RetryIf != nil && !config.RetryIf(err) {
			return err
		}

		// No sleep after the final attempt.
		if attempt < config.MaxAttempts-1 {
			select {
			case <-time.After(applyJitter(delay, config.RandomizeFactor)):
			case <-ctx.Done():
				return ctx.Err()
			}

			delay = time.Duration(float64(delay) * config.Multiplier)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	return ErrMaxRetriesExceeded{
		Attempts: config.MaxAttempts,
		LastErr:  lastErr,
	}
}

// Retry runs fn with the default configuration.
func Retry(ctx context.Context, fn func() error) error {
	return RetryWithConfig(ctx, DefaultRetryConfig(), fn)
}

func applyJitter(delay time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return delay
	}
	jitter := float64(delay) * factor
	minDelay := float64(delay) - jitter
	maxDelay := float64(delay) + jitter
	return time.Duration(minDelay + rand.Float64()*(maxDelay-minDelay))
}

// IsRetryable is the default classification: context endings are final,
// anything else is assumed transient.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// ErrMaxRetriesExceeded reports that every allowed attempt failed.
type ErrMaxRetriesExceeded struct {
	Attempts int
	LastErr  error
}

func (e ErrMaxRetriesExceeded) Error() string {
	if e.LastErr != nil {
		return "max retries exceeded: " + e.LastErr.Error()
	}
	return "max retries exceeded"
}

func (e ErrMaxRetriesExceeded) Unwrap() error {
	return e.LastErr
}
