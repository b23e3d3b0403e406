package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxAttempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     maxAttempts,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		Multiplier:      2.0,
		RandomizeFactor: 0,
		RetryIf:         IsRetryable,
	}
}

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	errTransient := errors.New("connection refused")

	err := RetryWithConfig(context.Background(), fastConfig(3), func() error {
		calls++
		return errTransient
	})

	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
	var exhausted ErrMaxRetriesExceeded
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ErrMaxRetriesExceeded, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 recorded attempts, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, errTransient) {
		t.Error("exhaustion error should wrap the last failure")
	}
}

func TestRetrySucceedsMidway(t *testing.T) {
	calls := 0
	err := RetryWithConfig(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryRespectsClassification(t *testing.T) {
	calls := 0
	errFinal := errors.New("bad request")
	config := fastConfig(5)
	config.RetryIf = func(err error) bool { return !errors.Is(err, errFinal) }

	err := RetryWithConfig(context.Background(), config, func() error {
		calls++
		return errFinal
	})

	if calls != 1 {
		t.Errorf("expected a single attempt for a non-retryable error, got %d", calls)
	}
	if !errors.Is(err, errFinal) {
		t.Errorf("expected the original error back, got %v", err)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := RetryWithConfig(ctx, fastConfig(10), func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls > 3 {
		t.Errorf("expected the loop to stop promptly after cancel, got %d attempts", calls)
	}
}

func TestIsRetryableTreatsContextEndingsAsFinal(t *testing.T) {
	if IsRetryable(context.Canceled) {
		t.Error("context.Canceled must not be retried")
	}
	if IsRetryable(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded must not be retried")
	}
	if !IsRetryable(errors.New("connection reset")) {
		t.Error("plain transport errors should be retryable")
	}
}
