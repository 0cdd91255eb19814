package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "iganalytics/pkg/errors"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, "first attempt"},
		{2, 200 * time.Millisecond, "second attempt"},
		{3, 400 * time.Millisecond, "third attempt"},
		{4, 800 * time.Millisecond, "fourth attempt"},
		{5, 1 * time.Second, "fifth attempt (capped at max)"},
		{0, 0, "zeroth attempt"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if delay := backoff.NextDelay(test.attempt); delay != test.expected {
				t.Errorf("expected %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeConnection, "connection reset")
		}
		return nil
	}, fastConfig(3))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeServerError, "boom")
	}, fastConfig(3))

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoAbortsOnTemporaryBlock(t *testing.T) {
	calls := 0
	blockErr := errs.New(errs.ErrorTypeTemporaryBlock, "Please wait a few minutes before you try again")
	err := Do(func() error {
		calls++
		return blockErr
	}, fastConfig(3))

	if !errors.Is(err, blockErr) {
		t.Fatalf("expected the block error to propagate, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call on temporary block, got %d", calls)
	}
}

func TestDoDoesNotRetryNonRetryable(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.NewWithCode(errs.ErrorTypeNotFound, "no such user", 404)
	}, fastConfig(3))

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
	}

	err := Do(func() error {
		return errs.New(errs.ErrorTypeNetwork, "dial timeout")
	}, cfg)

	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls == 1 {
			return "", errs.New(errs.ErrorTypeConnection, "flaky")
		}
		return "profile", nil
	}, fastConfig(3))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "profile" {
		t.Errorf("expected result %q, got %q", "profile", result)
	}
}

func TestOnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_ = Do(func() error {
		return errs.New(errs.ErrorTypeConnection, "flaky")
	}, cfg)

	if len(attempts) != 3 {
		t.Errorf("expected 3 retry callbacks, got %d", len(attempts))
	}
}
