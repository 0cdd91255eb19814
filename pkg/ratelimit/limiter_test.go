package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if tb.Allow() {
		t.Error("request beyond capacity should be denied")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 10*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow() {
		t.Fatal("second request should be denied before refill")
	}

	time.Sleep(15 * time.Millisecond)

	if !tb.Allow() {
		t.Error("request after refill period should be allowed")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	tb.Allow()
	tb.Reset()

	if !tb.Allow() {
		t.Error("request after reset should be allowed")
	}
}

func TestPacerPauseAfter(t *testing.T) {
	p := NewPacer(2*time.Second, 20)

	tests := []struct {
		n        int
		expected time.Duration
	}{
		{1, 2 * time.Second},
		{19, 2 * time.Second},
		{20, 6 * time.Second},
		{21, 2 * time.Second},
		{40, 6 * time.Second},
	}

	for _, test := range tests {
		if got := p.PauseAfter(test.n); got != test.expected {
			t.Errorf("PauseAfter(%d) = %v, want %v", test.n, got, test.expected)
		}
	}
}

func TestPacerCustomLongBreak(t *testing.T) {
	p := NewPacer(time.Second, 5)

	if got := p.PauseAfter(5); got != 3*time.Second {
		t.Errorf("PauseAfter(5) = %v, want %v", got, 3*time.Second)
	}
	if got := p.PauseAfter(4); got != time.Second {
		t.Errorf("PauseAfter(4) = %v, want %v", got, time.Second)
	}

	// non-positive interval disables the long break entirely
	p = NewPacer(time.Second, 0)
	if got := p.PauseAfter(20); got != time.Second {
		t.Errorf("PauseAfter(20) = %v, want %v", got, time.Second)
	}
}

func TestPacerDisabled(t *testing.T) {
	p := NewPacer(0, 20)

	if got := p.PauseAfter(20); got != 0 {
		t.Errorf("disabled pacer returned pause %v", got)
	}

	// Wait must return immediately when disabled
	start := time.Now()
	if err := p.Wait(context.Background(), 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("disabled pacer slept")
	}
}

func TestPacerWaitCancellation(t *testing.T) {
	p := NewPacer(time.Minute, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx, 1); err == nil {
		t.Error("expected context error from cancelled wait")
	}
}
