package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			// Small sleep to prevent busy waiting
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// Pacer applies the politeness pauses between scraped posts: a short pause
// after each post and a longer one every LongBreakEvery posts. A zero
// Delay disables pacing entirely.
type Pacer struct {
	// Delay is the short pause applied after each post
	Delay time.Duration
	// LongBreakEvery triggers the long break after this many posts
	LongBreakEvery int
	// LongBreakFactor multiplies Delay for the long break
	LongBreakFactor int
}

// NewPacer creates a pacer with the given short delay and a 3x long break
// every longBreakEvery posts. A non-positive interval disables the long
// break.
func NewPacer(delay time.Duration, longBreakEvery int) *Pacer {
	return &Pacer{
		Delay:           delay,
		LongBreakEvery:  longBreakEvery,
		LongBreakFactor: 3,
	}
}

// PauseAfter returns the pause to apply after the nth post (1-based)
func (p *Pacer) PauseAfter(n int) time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	if p.LongBreakEvery > 0 && n%p.LongBreakEvery == 0 {
		return p.Delay * time.Duration(p.LongBreakFactor)
	}
	return p.Delay
}

// Wait sleeps for the pause after the nth post, or until ctx is cancelled
func (p *Pacer) Wait(ctx context.Context, n int) error {
	pause := p.PauseAfter(n)
	if pause <= 0 {
		return nil
	}

	timer := time.NewTimer(pause)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
