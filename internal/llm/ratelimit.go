package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled continuously from elapsed time.
type rateLimiter struct {
	lastRefill time.Time
	now        func() time.Time
	tokens     float64
	capacity   float64
	perSecond  float64
	mu         sync.Mutex
}

// newRateLimiter creates a limiter allowing requestsPerMinute calls.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	capacity := float64(requestsPerMinute)
	return &rateLimiter{
		tokens:     capacity,
		capacity:   capacity,
		perSecond:  capacity / 60,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// reserve takes a token and returns zero, or returns how long until one is due.
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now
	rl.tokens = min(rl.capacity, rl.tokens+elapsed*rl.perSecond)

	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}
	delay := time.Duration((1 - rl.tokens) / rl.perSecond * float64(time.Second))
	return max(delay, time.Millisecond)
}
