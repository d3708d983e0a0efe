package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff decides how long to pause between conditional-write attempts.
type Backoff interface {
	// Wait is called after a failed attempt, before the next one.
	// It returns early with the context error when ctx is done.
	Wait(ctx context.Context, attempt int) error
}

// NoBackoff retries immediately.
type NoBackoff struct{}

func (NoBackoff) Wait(_ context.Context, _ int) error {
	return nil
}

// ExponentialBackoff doubles the delay after every failed attempt, starting
// at Min and capped at Max, and sleeps a random duration in [delay/2, delay].
type ExponentialBackoff struct {
	Min time.Duration
	Max time.Duration
}

// Delay returns the upper bound of the pause that follows attempt.
func (e ExponentialBackoff) Delay(attempt int) time.Duration {
	if e.Min <= 0 || attempt < 1 {
		return 0
	}

	maxDelay := e.Max
	if maxDelay < e.Min {
		maxDelay = e.Min
	}

	delay := e.Min
	for i := 1; i < attempt && delay < maxDelay; i++ {
		delay *= 2
	}

	return min(delay, maxDelay)
}

func (e ExponentialBackoff) Wait(ctx context.Context, attempt int) error {
	delay := e.Delay(attempt)
	if delay <= 0 {
		return ctx.Err()
	}

	half := delay / 2
	delay = half + rand.N(delay-half+1)

	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
