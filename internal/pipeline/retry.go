package pipeline

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy bounds retries of transient provider failures. A single
// policy instance is shared by the text and asset call sites so backoff
// behavior is uniform across the pipeline.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the base of the exponential backoff.
	BaseDelay time.Duration
}

// Backoff returns the delay before retry number attempt (0-based):
// BaseDelay * 2^attempt, scaled by a jitter factor in [0.5, 1.0).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(backoff * jitter)
}

// Wait sleeps for the attempt's backoff or returns early with the
// context error when ctx is cancelled.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	delay := p.Backoff(attempt)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
