package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsExponentiallyWithJitter(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}

	for attempt := 0; attempt < 4; attempt++ {
		full := policy.BaseDelay * (1 << attempt)
		for i := 0; i < 50; i++ {
			d := policy.Backoff(attempt)
			assert.GreaterOrEqual(t, d, full/2, "attempt %d", attempt)
			assert.Less(t, d, full, "attempt %d", attempt)
		}
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxRetries: 1, BaseDelay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := policy.Wait(ctx, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second, "wait must return promptly on cancellation")
}
