package progress

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmitter() *Emitter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEmitter(logger)
}

func collect(ch <-chan Event, n int) []Event {
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-time.After(time.Second):
			return events
		}
	}
	return events
}

func TestSubscribeUnknownJob(t *testing.T) {
	emitter := newTestEmitter()

	_, err := emitter.Subscribe(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestSnapshotThenTail(t *testing.T) {
	emitter := newTestEmitter()
	jobID := uuid.New()
	emitter.Register(jobID, 4)

	// Two items finish before the subscriber joins.
	emitter.ItemTransition(jobID, uuid.New(), "committed", true)
	emitter.ItemTransition(jobID, uuid.New(), "failed", true)

	sub, err := emitter.Subscribe(jobID)
	require.NoError(t, err)
	defer sub.Close()

	itemID := uuid.New()
	emitter.ItemTransition(jobID, itemID, "committed", true)

	events := collect(sub.Events(), 2)
	require.Len(t, events, 2)

	snapshot := events[0]
	assert.True(t, snapshot.Snapshot)
	assert.Equal(t, "snapshot", snapshot.NewState)
	assert.Equal(t, uuid.Nil, snapshot.ItemID)
	assert.Equal(t, 2, snapshot.TerminalCount)
	assert.Equal(t, 4, snapshot.TotalCount)
	assert.InDelta(t, 0.5, snapshot.PercentComplete, 1e-9)

	tail := events[1]
	assert.False(t, tail.Snapshot)
	assert.Equal(t, itemID, tail.ItemID)
	assert.Equal(t, "committed", tail.NewState)
	assert.Equal(t, 3, tail.TerminalCount)
	assert.Greater(t, tail.Sequence, snapshot.Sequence)
}

func TestSequenceStrictlyIncreasing(t *testing.T) {
	emitter := newTestEmitter()
	jobID := uuid.New()
	emitter.Register(jobID, 10)

	sub, err := emitter.Subscribe(jobID)
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 10; i++ {
		emitter.ItemTransition(jobID, uuid.New(), "committed", true)
	}

	events := collect(sub.Events(), 11)
	require.Len(t, events, 11)

	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Sequence, events[i-1].Sequence,
			"event %d must come after event %d", i, i-1)
	}
}

func TestETAEstimation(t *testing.T) {
	emitter := newTestEmitter()
	jobID := uuid.New()

	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	emitter.now = func() time.Time { return current }

	emitter.Register(jobID, 4)

	sub, err := emitter.Subscribe(jobID)
	require.NoError(t, err)
	defer sub.Close()

	// First transition with no elapsed terminal history has ETA zero.
	snapshot := collect(sub.Events(), 1)
	require.Len(t, snapshot, 1)
	assert.Zero(t, snapshot[0].ETA)

	// One item done after 10s: three remain, ETA = 10s/1*3 = 30s.
	current = current.Add(10 * time.Second)
	emitter.ItemTransition(jobID, uuid.New(), "committed", true)

	events := collect(sub.Events(), 1)
	require.Len(t, events, 1)
	assert.Equal(t, 30*time.Second, events[0].ETA)

	// All done: ETA back to zero.
	current = current.Add(30 * time.Second)
	for i := 0; i < 3; i++ {
		emitter.ItemTransition(jobID, uuid.New(), "committed", true)
	}
	tail := collect(sub.Events(), 3)
	require.Len(t, tail, 3)
	assert.Zero(t, tail[2].ETA)
	assert.InDelta(t, 1.0, tail[2].PercentComplete, 1e-9)
}

func TestNonTerminalTransitionsDoNotMoveCounts(t *testing.T) {
	emitter := newTestEmitter()
	jobID := uuid.New()
	emitter.Register(jobID, 2)

	sub, err := emitter.Subscribe(jobID)
	require.NoError(t, err)
	defer sub.Close()

	itemID := uuid.New()
	emitter.ItemTransition(jobID, itemID, "enriching", false)
	emitter.ItemTransition(jobID, itemID, "asset_fallback_1", false)

	events := collect(sub.Events(), 3)
	require.Len(t, events, 3)
	assert.Equal(t, 0, events[2].TerminalCount)
	assert.Equal(t, "asset_fallback_1", events[2].NewState)
}

func TestCloseSubscription(t *testing.T) {
	emitter := newTestEmitter()
	jobID := uuid.New()
	emitter.Register(jobID, 1)

	sub, err := emitter.Subscribe(jobID)
	require.NoError(t, err)

	sub.Close()
	sub.Close() // idempotent

	// Emitting after close must not panic or block the pool.
	emitter.ItemTransition(jobID, uuid.New(), "committed", true)

	_, open := <-sub.Events()
	assert.False(t, open, "channel should be closed")
}

func TestFinishClosesSubscribers(t *testing.T) {
	emitter := newTestEmitter()
	jobID := uuid.New()
	emitter.Register(jobID, 1)

	sub, err := emitter.Subscribe(jobID)
	require.NoError(t, err)

	emitter.ItemTransition(jobID, uuid.New(), "committed", true)
	emitter.Finish(jobID)

	events := collect(sub.Events(), 3)
	assert.Len(t, events, 2, "snapshot plus one transition, then close")

	// Stream is gone; late subscribers get ErrUnknownJob.
	_, err = emitter.Subscribe(jobID)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	emitter := newTestEmitter()
	emitter.bufferSize = 2
	jobID := uuid.New()
	emitter.Register(jobID, 100)

	sub, err := emitter.Subscribe(jobID)
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			emitter.ItemTransition(jobID, uuid.New(), "committed", true)
		}
	}()

	select {
	case <-done:
		// Pool side never stalled; the slow subscriber just lost events.
	case <-time.After(2 * time.Second):
		t.Fatal("emitter blocked on a slow subscriber")
	}
}
