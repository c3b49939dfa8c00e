package progress

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the Emitter.
var (
	ErrUnknownJob = errors.New("no progress stream for job")
)

// defaultBufferSize is the per-subscriber channel buffer. A subscriber
// that falls further behind than this has events dropped rather than
// stalling the worker pool.
const defaultBufferSize = 64

// Emitter maintains per-job progress streams and fans transitions out
// to subscribers.
type Emitter struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*jobStream
	bufferSize int
	logger     *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// jobStream holds one job's sequence counter, aggregate counts and
// current subscribers. All fields are guarded by the Emitter mutex.
type jobStream struct {
	seq       uint64
	startedAt time.Time
	total     int
	terminal  int
	lastState string
	subs      map[uint64]*Subscription
	nextSubID uint64
}

// Subscription is one consumer's view of a job stream. The consumer
// reads from Events and calls Close when done; closing is idempotent
// and never affects job execution.
type Subscription struct {
	id      uint64
	jobID   uuid.UUID
	ch      chan Event
	emitter *Emitter
	once    sync.Once
}

// Events returns the channel progress events are delivered on. The
// channel is closed when the job finishes or the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription from the stream.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.emitter.unsubscribe(s.jobID, s.id)
	})
}

// NewEmitter creates a progress emitter.
func NewEmitter(logger *slog.Logger) *Emitter {
	return &Emitter{
		jobs:       make(map[uuid.UUID]*jobStream),
		bufferSize: defaultBufferSize,
		logger:     logger.With("component", "progress_emitter"),
		now:        time.Now,
	}
}

// Register opens the progress stream for a job that is starting to run.
func (e *Emitter) Register(jobID uuid.UUID, totalItems int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.jobs[jobID]; ok {
		return
	}

	e.jobs[jobID] = &jobStream{
		startedAt: e.now(),
		total:     totalItems,
		subs:      make(map[uint64]*Subscription),
	}
}

// ItemTransition records a state change for one item and emits an
// ordered event to all current subscribers. terminal must be true when
// the item reached a terminal state, so aggregate counts stay accurate.
func (e *Emitter) ItemTransition(jobID, itemID uuid.UUID, stateLabel string, terminal bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stream, ok := e.jobs[jobID]
	if !ok {
		// Job was never registered or already finished; nothing to emit.
		return
	}

	if terminal {
		stream.terminal++
	}
	stream.seq++
	stream.lastState = stateLabel

	event := e.buildEventLocked(stream, jobID, itemID, stateLabel, false)
	for _, sub := range stream.subs {
		e.deliverLocked(sub, event)
	}
}

// Finish closes the job's stream and all subscriber channels. Called by
// the controller after the job reaches a terminal status.
func (e *Emitter) Finish(jobID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stream, ok := e.jobs[jobID]
	if !ok {
		return
	}

	for _, sub := range stream.subs {
		close(sub.ch)
	}
	delete(e.jobs, jobID)
}

// Subscribe attaches a consumer to a job's stream. The first event
// delivered is a synthetic snapshot of the current aggregate state;
// subsequent events are the live tail. Returns ErrUnknownJob when the
// job has no open stream (not started, or already finished).
func (e *Emitter) Subscribe(jobID uuid.UUID) (*Subscription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stream, ok := e.jobs[jobID]
	if !ok {
		return nil, ErrUnknownJob
	}

	stream.nextSubID++
	sub := &Subscription{
		id:      stream.nextSubID,
		jobID:   jobID,
		ch:      make(chan Event, e.bufferSize),
		emitter: e,
	}
	stream.subs[sub.id] = sub

	// Snapshot first, so a late joiner sees current state before the tail.
	stream.seq++
	snapshot := e.buildEventLocked(stream, jobID, uuid.Nil, "snapshot", true)
	sub.ch <- snapshot

	e.logger.Debug("subscriber attached",
		"job_id", jobID,
		"subscriber_id", sub.id,
		"subscriber_count", len(stream.subs))

	return sub, nil
}

func (e *Emitter) unsubscribe(jobID uuid.UUID, subID uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stream, ok := e.jobs[jobID]
	if !ok {
		return
	}

	sub, ok := stream.subs[subID]
	if !ok {
		return
	}

	delete(stream.subs, subID)
	close(sub.ch)
}

// buildEventLocked assembles an event from the stream's aggregate state.
// Callers must hold e.mu.
func (e *Emitter) buildEventLocked(stream *jobStream, jobID, itemID uuid.UUID, stateLabel string, snapshot bool) Event {
	now := e.now()

	var percent float64
	var eta time.Duration
	if stream.total > 0 {
		percent = float64(stream.terminal) / float64(stream.total)
	}
	if stream.terminal > 0 && stream.terminal < stream.total {
		elapsed := now.Sub(stream.startedAt)
		eta = time.Duration(float64(elapsed) / float64(stream.terminal) * float64(stream.total-stream.terminal))
	}

	return Event{
		Sequence:        stream.seq,
		JobID:           jobID,
		ItemID:          itemID,
		NewState:        stateLabel,
		PercentComplete: percent,
		ETA:             eta,
		TerminalCount:   stream.terminal,
		TotalCount:      stream.total,
		Snapshot:        snapshot,
		EmittedAt:       now,
	}
}

// deliverLocked sends without blocking; a full subscriber buffer drops
// the event instead of stalling the worker pool. Callers must hold e.mu.
func (e *Emitter) deliverLocked(sub *Subscription, event Event) {
	select {
	case sub.ch <- event:
	default:
		e.logger.Warn("subscriber buffer full, dropping progress event",
			"job_id", event.JobID,
			"subscriber_id", sub.id,
			"sequence", event.Sequence)
	}
}
