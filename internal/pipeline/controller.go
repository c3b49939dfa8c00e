package pipeline

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cmorris/wordforge/internal/domain"
	"github.com/cmorris/wordforge/internal/progress"
)

// jobState is the controller's live view of one job. counts and
// remaining are maintained under mu; the cancelled flag is read
// lock-free by workers between pipeline steps.
type jobState struct {
	mu        sync.Mutex
	job       *domain.Job
	counts    map[domain.ItemState]int
	remaining int
	cancelled atomic.Bool
	finalized bool
}

func newJobState(job *domain.Job) *jobState {
	js := &jobState{
		job:       job,
		counts:    make(map[domain.ItemState]int),
		remaining: len(job.Items),
	}
	js.counts[domain.ItemStatePending] = len(job.Items)
	return js
}

func (js *jobState) isCancelled() bool {
	return js.cancelled.Load()
}

// Controller owns job lifecycle: creation, admission to the worker
// pool, cancellation and status reads. Jobs are held in memory for the
// life of the process; content records are the durable output.
type Controller struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*jobState

	pool         *WorkerPool
	emitter      *progress.Emitter
	maxBatchSize int
	logger       *slog.Logger
}

// NewController wires a controller over an already-constructed worker
// pool and progress emitter.
func NewController(
	pool *WorkerPool,
	emitter *progress.Emitter,
	maxBatchSize int,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		jobs:         make(map[uuid.UUID]*jobState),
		pool:         pool,
		emitter:      emitter,
		maxBatchSize: maxBatchSize,
		logger:       logger.With("component", "pipeline_controller"),
	}
}

// CreateJob validates the batch and registers a queued job. The job
// does not run until StartJob is called.
func (c *Controller) CreateJob(ownerID string, requests []domain.ItemRequest) (*domain.Job, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: batch must contain at least one item", ErrInvalidRequest)
	}
	if c.maxBatchSize > 0 && len(requests) > c.maxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds maximum of %d",
			ErrInvalidRequest, len(requests), c.maxBatchSize)
	}

	job, err := domain.NewJob(ownerID, requests)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	c.mu.Lock()
	c.jobs[job.ID] = newJobState(job)
	c.mu.Unlock()

	c.logger.Info("job created",
		"job_id", job.ID,
		"owner_id", ownerID,
		"item_count", len(job.Items))

	return job, nil
}

// StartJob moves a queued job to running and begins feeding its items
// to the worker pool. Calling it again for a job that already left the
// queued state is a no-op.
func (c *Controller) StartJob(jobID uuid.UUID) error {
	js, err := c.state(jobID)
	if err != nil {
		return err
	}

	js.mu.Lock()
	if js.job.Status != domain.JobStatusQueued {
		js.mu.Unlock()
		return nil
	}
	if err := js.job.UpdateStatus(domain.JobStatusRunning); err != nil {
		js.mu.Unlock()
		return err
	}
	items := js.job.Items
	js.mu.Unlock()

	c.emitter.Register(jobID, len(items))
	c.logger.Info("job started", "job_id", jobID, "item_count", len(items))

	go c.feed(js, items)
	return nil
}

// feed enqueues every item of a running job. Sends block when the pool
// queue is full; a pool shutdown aborts the feed.
func (c *Controller) feed(js *jobState, items []*domain.JobItem) {
	for _, item := range items {
		select {
		case c.pool.queue <- workItem{js: js, item: item}:
		case <-c.pool.ctx.Done():
			c.logger.Warn("worker pool stopped mid-feed, abandoning remaining items",
				"job_id", js.job.ID)
			return
		}
	}
}

// Cancel requests cooperative cancellation. Already-terminal items keep
// their outcomes; items that have not finished resolve to rejected at
// the next pipeline checkpoint. Cancelling a terminal job is a no-op.
func (c *Controller) Cancel(jobID uuid.UUID) error {
	js, err := c.state(jobID)
	if err != nil {
		return err
	}

	js.mu.Lock()
	if js.job.IsTerminal() {
		js.mu.Unlock()
		return nil
	}

	js.cancelled.Store(true)

	if js.job.Status == domain.JobStatusQueued {
		// Never started: no feeder, no workers, no progress stream.
		// Resolve everything inline.
		for _, item := range js.job.Items {
			if item.IsTerminal() {
				continue
			}
			old := item.State
			if markErr := item.MarkRejected(domain.ErrorKindCancelled); markErr != nil {
				c.logger.Error("failed to reject item on cancel",
					"job_id", jobID, "item_id", item.ID, "error", markErr)
				continue
			}
			js.counts[old]--
			js.counts[domain.ItemStateRejected]++
			js.remaining--
		}
		js.finalized = true
		if statusErr := js.job.UpdateStatus(domain.JobStatusCancelled); statusErr != nil {
			js.mu.Unlock()
			return statusErr
		}
		js.mu.Unlock()
		c.logger.Info("queued job cancelled", "job_id", jobID)
		return nil
	}
	js.mu.Unlock()

	c.logger.Info("job cancellation requested", "job_id", jobID)
	return nil
}

// maybeFinalize closes out a job once its last item reaches a terminal
// state. Safe to call after every item; only the final call acts.
func (c *Controller) maybeFinalize(js *jobState) {
	js.mu.Lock()
	if js.finalized || js.remaining > 0 {
		js.mu.Unlock()
		return
	}
	js.finalized = true

	status := domain.JobStatusCompleted
	switch {
	case js.cancelled.Load():
		status = domain.JobStatusCancelled
	case js.counts[domain.ItemStateFailed] == len(js.job.Items):
		status = domain.JobStatusFailed
	}

	if err := js.job.UpdateStatus(status); err != nil {
		c.logger.Error("failed to finalize job status",
			"job_id", js.job.ID, "status", status, "error", err)
	}
	jobID := js.job.ID
	js.mu.Unlock()

	c.logger.Info("job finished", "job_id", jobID, "status", status)
	c.emitter.Finish(jobID)
}

// Status returns a point-in-time snapshot of the job and its items.
func (c *Controller) Status(jobID uuid.UUID) (*JobSnapshot, error) {
	js, err := c.state(jobID)
	if err != nil {
		return nil, err
	}

	js.mu.Lock()
	defer js.mu.Unlock()
	return snapshotJob(js.job, js.counts), nil
}

func (c *Controller) state(jobID uuid.UUID) (*jobState, error) {
	c.mu.RLock()
	js, ok := c.jobs[jobID]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return js, nil
}
