package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cmorris/wordforge/internal/domain"
)

// workItem pairs an item with the live state of its job so a worker can
// read the cancellation flag and update shared counts.
type workItem struct {
	js   *jobState
	item *domain.JobItem
}

// WorkerPool runs a fixed set of workers draining a shared queue of
// job items. Items from different jobs interleave freely; per-job
// ordering is not guaranteed and not needed.
type WorkerPool struct {
	queue       chan workItem
	workerCount int
	exec        *itemExecutor
	done        func(*jobState)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewWorkerPool creates a stopped pool. done is invoked after every
// item reaches a terminal state, with the item's job state.
func NewWorkerPool(
	workerCount, queueSize int,
	exec *itemExecutor,
	logger *slog.Logger,
) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		queue:       make(chan workItem, queueSize),
		workerCount: workerCount,
		exec:        exec,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.With("component", "worker_pool"),
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount, "queue_size", cap(p.queue))
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Stop signals workers to exit and waits for in-flight items to finish.
// Queued items that no worker picked up are left non-terminal; the
// process is going away with them.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	logger := p.logger.With("worker_id", id)
	logger.Debug("worker started")

	for {
		select {
		case <-p.ctx.Done():
			logger.Debug("worker stopping")
			return
		case wi := <-p.queue:
			p.exec.Execute(p.ctx, wi.js, wi.item)
			if p.done != nil {
				p.done(wi.js)
			}
		}
	}
}
