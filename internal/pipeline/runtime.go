package pipeline

import (
	"log/slog"

	"github.com/cmorris/wordforge/internal/config"
	"github.com/cmorris/wordforge/internal/dedup"
	"github.com/cmorris/wordforge/internal/enrichment"
	"github.com/cmorris/wordforge/internal/progress"
	"github.com/cmorris/wordforge/internal/quota"
	"github.com/cmorris/wordforge/internal/store"
)

// Runtime bundles the pipeline's long-lived components behind one
// start/stop surface for the server entrypoint.
type Runtime struct {
	Controller *Controller
	Emitter    *progress.Emitter
	Ledger     *quota.Ledger

	pool *WorkerPool
}

// NewRuntime assembles the quota ledger, progress emitter, worker pool
// and controller from configuration and the two external collaborators
// (enrichment client and content store).
func NewRuntime(
	cfg *config.Config,
	client enrichment.Client,
	contentStore store.ContentStore,
	logger *slog.Logger,
) *Runtime {
	ledger := quota.NewLedger(map[quota.Tier]quota.Limits{
		quota.TierFree:      {Items: cfg.Quota.FreeItemsPerPeriod, Period: cfg.Quota.Period},
		quota.TierPro:       {Items: cfg.Quota.ProItemsPerPeriod, Period: cfg.Quota.Period},
		quota.TierUnlimited: {},
	}, quota.TierFree, logger)
	for _, owner := range cfg.Quota.ProOwners {
		ledger.SetTier(owner, quota.TierPro)
	}

	emitter := progress.NewEmitter(logger)

	exec := &itemExecutor{
		ledger:       ledger,
		resolver:     dedup.NewResolver(contentStore, logger),
		client:       client,
		contentStore: contentStore,
		emitter:      emitter,
		retry: RetryPolicy{
			MaxRetries: cfg.Pipeline.MaxRetries,
			BaseDelay:  cfg.Pipeline.RetryBaseDelay,
		},
		callTimeout: cfg.Pipeline.CallTimeout,
		attempts:    DefaultAttempts,
		logger:      logger.With("component", "item_executor"),
	}

	pool := NewWorkerPool(cfg.Pipeline.WorkerCount, cfg.Pipeline.QueueSize, exec, logger)
	controller := NewController(pool, emitter, cfg.Pipeline.MaxBatchSize, logger)
	pool.done = controller.maybeFinalize

	return &Runtime{
		Controller: controller,
		Emitter:    emitter,
		Ledger:     ledger,
		pool:       pool,
	}
}

// Start launches the worker pool.
func (r *Runtime) Start() {
	r.pool.Start()
}

// Stop drains in-flight items and stops the workers.
func (r *Runtime) Stop() {
	r.pool.Stop()
}
