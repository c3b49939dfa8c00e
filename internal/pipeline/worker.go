package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmorris/wordforge/internal/dedup"
	"github.com/cmorris/wordforge/internal/domain"
	"github.com/cmorris/wordforge/internal/enrichment"
	"github.com/cmorris/wordforge/internal/progress"
	"github.com/cmorris/wordforge/internal/quota"
	"github.com/cmorris/wordforge/internal/store"
)

// itemExecutor runs the per-item pipeline: admission, deduplication,
// enrichment, asset fallback, commit. An item is claimed by exactly one
// worker for its entire run, so item fields need no locking of their
// own; the job-level mutex only makes transitions visible to status
// readers.
type itemExecutor struct {
	ledger       *quota.Ledger
	resolver     *dedup.Resolver
	client       enrichment.Client
	contentStore store.ContentStore
	emitter      *progress.Emitter
	retry        RetryPolicy
	callTimeout  time.Duration
	attempts     AttemptBuilder
	logger       *slog.Logger
}

// Execute drives one item to a terminal state. It never returns a
// non-terminal item; per-item failures are recorded on the item and
// never abort the job.
func (e *itemExecutor) Execute(ctx context.Context, js *jobState, item *domain.JobItem) {
	logger := e.logger.With(
		"job_id", item.JobID,
		"item_id", item.ID,
		"locale", item.Locale,
	)

	// Cancelled while queued: terminal without quota or provider cost.
	if js.isCancelled() {
		e.apply(js, item, func() error { return item.MarkRejected(domain.ErrorKindCancelled) })
		return
	}

	ownerID := js.job.OwnerID

	// Step 1: admission. Must precede any external call so provider cost
	// is never spent on work that cannot be committed.
	granted, reason := e.ledger.TryAdmit(ownerID, 1)
	if !granted {
		logger.Info("item denied admission", "owner_id", ownerID, "reason", reason)
		e.apply(js, item, func() error { return item.MarkRejected(domain.ErrorKindQuotaExceeded) })
		return
	}
	e.apply(js, item, func() error { return item.SetState(domain.ItemStateAdmitted) })

	// Step 2: deduplication. On a hit the admission from step 1 is
	// refunded, since no enrichment cost was actually incurred.
	rec, found, err := e.resolver.Resolve(ctx, item.SourceText, item.Locale)
	if err != nil {
		// Lookup failure is survivable: InsertOrGet still enforces key
		// uniqueness at commit time. Proceed as a miss.
		logger.Warn("dedup lookup failed, proceeding to enrichment", "error", err)
	}
	if found {
		e.ledger.Refund(ownerID, 1)
		e.apply(js, item, func() error {
			return item.MarkDeduplicated(domain.ResultRef{
				RecordID:    rec.ID,
				AssetStatus: rec.AssetStatus,
			})
		})
		return
	}

	if js.isCancelled() {
		e.apply(js, item, func() error { return item.MarkRejected(domain.ErrorKindCancelled) })
		return
	}

	// Step 3: text enrichment with bounded retry.
	e.apply(js, item, func() error {
		item.Attempts++
		return item.SetState(domain.ItemStateEnriching)
	})

	content, err := e.enrichWithRetry(ctx, item, logger)
	if err != nil {
		if errors.Is(err, enrichment.ErrContentRejected) {
			logger.Info("text stage rejected by provider policy")
			e.apply(js, item, func() error { return item.MarkRejected(domain.ErrorKindContentRejected) })
			return
		}
		logger.Error("text stage unavailable", "error", err)
		e.apply(js, item, func() error { return item.MarkFailed(domain.ErrorKindEnrichmentUnavailable) })
		return
	}

	if js.isCancelled() {
		e.apply(js, item, func() error { return item.MarkRejected(domain.ErrorKindCancelled) })
		return
	}

	// Step 4: asset generation with fallback.
	asset, err := e.generateAssetWithFallback(ctx, js, item, content, logger)
	if err != nil {
		logger.Error("asset stage unavailable", "error", err)
		e.apply(js, item, func() error { return item.MarkFailed(domain.ErrorKindAssetUnavailable) })
		return
	}

	// Step 5: commit. A commit race is resolved by the store's
	// conditional insert and treated as a dedup hit, never surfaced.
	e.commit(ctx, js, item, content, asset, logger)
}

// enrichWithRetry calls the text stage, retrying transient failures with
// exponential backoff. Policy rejections are returned immediately.
func (e *itemExecutor) enrichWithRetry(
	ctx context.Context,
	item *domain.JobItem,
	logger *slog.Logger,
) (*enrichment.EnrichedContent, error) {
	var lastErr error

	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		content, err := e.client.EnrichText(callCtx, item.SourceText, item.Locale)
		cancel()

		if err == nil {
			return content, nil
		}

		if errors.Is(err, enrichment.ErrContentRejected) {
			return nil, err
		}

		lastErr = err
		logger.Warn("text stage call failed",
			"attempt", attempt+1,
			"max_attempts", e.retry.MaxRetries+1,
			"error", err)

		if attempt < e.retry.MaxRetries {
			if waitErr := e.retry.Wait(ctx, attempt); waitErr != nil {
				return nil, fmt.Errorf("%w: %w", enrichment.ErrTransient, waitErr)
			}
		}
	}

	return nil, fmt.Errorf("%w: exhausted %d attempts: %w",
		enrichment.ErrTransient, e.retry.MaxRetries+1, lastErr)
}

// generateAssetWithFallback walks the ordered attempt ladder. A policy
// rejection advances to the next attempt; transient errors are retried
// within the same attempt. Exhausting the ladder via rejections yields
// an absent asset (the item still commits); exhausting retries on any
// attempt is an infrastructure failure.
func (e *itemExecutor) generateAssetWithFallback(
	ctx context.Context,
	js *jobState,
	item *domain.JobItem,
	seed *enrichment.EnrichedContent,
	logger *slog.Logger,
) (*assetResult, error) {
	attempts := e.attempts(seed)

	for idx, attempt := range attempts {
		attemptNum := idx + 1
		e.apply(js, item, func() error {
			item.AssetAttempt = attemptNum
			return item.SetState(domain.ItemStateAssetFallback)
		})

		ref, rejected, err := e.assetAttemptWithRetry(ctx, seed, attempt, logger)
		if err != nil {
			return nil, err
		}
		if rejected {
			logger.Info("asset attempt rejected by provider policy",
				"attempt", attemptNum,
				"attempt_name", attempt.Name)
			continue
		}

		return &assetResult{ref: ref, status: domain.AssetStatusPresent, attempts: attemptNum}, nil
	}

	// Every attempt was policy-rejected. A missing non-critical asset
	// never blocks an otherwise-successful commit.
	logger.Info("all asset attempts rejected, committing without asset",
		"attempts", len(attempts))
	return &assetResult{status: domain.AssetStatusAbsent, attempts: len(attempts)}, nil
}

// assetAttemptWithRetry runs one fallback attempt, retrying transient
// errors up to the shared retry bound.
func (e *itemExecutor) assetAttemptWithRetry(
	ctx context.Context,
	seed *enrichment.EnrichedContent,
	attempt enrichment.AttemptDescriptor,
	logger *slog.Logger,
) (*enrichment.AssetRef, bool, error) {
	var lastErr error

	for retryN := 0; retryN <= e.retry.MaxRetries; retryN++ {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		ref, rejected, err := e.client.GenerateAsset(callCtx, seed, attempt)
		cancel()

		if err == nil {
			return ref, rejected, nil
		}

		lastErr = err
		logger.Warn("asset call failed",
			"attempt_name", attempt.Name,
			"retry", retryN+1,
			"max_retries", e.retry.MaxRetries+1,
			"error", err)

		if retryN < e.retry.MaxRetries {
			if waitErr := e.retry.Wait(ctx, retryN); waitErr != nil {
				return nil, false, fmt.Errorf("%w: %w", errAssetExhausted, waitErr)
			}
		}
	}

	return nil, false, fmt.Errorf("%w: attempt %q: %w", errAssetExhausted, attempt.Name, lastErr)
}

// commit writes the combined result through the store's conditional
// insert. wasExisting means another item committed the same key first;
// that race resolves to a deduplicated hit with a quota refund, same as
// a pre-enrichment dedup hit.
func (e *itemExecutor) commit(
	ctx context.Context,
	js *jobState,
	item *domain.JobItem,
	content *enrichment.EnrichedContent,
	asset *assetResult,
	logger *slog.Logger,
) {
	key := dedup.NewKey(item.SourceText, item.Locale)

	enriched, err := json.Marshal(content)
	if err != nil {
		logger.Error("failed to marshal enrichment content", "error", err)
		e.apply(js, item, func() error { return item.MarkFailed(domain.ErrorKindStoreUnavailable) })
		return
	}

	rec, err := domain.NewContentRecord(item.SourceText, key.Text, key.Locale, key.Hash(), enriched)
	if err != nil {
		logger.Error("failed to build content record", "error", err)
		e.apply(js, item, func() error { return item.MarkFailed(domain.ErrorKindStoreUnavailable) })
		return
	}
	if asset.ref != nil {
		rec.AttachAsset(asset.ref.URL)
	}

	committed, wasExisting, err := e.contentStore.InsertOrGet(ctx, rec)
	if err != nil {
		logger.Error("failed to commit content record", "error", err)
		e.apply(js, item, func() error { return item.MarkFailed(domain.ErrorKindStoreUnavailable) })
		return
	}

	if wasExisting {
		logger.Info("commit race resolved as dedup hit", "record_id", committed.ID)
		e.ledger.Refund(js.job.OwnerID, 1)
		e.apply(js, item, func() error {
			return item.MarkDeduplicated(domain.ResultRef{
				RecordID:    committed.ID,
				AssetStatus: committed.AssetStatus,
			})
		})
		return
	}

	logger.Info("item committed",
		"record_id", rec.ID,
		"asset_status", asset.status,
		"asset_attempts", asset.attempts)
	e.apply(js, item, func() error {
		return item.MarkCommitted(domain.ResultRef{
			RecordID:    rec.ID,
			AssetStatus: asset.status,
		})
	})
}

// apply runs an item mutation under the job lock, keeps the per-state
// counts in sync and notifies the progress emitter. Mutation errors
// indicate a transition bug; they are logged and the counts left as-is.
func (e *itemExecutor) apply(js *jobState, item *domain.JobItem, mutate func() error) {
	js.mu.Lock()
	old := item.State
	err := mutate()
	if err == nil && item.State != old {
		js.counts[old]--
		js.counts[item.State]++
		if item.IsTerminal() {
			js.remaining--
		}
	}
	terminal := item.IsTerminal()
	label := item.StateLabel()
	js.mu.Unlock()

	if err != nil {
		e.logger.Error("illegal item transition",
			"job_id", item.JobID,
			"item_id", item.ID,
			"state", old,
			"error", err)
		return
	}

	e.emitter.ItemTransition(item.JobID, item.ID, label, terminal)
}
