package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmorris/wordforge/internal/domain"
)

// ContentFinder is the read side of the content store the resolver needs.
// The full store interface lives in the store package; this narrow view
// keeps the resolver decoupled from the write path.
type ContentFinder interface {
	// FindByKey retrieves the committed record for a normalized key.
	// Returns an error satisfying errors.Is(err, store.ErrNotFound)
	// semantics when no record exists; the resolver treats any error
	// wrapping ErrNoRecord as a miss.
	FindByKey(ctx context.Context, key Key) (*domain.ContentRecord, error)
}

// ErrNoRecord is the sentinel the content store wraps when a key has no
// committed record. Defined here so the resolver and the store agree on
// miss semantics without a dependency cycle.
var ErrNoRecord = errors.New("no content record for key")

// Resolver answers "has this content already been committed?" for the
// worker pool's dedup step.
type Resolver struct {
	finder ContentFinder
	logger *slog.Logger
}

// NewResolver creates a Resolver over the given content finder.
func NewResolver(finder ContentFinder, logger *slog.Logger) *Resolver {
	return &Resolver{
		finder: finder,
		logger: logger.With("component", "dedup_resolver"),
	}
}

// Resolve looks up the committed record for the raw source text and
// locale. Returns (record, true, nil) on a hit and (nil, false, nil) on
// a miss; any other error is an infrastructure failure.
func (r *Resolver) Resolve(ctx context.Context, sourceText, locale string) (*domain.ContentRecord, bool, error) {
	key := NewKey(sourceText, locale)

	rec, err := r.finder.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("dedup lookup failed: %w", err)
	}

	r.logger.DebugContext(ctx, "dedup hit",
		"normalized_text", key.Text,
		"locale", key.Locale,
		"record_id", rec.ID)

	return rec, true, nil
}
