package store

import (
	"context"

	"github.com/cmorris/wordforge/internal/dedup"
	"github.com/cmorris/wordforge/internal/domain"
)

// ContentStore defines the interface for content record persistence.
// Version: 1.0
type ContentStore interface {
	// FindByKey retrieves the committed record for a normalized key.
	// Returns ErrRecordNotFound if no record exists.
	FindByKey(ctx context.Context, key dedup.Key) (*domain.ContentRecord, error)

	// InsertOrGet commits the record unless one already exists for its
	// normalized key, in which case the existing record is returned with
	// wasExisting=true. This is the conditional-insert primitive the
	// worker pool relies on to resolve commit races: the store, not the
	// caller, decides which concurrent commit wins.
	InsertOrGet(ctx context.Context, rec *domain.ContentRecord) (committed *domain.ContentRecord, wasExisting bool, err error)
}
