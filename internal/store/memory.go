package store

import (
	"context"
	"sync"

	"github.com/cmorris/wordforge/internal/dedup"
	"github.com/cmorris/wordforge/internal/domain"
)

// MemoryContentStore is an in-memory ContentStore used by tests and
// local runs without a database. InsertOrGet is atomic under the store
// mutex, giving it the same race semantics as the Postgres version.
type MemoryContentStore struct {
	mu      sync.Mutex
	records map[dedup.Key]*domain.ContentRecord
}

// Ensure MemoryContentStore implements the ContentStore interface
var _ ContentStore = (*MemoryContentStore)(nil)

// NewMemoryContentStore creates an empty in-memory content store.
func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{
		records: make(map[dedup.Key]*domain.ContentRecord),
	}
}

// FindByKey retrieves the committed record for a normalized key.
// Returns ErrRecordNotFound if no record exists.
func (s *MemoryContentStore) FindByKey(ctx context.Context, key dedup.Key) (*domain.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}

	cloned := *rec
	return &cloned, nil
}

// InsertOrGet commits the record unless one already exists for its key.
func (s *MemoryContentStore) InsertOrGet(ctx context.Context, rec *domain.ContentRecord) (*domain.ContentRecord, bool, error) {
	if err := rec.Validate(); err != nil {
		return nil, false, err
	}

	key := dedup.Key{Text: rec.NormalizedText, Locale: rec.Locale}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok {
		cloned := *existing
		return &cloned, true, nil
	}

	cloned := *rec
	s.records[key] = &cloned
	return rec, false, nil
}

// Len reports the number of committed records.
func (s *MemoryContentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
