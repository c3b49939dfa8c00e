package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorris/wordforge/internal/dedup"
	"github.com/cmorris/wordforge/internal/domain"
)

func newRecord(t *testing.T, text, locale string) *domain.ContentRecord {
	t.Helper()
	key := dedup.NewKey(text, locale)
	rec, err := domain.NewContentRecord(text, key.Text, key.Locale, key.Hash(), []byte(`{"definition":"x"}`))
	require.NoError(t, err)
	return rec
}

func TestMemoryContentStore(t *testing.T) {
	ctx := context.Background()

	t.Run("find miss wraps not found sentinels", func(t *testing.T) {
		s := NewMemoryContentStore()

		_, err := s.FindByKey(ctx, dedup.NewKey("absent", "en"))
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, dedup.ErrNoRecord)
	})

	t.Run("insert then find", func(t *testing.T) {
		s := NewMemoryContentStore()
		rec := newRecord(t, "Café", "fr")

		committed, wasExisting, err := s.InsertOrGet(ctx, rec)
		require.NoError(t, err)
		assert.False(t, wasExisting)
		assert.Equal(t, rec.ID, committed.ID)

		found, err := s.FindByKey(ctx, dedup.NewKey("CAFE", "FR"))
		require.NoError(t, err)
		assert.Equal(t, rec.ID, found.ID)
	})

	t.Run("second insert for same key returns existing", func(t *testing.T) {
		s := NewMemoryContentStore()
		first := newRecord(t, "café", "fr")
		second := newRecord(t, "Cafe", "fr")

		_, wasExisting, err := s.InsertOrGet(ctx, first)
		require.NoError(t, err)
		require.False(t, wasExisting)

		committed, wasExisting, err := s.InsertOrGet(ctx, second)
		require.NoError(t, err)
		assert.True(t, wasExisting)
		assert.Equal(t, first.ID, committed.ID)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("concurrent inserts commit exactly one record", func(t *testing.T) {
		s := NewMemoryContentStore()

		const racers = 16
		var wg sync.WaitGroup
		inserted := make(chan bool, racers)

		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := newRecord(t, "serendipity", "en")
				_, wasExisting, err := s.InsertOrGet(ctx, rec)
				require.NoError(t, err)
				inserted <- !wasExisting
			}()
		}

		wg.Wait()
		close(inserted)

		wins := 0
		for won := range inserted {
			if won {
				wins++
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, 1, s.Len())
	})
}
