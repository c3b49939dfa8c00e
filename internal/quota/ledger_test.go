package quota

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimits() map[Tier]Limits {
	return map[Tier]Limits{
		TierFree:      {Items: 3, Period: 24 * time.Hour},
		TierPro:       {Items: 100, Period: 24 * time.Hour},
		TierUnlimited: {Items: 0, Period: 0},
	}
}

func newTestLedger() *Ledger {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLedger(testLimits(), TierFree, logger)
}

func TestTryAdmit(t *testing.T) {
	t.Run("admits until limit then denies", func(t *testing.T) {
		ledger := newTestLedger()

		for i := 0; i < 3; i++ {
			granted, reason := ledger.TryAdmit("owner-1", 1)
			assert.True(t, granted, "admission %d should succeed", i+1)
			assert.Empty(t, reason)
		}

		granted, reason := ledger.TryAdmit("owner-1", 1)
		assert.False(t, granted)
		assert.Equal(t, ReasonQuotaExceeded, reason)

		entry := ledger.Snapshot("owner-1")
		assert.Equal(t, 3, entry.ItemsUsed)
		assert.Equal(t, 3, entry.ItemsLimit)
	})

	t.Run("owners are independent", func(t *testing.T) {
		ledger := newTestLedger()

		for i := 0; i < 3; i++ {
			granted, _ := ledger.TryAdmit("owner-a", 1)
			require.True(t, granted)
		}

		granted, _ := ledger.TryAdmit("owner-b", 1)
		assert.True(t, granted)
	})

	t.Run("unlimited tier never denies", func(t *testing.T) {
		ledger := newTestLedger()
		ledger.SetTier("owner-1", TierUnlimited)

		for i := 0; i < 1000; i++ {
			granted, _ := ledger.TryAdmit("owner-1", 1)
			require.True(t, granted)
		}
	})

	t.Run("multi-unit cost denied atomically", func(t *testing.T) {
		ledger := newTestLedger()

		granted, _ := ledger.TryAdmit("owner-1", 2)
		require.True(t, granted)

		// 2 used of 3; a cost of 2 must be denied outright, not
		// partially admitted.
		granted, reason := ledger.TryAdmit("owner-1", 2)
		assert.False(t, granted)
		assert.Equal(t, ReasonQuotaExceeded, reason)
		assert.Equal(t, 2, ledger.Snapshot("owner-1").ItemsUsed)
	})
}

func TestRefund(t *testing.T) {
	t.Run("returns units to the owner", func(t *testing.T) {
		ledger := newTestLedger()

		granted, _ := ledger.TryAdmit("owner-1", 3)
		require.True(t, granted)

		ledger.Refund("owner-1", 1)

		granted, _ = ledger.TryAdmit("owner-1", 1)
		assert.True(t, granted)
	})

	t.Run("double refund clamps at zero", func(t *testing.T) {
		ledger := newTestLedger()

		granted, _ := ledger.TryAdmit("owner-1", 1)
		require.True(t, granted)

		ledger.Refund("owner-1", 1)
		ledger.Refund("owner-1", 1)

		assert.Equal(t, 0, ledger.Snapshot("owner-1").ItemsUsed)
	})
}

func TestPeriodReset(t *testing.T) {
	ledger := newTestLedger()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		granted, _ := ledger.TryAdmit("owner-1", 1)
		require.True(t, granted)
	}

	granted, _ := ledger.TryAdmit("owner-1", 1)
	require.False(t, granted)

	// Advance past the period; the next admission resets lazily.
	current = current.Add(25 * time.Hour)

	granted, _ = ledger.TryAdmit("owner-1", 1)
	assert.True(t, granted)

	entry := ledger.Snapshot("owner-1")
	assert.Equal(t, 1, entry.ItemsUsed)

	// Period start advanced by a whole period, keeping alignment.
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), entry.PeriodStart)
}

// The limit must hold at every instant even under concurrent admission
// from many workers for the same owner.
func TestTryAdmitConcurrent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := NewLedger(map[Tier]Limits{
		TierFree: {Items: 50, Period: 24 * time.Hour},
	}, TierFree, logger)

	const workers = 20
	const attemptsPerWorker = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	grantedTotal := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < attemptsPerWorker; i++ {
				if granted, _ := ledger.TryAdmit("owner-1", 1); granted {
					mu.Lock()
					grantedTotal++
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 50, grantedTotal)
	assert.Equal(t, 50, ledger.Snapshot("owner-1").ItemsUsed)
}
