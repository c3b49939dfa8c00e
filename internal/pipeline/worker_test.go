package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorris/wordforge/internal/dedup"
	"github.com/cmorris/wordforge/internal/domain"
	"github.com/cmorris/wordforge/internal/store"
)

// failingStore errors on every operation, simulating a storage outage.
type failingStore struct{}

func (failingStore) FindByKey(context.Context, dedup.Key) (*domain.ContentRecord, error) {
	return nil, errors.New("storage offline")
}

func (failingStore) InsertOrGet(context.Context, *domain.ContentRecord) (*domain.ContentRecord, bool, error) {
	return nil, false, errors.New("storage offline")
}

func TestCommitRaceResolvesAsDedup(t *testing.T) {
	t.Parallel()

	cs := store.NewMemoryContentStore()
	rt := newTestRuntime(t, testConfig(), &fakeClient{}, cs)

	// Two items with the same dedup key run concurrently. Whichever
	// commits second must land on the first one's record, not error and
	// not duplicate.
	job, err := rt.Controller.CreateJob("owner-race", requests("Echo", "echo"))
	require.NoError(t, err)
	require.NoError(t, rt.Controller.StartJob(job.ID))

	snap := waitForTerminal(t, rt, job)
	assert.Equal(t, domain.JobStatusCompleted, snap.Status)
	assert.Equal(t, 1, cs.Len())

	committed := snap.Counts[string(domain.ItemStateCommitted)]
	deduped := snap.Counts[string(domain.ItemStateDeduplicated)]
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, deduped)

	// The losing item's admission is refunded.
	assert.Equal(t, 1, rt.Ledger.Snapshot("owner-race").ItemsUsed)

	for _, item := range snap.Items {
		require.NotNil(t, item.ResultRef)
	}
	assert.Equal(t, snap.Items[0].ResultRef.RecordID, snap.Items[1].ResultRef.RecordID,
		"both items must reference the single committed record")
}

func TestStoreOutageFailsItem(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t, testConfig(), &fakeClient{}, failingStore{})

	job, err := rt.Controller.CreateJob("owner-outage", requests("ember"))
	require.NoError(t, err)
	require.NoError(t, rt.Controller.StartJob(job.ID))

	snap := waitForTerminal(t, rt, job)
	assert.Equal(t, domain.JobStatusFailed, snap.Status)
	item := snap.Items[0]
	assert.Equal(t, string(domain.ItemStateFailed), item.State)
	assert.Equal(t, domain.ErrorKindStoreUnavailable, item.ErrorKind)
}
