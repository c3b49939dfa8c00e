package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T) *JobItem {
	t.Helper()
	item, err := NewJobItem(uuid.New(), "saudade", "pt")
	require.NoError(t, err)
	return item
}

func TestNewJobItem(t *testing.T) {
	item := newTestItem(t)

	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, ItemStatePending, item.State)
	assert.Nil(t, item.ResultRef)
	assert.Equal(t, ErrorKindNone, item.ErrorKind)
	assert.False(t, item.IsTerminal())

	t.Run("rejects empty locale", func(t *testing.T) {
		_, err := NewJobItem(uuid.New(), "saudade", "")
		assert.ErrorIs(t, err, ErrEmptyItemLocale)
	})
}

func TestJobItemTerminalInvariant(t *testing.T) {
	t.Run("committed sets result ref only", func(t *testing.T) {
		item := newTestItem(t)
		ref := ResultRef{RecordID: uuid.New(), AssetStatus: AssetStatusPresent}

		require.NoError(t, item.MarkCommitted(ref))

		assert.Equal(t, ItemStateCommitted, item.State)
		require.NotNil(t, item.ResultRef)
		assert.Equal(t, ref, *item.ResultRef)
		assert.Equal(t, ErrorKindNone, item.ErrorKind)
		assert.True(t, item.IsTerminal())
		assert.True(t, item.Succeeded())
	})

	t.Run("failed sets error kind only", func(t *testing.T) {
		item := newTestItem(t)

		require.NoError(t, item.MarkFailed(ErrorKindEnrichmentUnavailable))

		assert.Equal(t, ItemStateFailed, item.State)
		assert.Nil(t, item.ResultRef)
		assert.Equal(t, ErrorKindEnrichmentUnavailable, item.ErrorKind)
		assert.False(t, item.Succeeded())
	})

	t.Run("deduplicated counts as success", func(t *testing.T) {
		item := newTestItem(t)
		ref := ResultRef{RecordID: uuid.New(), AssetStatus: AssetStatusAbsent}

		require.NoError(t, item.MarkDeduplicated(ref))
		assert.True(t, item.Succeeded())
	})

	t.Run("terminal item cannot transition again", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.MarkRejected(ErrorKindQuotaExceeded))

		assert.ErrorIs(t,
			item.MarkCommitted(ResultRef{RecordID: uuid.New()}),
			ErrItemAlreadyTerminal)
		assert.ErrorIs(t, item.SetState(ItemStateEnriching), ErrItemAlreadyTerminal)
	})
}

func TestJobItemStateLabel(t *testing.T) {
	item := newTestItem(t)

	assert.Equal(t, "pending", item.StateLabel())

	require.NoError(t, item.SetState(ItemStateAssetFallback))
	item.AssetAttempt = 2
	assert.Equal(t, "asset_fallback_2", item.StateLabel())
}

func TestJobItemSetState(t *testing.T) {
	item := newTestItem(t)

	require.NoError(t, item.SetState(ItemStateAdmitted))
	require.NoError(t, item.SetState(ItemStateEnriching))

	// Terminal states must go through the Mark helpers.
	assert.ErrorIs(t, item.SetState(ItemStateCommitted), ErrInvalidItemState)
}
