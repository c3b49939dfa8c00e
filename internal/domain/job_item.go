package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemState represents the processing state of a single job item.
type ItemState string

// Possible item states. The terminal states are committed, deduplicated,
// rejected and failed; everything else is transient.
const (
	ItemStatePending       ItemState = "pending"
	ItemStateAdmitted      ItemState = "admitted"
	ItemStateDeduplicated  ItemState = "deduplicated"
	ItemStateEnriching     ItemState = "enriching"
	ItemStateAssetFallback ItemState = "asset_fallback"
	ItemStateCommitted     ItemState = "committed"
	ItemStateRejected      ItemState = "rejected"
	ItemStateFailed        ItemState = "failed"
)

// ErrorKind classifies why an item ended in a rejected or failed state.
type ErrorKind string

// Possible error kinds recorded on terminal items.
const (
	ErrorKindNone                  ErrorKind = ""
	ErrorKindQuotaExceeded         ErrorKind = "quota_exceeded"
	ErrorKindContentRejected       ErrorKind = "content_rejected"
	ErrorKindEnrichmentUnavailable ErrorKind = "enrichment_unavailable"
	ErrorKindAssetUnavailable      ErrorKind = "asset_unavailable"
	ErrorKindStoreUnavailable      ErrorKind = "store_unavailable"
	ErrorKindCancelled             ErrorKind = "cancelled"
)

// AssetStatus records whether a committed record carries a generated asset.
type AssetStatus string

// Possible asset status values.
const (
	AssetStatusPresent AssetStatus = "present"
	AssetStatusAbsent  AssetStatus = "absent"
)

// Common validation errors for JobItem
var (
	ErrEmptyItemID     = errors.New("item ID cannot be empty")
	ErrEmptyItemJobID  = errors.New("item job ID cannot be empty")
	ErrEmptyItemText   = errors.New("item source text cannot be empty")
	ErrEmptyItemLocale = errors.New("item locale cannot be empty")
)

// ResultRef points at the committed content record an item resolved to,
// either by a fresh commit or a deduplication hit.
type ResultRef struct {
	RecordID    uuid.UUID   `json:"record_id"`
	AssetStatus AssetStatus `json:"asset_status"`
}

// JobItem is one unit of work within a Job. A JobItem is mutated only by
// the single worker that claims it for its entire pipeline run; no other
// component writes to it while the item is in flight.
type JobItem struct {
	ID         uuid.UUID  `json:"id"`
	JobID      uuid.UUID  `json:"job_id"`
	SourceText string     `json:"source_text"`
	Locale     string     `json:"locale"`
	State      ItemState  `json:"state"`
	ResultRef  *ResultRef `json:"result_ref,omitempty"`
	ErrorKind  ErrorKind  `json:"error_kind,omitempty"`

	// Attempts counts enrichment+asset cycles attempted for the item.
	Attempts int `json:"attempts"`

	// AssetAttempt is the 1-based fallback attempt index while the item
	// is in the asset_fallback state.
	AssetAttempt int `json:"asset_attempt,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewJobItem creates a pending JobItem for the given job.
// Returns an error if validation fails.
func NewJobItem(jobID uuid.UUID, sourceText, locale string) (*JobItem, error) {
	item := &JobItem{
		ID:         uuid.New(),
		JobID:      jobID,
		SourceText: sourceText,
		Locale:     locale,
		State:      ItemStatePending,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the JobItem has valid data.
func (i *JobItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrEmptyItemID
	}

	if i.JobID == uuid.Nil {
		return ErrEmptyItemJobID
	}

	if i.SourceText == "" {
		return ErrEmptyItemText
	}

	if i.Locale == "" {
		return ErrEmptyItemLocale
	}

	return nil
}

// Terminal reports whether the state is one of the four final states.
func (s ItemState) Terminal() bool {
	switch s {
	case ItemStateCommitted, ItemStateDeduplicated, ItemStateRejected, ItemStateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the item has reached a final state.
func (i *JobItem) IsTerminal() bool {
	return i.State.Terminal()
}

// Succeeded reports whether the item ended with a committed or
// deduplicated record.
func (i *JobItem) Succeeded() bool {
	return i.State == ItemStateCommitted || i.State == ItemStateDeduplicated
}

// StateLabel renders the item state for display. The asset fallback state
// carries its attempt index (e.g. "asset_fallback_2").
func (i *JobItem) StateLabel() string {
	if i.State == ItemStateAssetFallback && i.AssetAttempt > 0 {
		return fmt.Sprintf("%s_%d", ItemStateAssetFallback, i.AssetAttempt)
	}
	return string(i.State)
}

// SetState moves the item to a non-terminal state. Returns an error if
// the item is already terminal.
func (i *JobItem) SetState(state ItemState) error {
	if i.IsTerminal() {
		return ErrItemAlreadyTerminal
	}

	switch state {
	case ItemStatePending, ItemStateAdmitted, ItemStateEnriching, ItemStateAssetFallback:
	default:
		return ErrInvalidItemState
	}

	i.State = state
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCommitted moves the item to the committed terminal state with the
// given result reference.
func (i *JobItem) MarkCommitted(ref ResultRef) error {
	return i.finish(ItemStateCommitted, &ref, ErrorKindNone)
}

// MarkDeduplicated moves the item to the deduplicated terminal state,
// pointing at the already-committed record.
func (i *JobItem) MarkDeduplicated(ref ResultRef) error {
	return i.finish(ItemStateDeduplicated, &ref, ErrorKindNone)
}

// MarkRejected moves the item to the rejected terminal state with the
// given error kind.
func (i *JobItem) MarkRejected(kind ErrorKind) error {
	return i.finish(ItemStateRejected, nil, kind)
}

// MarkFailed moves the item to the failed terminal state with the given
// error kind.
func (i *JobItem) MarkFailed(kind ErrorKind) error {
	return i.finish(ItemStateFailed, nil, kind)
}

// finish enforces the terminal-state invariant: exactly one of result
// reference or error kind is set, and a terminal item never transitions
// again.
func (i *JobItem) finish(state ItemState, ref *ResultRef, kind ErrorKind) error {
	if i.IsTerminal() {
		return ErrItemAlreadyTerminal
	}

	if ref != nil && kind != ErrorKindNone {
		return ErrInvalidItemState
	}

	i.State = state
	i.ResultRef = ref
	i.ErrorKind = kind
	i.UpdatedAt = time.Now().UTC()
	return nil
}
