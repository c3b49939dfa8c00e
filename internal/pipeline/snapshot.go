package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/cmorris/wordforge/internal/domain"
)

// JobSnapshot is a point-in-time, caller-owned copy of a job's state.
type JobSnapshot struct {
	ID         uuid.UUID        `json:"id"`
	OwnerID    string           `json:"owner_id"`
	Status     domain.JobStatus `json:"status"`
	Counts     map[string]int   `json:"counts"`
	Items      []ItemSnapshot   `json:"items"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  time.Time        `json:"started_at,omitzero"`
	FinishedAt time.Time        `json:"finished_at,omitzero"`
}

// ItemSnapshot mirrors one item. State carries the fallback attempt
// suffix while the item is generating assets.
type ItemSnapshot struct {
	ID         uuid.UUID         `json:"id"`
	SourceText string            `json:"source_text"`
	Locale     string            `json:"locale"`
	State      string            `json:"state"`
	ResultRef  *domain.ResultRef `json:"result_ref,omitempty"`
	ErrorKind  domain.ErrorKind  `json:"error_kind,omitempty"`
	Attempts   int               `json:"attempts"`

	// AssetAttempts is the highest fallback rung the asset stage
	// reached, zero when the stage never ran.
	AssetAttempts int `json:"asset_attempts,omitempty"`
}

// snapshotJob copies job and item state. Caller holds the job lock.
func snapshotJob(job *domain.Job, counts map[domain.ItemState]int) *JobSnapshot {
	snap := &JobSnapshot{
		ID:         job.ID,
		OwnerID:    job.OwnerID,
		Status:     job.Status,
		Counts:     make(map[string]int, len(counts)),
		Items:      make([]ItemSnapshot, 0, len(job.Items)),
		CreatedAt:  job.CreatedAt,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}

	for state, n := range counts {
		if n > 0 {
			snap.Counts[string(state)] = n
		}
	}

	for _, item := range job.Items {
		var ref *domain.ResultRef
		if item.ResultRef != nil {
			r := *item.ResultRef
			ref = &r
		}
		snap.Items = append(snap.Items, ItemSnapshot{
			ID:            item.ID,
			SourceText:    item.SourceText,
			Locale:        item.Locale,
			State:         item.StateLabel(),
			ResultRef:     ref,
			ErrorKind:     item.ErrorKind,
			Attempts:      item.Attempts,
			AssetAttempts: item.AssetAttempt,
		})
	}

	return snap
}
