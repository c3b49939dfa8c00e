package api

import (
	"time"

	"github.com/cmorris/wordforge/internal/pipeline"
)

// Common request/response structures

// ItemRequest defines one entry of a job submission.
type ItemRequest struct {
	Text   string `json:"text"   validate:"required,min=1,max=200"`
	Locale string `json:"locale" validate:"required,bcp47_language_tag"`
}

// CreateJobRequest defines the payload for the job submission endpoint.
// The batch size ceiling is enforced by the pipeline, not here, so the
// configured limit has a single source.
type CreateJobRequest struct {
	Items []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ItemResponse mirrors one job item for API clients.
type ItemResponse struct {
	ID            string            `json:"id"`
	Text          string            `json:"text"`
	Locale        string            `json:"locale"`
	State         string            `json:"state"`
	ErrorKind     string            `json:"error_kind,omitempty"`
	AssetAttempts int               `json:"asset_attempts,omitempty"`
	Result        *ItemResultDetail `json:"result,omitempty"`
}

// ItemResultDetail points API clients at the committed content record.
type ItemResultDetail struct {
	RecordID    string `json:"record_id"`
	AssetStatus string `json:"asset_status"`
}

// JobResponse defines the response for job submission and status reads.
type JobResponse struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"owner_id"`
	Status     string         `json:"status"`
	Counts     map[string]int `json:"counts,omitempty"`
	Items      []ItemResponse `json:"items"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// QuotaResponse reports the calling owner's current quota window.
type QuotaResponse struct {
	OwnerID     string    `json:"owner_id"`
	Tier        string    `json:"tier"`
	ItemsUsed   int       `json:"items_used"`
	ItemsLimit  int       `json:"items_limit"`
	PeriodStart time.Time `json:"period_start"`
}

// jobToResponse converts a pipeline snapshot to the API representation.
func jobToResponse(snap *pipeline.JobSnapshot) JobResponse {
	resp := JobResponse{
		ID:        snap.ID.String(),
		OwnerID:   snap.OwnerID,
		Status:    string(snap.Status),
		Counts:    snap.Counts,
		Items:     make([]ItemResponse, 0, len(snap.Items)),
		CreatedAt: snap.CreatedAt,
	}
	if !snap.StartedAt.IsZero() {
		t := snap.StartedAt
		resp.StartedAt = &t
	}
	if !snap.FinishedAt.IsZero() {
		t := snap.FinishedAt
		resp.FinishedAt = &t
	}

	for _, item := range snap.Items {
		out := ItemResponse{
			ID:            item.ID.String(),
			Text:          item.SourceText,
			Locale:        item.Locale,
			State:         item.State,
			ErrorKind:     string(item.ErrorKind),
			AssetAttempts: item.AssetAttempts,
		}
		if item.ResultRef != nil {
			out.Result = &ItemResultDetail{
				RecordID:    item.ResultRef.RecordID.String(),
				AssetStatus: string(item.ResultRef.AssetStatus),
			}
		}
		resp.Items = append(resp.Items, out)
	}

	return resp
}
