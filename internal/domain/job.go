package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a batch enrichment job.
type JobStatus string

// Possible job status values. Transitions only move forward:
// queued -> running -> {completed, failed, cancelled}.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Common validation errors for Job
var (
	ErrEmptyJobID      = errors.New("job ID cannot be empty")
	ErrEmptyJobOwnerID = errors.New("job owner ID cannot be empty")
	ErrEmptyJobItems   = errors.New("job must contain at least one item")
)

// Job represents a batch enrichment request submitted by an owner.
// Item order is preserved for display purposes only; execution order
// among items is not defined.
type Job struct {
	ID         uuid.UUID  `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Status     JobStatus  `json:"status"`
	Items      []*JobItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  time.Time  `json:"started_at,omitzero"`
	FinishedAt time.Time  `json:"finished_at,omitzero"`
}

// NewJob creates a new Job in the queued state with one pending JobItem
// per request. It generates a new UUID for the job ID and sets the
// creation timestamp. Returns an error if validation fails.
func NewJob(ownerID string, requests []ItemRequest) (*Job, error) {
	job := &Job{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Status:    JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	job.Items = make([]*JobItem, 0, len(requests))
	for _, req := range requests {
		item, err := NewJobItem(job.ID, req.Text, req.Locale)
		if err != nil {
			return nil, err
		}
		job.Items = append(job.Items, item)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// ItemRequest is one entry of the submitted item list.
type ItemRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

// Validate checks if the Job has valid data.
// Returns an error if any field fails validation.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.OwnerID == "" {
		return ErrEmptyJobOwnerID
	}

	if len(j.Items) == 0 {
		return ErrEmptyJobItems
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// IsTerminal reports whether the job has reached a final status.
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// UpdateStatus moves the job to the given status, enforcing forward-only
// transitions. Terminal statuses are immutable. Moving to running records
// StartedAt; moving to a terminal status records FinishedAt.
func (j *Job) UpdateStatus(status JobStatus) error {
	if !isValidJobStatus(status) {
		return ErrInvalidJobStatus
	}

	if !canTransitionJob(j.Status, status) {
		return ErrInvalidJobTransition
	}

	j.Status = status
	now := time.Now().UTC()
	switch status {
	case JobStatusRunning:
		j.StartedAt = now
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		j.FinishedAt = now
	}
	return nil
}

func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

func canTransitionJob(from, to JobStatus) bool {
	switch from {
	case JobStatusQueued:
		return to == JobStatusRunning || to == JobStatusCancelled
	case JobStatusRunning:
		return to == JobStatusCompleted || to == JobStatusFailed || to == JobStatusCancelled
	default:
		// Terminal statuses are immutable.
		return false
	}
}
