package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cmorris/wordforge/internal/api/shared"
	"github.com/cmorris/wordforge/internal/domain"
	"github.com/cmorris/wordforge/internal/pipeline"
	"github.com/cmorris/wordforge/internal/quota"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	controller *pipeline.Controller
	ledger     *quota.Ledger
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(controller *pipeline.Controller, ledger *quota.Ledger, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		controller: controller,
		ledger:     ledger,
		validator:  validator.New(),
		logger:     logger.With("component", "job_handler"),
	}
}

// CreateJob handles POST /api/jobs requests. The job is created in the
// queued state; processing begins when the start endpoint is called.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.GetOwnerID(r.Context())
	if ownerID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Owner ID not found")
		return
	}

	var req CreateJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	requests := make([]domain.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		requests = append(requests, domain.ItemRequest{Text: item.Text, Locale: item.Locale})
	}

	job, err := h.controller.CreateJob(ownerID, requests)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	snap, err := h.controller.Status(job.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, jobToResponse(snap))
}

// StartJob handles POST /api/jobs/{id}/start requests. Starting is
// idempotent: a job that already left the queued state is unchanged.
func (h *JobHandler) StartJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromRequest(w, r)
	if !ok {
		return
	}

	snap, err := h.controller.Status(jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if !h.ownerMatches(w, r, snap.OwnerID) {
		return
	}

	if err := h.controller.StartJob(jobID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	snap, err = h.controller.Status(jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	// 202: processing happens asynchronously.
	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(snap))
}

// GetJob handles GET /api/jobs/{id} requests.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromRequest(w, r)
	if !ok {
		return
	}

	snap, err := h.controller.Status(jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if !h.ownerMatches(w, r, snap.OwnerID) {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(snap))
}

// CancelJob handles POST /api/jobs/{id}/cancel requests. Cancellation
// is cooperative; the response reflects the state at the time of the
// request, not the final outcome.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromRequest(w, r)
	if !ok {
		return
	}

	snap, err := h.controller.Status(jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if !h.ownerMatches(w, r, snap.OwnerID) {
		return
	}

	if err := h.controller.Cancel(jobID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	snap, err = h.controller.Status(jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(snap))
}

// GetQuota handles GET /api/quota requests for the calling owner.
func (h *JobHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.GetOwnerID(r.Context())
	if ownerID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Owner ID not found")
		return
	}

	entry := h.ledger.Snapshot(ownerID)
	shared.RespondWithJSON(w, r, http.StatusOK, QuotaResponse{
		OwnerID:     entry.OwnerID,
		Tier:        string(entry.Tier),
		ItemsUsed:   entry.ItemsUsed,
		ItemsLimit:  entry.ItemsLimit,
		PeriodStart: entry.PeriodStart,
	})
}

func (h *JobHandler) jobIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return uuid.Nil, false
	}
	return jobID, true
}

// ownerMatches enforces that callers only see their own jobs. A
// mismatch reports not-found rather than forbidden so job IDs cannot be
// probed.
func (h *JobHandler) ownerMatches(w http.ResponseWriter, r *http.Request, jobOwner string) bool {
	if shared.GetOwnerID(r.Context()) != jobOwner {
		shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
		return false
	}
	return true
}
