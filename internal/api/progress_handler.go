package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cmorris/wordforge/internal/api/shared"
	"github.com/cmorris/wordforge/internal/domain"
	"github.com/cmorris/wordforge/internal/pipeline"
	"github.com/cmorris/wordforge/internal/progress"
)

// ProgressHandler streams job progress to clients over Server-Sent
// Events.
type ProgressHandler struct {
	controller *pipeline.Controller
	emitter    *progress.Emitter
	logger     *slog.Logger
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(controller *pipeline.Controller, emitter *progress.Emitter, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		controller: controller,
		emitter:    emitter,
		logger:     logger.With("component", "progress_handler"),
	}
}

// progressEvent is the SSE wire format of one progress event.
type progressEvent struct {
	Sequence        uint64    `json:"sequence"`
	JobID           string    `json:"job_id"`
	ItemID          string    `json:"item_id,omitempty"`
	State           string    `json:"state"`
	PercentComplete float64   `json:"percent_complete"`
	ETASeconds      float64   `json:"eta_seconds"`
	TerminalCount   int       `json:"terminal_count"`
	TotalCount      int       `json:"total_count"`
	Snapshot        bool      `json:"snapshot,omitempty"`
	EmittedAt       time.Time `json:"emitted_at"`
}

func toProgressEvent(ev progress.Event) progressEvent {
	out := progressEvent{
		Sequence:        ev.Sequence,
		JobID:           ev.JobID.String(),
		State:           ev.NewState,
		PercentComplete: ev.PercentComplete,
		ETASeconds:      ev.ETA.Seconds(),
		TerminalCount:   ev.TerminalCount,
		TotalCount:      ev.TotalCount,
		Snapshot:        ev.Snapshot,
		EmittedAt:       ev.EmittedAt,
	}
	if ev.ItemID != uuid.Nil {
		out.ItemID = ev.ItemID.String()
	}
	return out
}

// StreamEvents handles GET /api/jobs/{id}/events requests. The stream
// opens with a snapshot event and then tails live transitions until the
// job finishes or the client disconnects. Jobs without a live stream
// (never started, or already finished) get one snapshot synthesized
// from job status instead.
func (h *ProgressHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	snap, err := h.controller.Status(jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if shared.GetOwnerID(r.Context()) != snap.OwnerID {
		shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	sub, err := h.emitter.Subscribe(jobID)
	if err != nil {
		// No live stream: the job either finished or was never started.
		// Send one snapshot derived from job status so the client still
		// gets an accurate picture, then end the stream.
		h.writeHeader(w)
		h.writeSnapshot(w, snap)
		flusher.Flush()
		return
	}
	defer sub.Close()

	h.writeHeader(w)
	flusher.Flush()

	traceID := shared.GetTraceID(r.Context())
	h.logger.Debug("progress stream opened", "job_id", jobID, "trace_id", traceID)

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("progress stream client disconnected", "job_id", jobID, "trace_id", traceID)
			return
		case ev, open := <-sub.Events():
			if !open {
				// Emitter finished the job and closed the stream.
				h.logger.Debug("progress stream finished", "job_id", jobID, "trace_id", traceID)
				return
			}
			if err := writeSSE(w, "progress", toProgressEvent(ev)); err != nil {
				h.logger.Debug("progress stream write failed",
					"job_id", jobID, "trace_id", traceID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (h *ProgressHandler) writeHeader(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

// writeSnapshot emits a single synthetic snapshot for a job with no
// live stream. The terminal tally comes from the status counts, so a
// queued job reports zero progress and a finished one reports full.
func (h *ProgressHandler) writeSnapshot(w http.ResponseWriter, snap *pipeline.JobSnapshot) {
	total := len(snap.Items)
	terminal := 0
	for state, count := range snap.Counts {
		if domain.ItemState(state).Terminal() {
			terminal += count
		}
	}
	percent := 0.0
	if total > 0 {
		percent = float64(terminal) / float64(total)
	}
	ev := progressEvent{
		JobID:           snap.ID.String(),
		State:           "snapshot",
		PercentComplete: percent,
		TerminalCount:   terminal,
		TotalCount:      total,
		Snapshot:        true,
		EmittedAt:       time.Now().UTC(),
	}
	if err := writeSSE(w, "progress", ev); err != nil {
		h.logger.Debug("final snapshot write failed", "job_id", snap.ID, "error", err)
	}
}

func writeSSE(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE payload: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
