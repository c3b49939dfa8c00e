package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cmorris/wordforge/internal/api"
	apiMiddleware "github.com/cmorris/wordforge/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	jobHandler := api.NewJobHandler(app.runtime.Controller, app.runtime.Ledger, app.logger)
	progressHandler := api.NewProgressHandler(app.runtime.Controller, app.runtime.Emitter, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.RequireOwner)

		r.Post("/jobs", jobHandler.CreateJob)
		r.Get("/jobs/{id}", jobHandler.GetJob)
		r.Post("/jobs/{id}/start", jobHandler.StartJob)
		r.Post("/jobs/{id}/cancel", jobHandler.CancelJob)
		r.Get("/jobs/{id}/events", progressHandler.StreamEvents)

		r.Get("/quota", jobHandler.GetQuota)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
