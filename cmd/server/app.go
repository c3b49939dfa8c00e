package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cmorris/wordforge/internal/config"
	"github.com/cmorris/wordforge/internal/pipeline"
	"github.com/cmorris/wordforge/internal/platform/gemini"
	"github.com/cmorris/wordforge/internal/platform/logger"
	"github.com/cmorris/wordforge/internal/store"
)

// application holds the long-lived components of the server process.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB // nil when running on the in-memory store
	runtime *pipeline.Runtime
}

// initializeApp loads configuration and wires the application
// components: logging, storage, the enrichment client and the pipeline
// runtime.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Pipeline.WorkerCount,
		"database_configured", cfg.Database.URL != "")

	app := &application{
		config: cfg,
		logger: appLogger,
	}

	contentStore, err := app.setupContentStore(ctx)
	if err != nil {
		return nil, err
	}

	client, err := gemini.NewClient(ctx, cfg.LLM, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment client: %w", err)
	}

	app.runtime = pipeline.NewRuntime(cfg, client, contentStore, appLogger)
	return app, nil
}

// setupContentStore selects Postgres when a database URL is configured
// and the in-memory store otherwise (local development).
func (app *application) setupContentStore(ctx context.Context) (store.ContentStore, error) {
	if app.config.Database.URL == "" {
		app.logger.Warn("no database configured, using in-memory content store")
		return store.NewMemoryContentStore(), nil
	}

	db, err := setupDatabase(ctx, app.config, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := store.RunMigrations(db); err != nil {
		return nil, err
	}
	app.logger.Info("database migrations applied")

	return store.NewPostgresContentStore(db, app.logger), nil
}

// cleanup releases resources on shutdown, after the HTTP server and the
// worker pool have stopped.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
