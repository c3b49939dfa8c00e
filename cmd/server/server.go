package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// run starts the worker pool and the HTTP server, then blocks until a
// shutdown signal arrives. Shutdown order: stop accepting requests,
// drain in-flight items, release resources.
func (app *application) run() error {
	app.runtime.Start()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.setupRouter(),
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		app.logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		app.logger.Error("server failed", "error", err)
		app.runtime.Stop()
		app.cleanup()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
	}

	app.runtime.Stop()
	app.cleanup()

	app.logger.Info("server shutdown completed")
	return nil
}
