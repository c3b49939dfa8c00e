// Package main implements the entry point for the wordforge server,
// which drives word-enrichment jobs through the LLM pipeline and serves
// the job management API.
package main

import (
	"context"
	"log"
)

func main() {
	app, err := initializeApp(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
