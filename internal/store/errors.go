package store

import (
	"errors"
	"fmt"

	"github.com/cmorris/wordforge/internal/dedup"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrRecordNotFound indicates that no content record exists for the
	// requested key. It wraps both the generic ErrNotFound and the dedup
	// package's miss sentinel so either check works.
	ErrRecordNotFound = fmt.Errorf("%w: %w", ErrNotFound, dedup.ErrNoRecord)
)
