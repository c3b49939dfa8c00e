package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidJobStatus is returned when a job status is not valid.
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrInvalidJobTransition is returned when a job status change would
	// move backwards or out of a terminal state.
	ErrInvalidJobTransition = errors.New("invalid job status transition")

	// ErrInvalidItemState is returned when a job item state is not valid.
	ErrInvalidItemState = errors.New("invalid item state")

	// ErrItemAlreadyTerminal is returned when a terminal job item is
	// transitioned again.
	ErrItemAlreadyTerminal = errors.New("item already in terminal state")
)
