package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cmorris/wordforge/internal/pipeline"
	"github.com/cmorris/wordforge/internal/progress"
	"github.com/cmorris/wordforge/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest

	case errors.Is(err, pipeline.ErrJobNotFound),
		errors.Is(err, progress.ErrUnknownJob),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type, never the raw error string.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return "Invalid job request"

	case errors.Is(err, pipeline.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, progress.ErrUnknownJob):
		return "Job has no active progress stream"

	case errors.Is(err, store.ErrNotFound):
		return "Record not found"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'CreateJobRequest.Items[0].Locale' Error:Field
		// validation for 'Locale' failed on the 'bcp47_language_tag' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "bcp47_language_tag":
		return "must be a BCP 47 language tag"
	default:
		return "validation failed"
	}
}
