package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cmorris/wordforge/internal/pipeline"
	"github.com/cmorris/wordforge/internal/progress"
	"github.com/cmorris/wordforge/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "invalid request maps to 400",
			err:  fmt.Errorf("%w: batch too large", pipeline.ErrInvalidRequest),
			want: http.StatusBadRequest,
		},
		{
			name: "unknown job maps to 404",
			err:  pipeline.ErrJobNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "closed progress stream maps to 404",
			err:  progress.ErrUnknownJob,
			want: http.StatusNotFound,
		},
		{
			name: "missing record maps to 404",
			err:  store.ErrRecordNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "unknown errors map to 500",
			err:  errors.New("database exploded"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Invalid job request",
		GetSafeErrorMessage(fmt.Errorf("%w: too big", pipeline.ErrInvalidRequest)))
	assert.Equal(t, "Job not found", GetSafeErrorMessage(pipeline.ErrJobNotFound))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))

	// Raw details must never leak through.
	leaky := errors.New("pq: password authentication failed for user \"admin\"")
	assert.NotContains(t, GetSafeErrorMessage(leaky), "password")
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := errors.New(
		"Key: 'CreateJobRequest.Items[0].Locale' Error:Field validation for 'Locale' failed on the 'bcp47_language_tag' tag")
	msg := SanitizeValidationError(err)
	assert.Contains(t, msg, "Locale")
	assert.NotContains(t, msg, "CreateJobRequest")

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
}
