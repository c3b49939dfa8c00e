package pipeline

import "errors"

// Common errors returned by the pipeline.
var (
	// ErrInvalidRequest is returned when a job submission is empty or
	// exceeds the configured maximum batch size.
	ErrInvalidRequest = errors.New("invalid job request")

	// ErrJobNotFound is returned when the referenced job does not exist
	// in this runtime.
	ErrJobNotFound = errors.New("job not found")

	// errAssetExhausted is the internal signal that an asset attempt ran
	// out of transient retries without a policy rejection.
	errAssetExhausted = errors.New("asset generation retries exhausted")
)
