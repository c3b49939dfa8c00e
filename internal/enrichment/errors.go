package enrichment

import "errors"

// Common errors returned by enrichment clients. The pipeline classifies
// provider failures with errors.Is against these sentinels.
var (
	// ErrContentRejected is returned when the provider refuses the request
	// on content-policy grounds. This is permanent for the given input and
	// must not be retried; at the asset stage it advances the fallback.
	ErrContentRejected = errors.New("content rejected by provider policy")

	// ErrTransient is returned for temporary failures (timeouts, rate
	// limits, 5xx-equivalents) that may resolve on retry.
	ErrTransient = errors.New("transient enrichment provider error")

	// ErrInvalidResponse is returned when the provider response cannot be
	// parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from enrichment provider")

	// ErrInvalidConfig is returned when the client configuration is invalid.
	ErrInvalidConfig = errors.New("invalid enrichment client configuration")
)
