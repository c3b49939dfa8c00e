package pipeline

import (
	"fmt"

	"github.com/cmorris/wordforge/internal/domain"
	"github.com/cmorris/wordforge/internal/enrichment"
)

// AttemptBuilder produces the ordered fallback attempt list for an
// item's asset stage, from most specific to most generic input. The
// default builder is used unless a runtime is constructed with a
// custom one.
type AttemptBuilder func(seed *enrichment.EnrichedContent) []enrichment.AttemptDescriptor

// DefaultAttempts builds the standard three-step fallback ladder:
// the literal word first, a description without the word itself second,
// and a wholly generic template last.
func DefaultAttempts(seed *enrichment.EnrichedContent) []enrichment.AttemptDescriptor {
	return []enrichment.AttemptDescriptor{
		{
			Name:   "literal",
			Prompt: fmt.Sprintf("An illustrative image of %q: %s", seed.Word, seed.Definition),
		},
		{
			Name:   "sanitized",
			Prompt: fmt.Sprintf("A simple, friendly illustration of the concept: %s", seed.Definition),
		},
		{
			Name:   "generic",
			Prompt: "A minimalist icon of an open book with a highlighted word",
		},
	}
}

// assetResult is the outcome of the asset stage for one item.
type assetResult struct {
	// ref is nil when every fallback attempt was policy-rejected; the
	// item still commits, with asset status absent.
	ref    *enrichment.AssetRef
	status domain.AssetStatus

	// attempts is the 1-based index of the attempt that settled the
	// stage (succeeded, or the last one rejected).
	attempts int
}
