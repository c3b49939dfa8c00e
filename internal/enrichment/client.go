package enrichment

import "context"

// EnrichedContent is the strongly-typed result of the text-enrichment
// stage. Adapters at the provider boundary are responsible for mapping
// loosely-typed provider payloads into this structure; the pipeline core
// never inspects raw provider responses.
type EnrichedContent struct {
	Word         string   `json:"word"`
	Definition   string   `json:"definition"`
	PartOfSpeech string   `json:"part_of_speech,omitempty"`
	Phonetic     string   `json:"phonetic,omitempty"`
	Example      string   `json:"example,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
}

// AssetRef points at a generated asset.
type AssetRef struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
}

// AttemptDescriptor is one entry in the ordered fallback list for asset
// generation, ordered from most specific to most generic.
type AttemptDescriptor struct {
	// Name identifies the attempt for logging and tests
	// ("literal", "sanitized", "generic").
	Name string

	// Prompt is the rendered asset-generation input for this attempt.
	Prompt string
}

// Client performs the external enrichment calls for one item: one text
// stage call and one-or-more asset stage calls. Implementations make a
// single provider call per invocation; retry and fallback policy live in
// the pipeline.
type Client interface {
	// EnrichText performs the text-enrichment stage for the given source
	// text and locale. Errors are classified against the package
	// sentinels: ErrContentRejected is a permanent policy signal,
	// ErrTransient may be retried.
	EnrichText(ctx context.Context, text, locale string) (*EnrichedContent, error)

	// GenerateAsset performs one asset-generation call using the text
	// stage output as seed. rejected=true reports a policy rejection of
	// this specific attempt, distinct from err != nil (transient or
	// malformed-response failures).
	GenerateAsset(ctx context.Context, seed *EnrichedContent, attempt AttemptDescriptor) (ref *AssetRef, rejected bool, err error)
}
