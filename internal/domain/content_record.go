package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Content record validation errors
var (
	ErrEmptyRecordID   = errors.New("record ID cannot be empty")
	ErrEmptyRecordKey  = errors.New("record normalized key cannot be empty")
	ErrEmptyEnrichment = errors.New("record enrichment content cannot be empty")
)

// ContentRecord is the pipeline's projection of a committed enrichment
// result in the external content store. At most one record exists per
// normalized (text, locale) key; the store's conditional insert enforces
// this under concurrency.
type ContentRecord struct {
	ID             uuid.UUID `json:"id"`
	SourceText     string    `json:"source_text"`
	NormalizedText string    `json:"normalized_text"`
	Locale         string    `json:"locale"`

	// KeyHash is a stable 64-bit digest of the normalized key, used as
	// a cheap index column alongside the unique (normalized_text, locale)
	// constraint.
	KeyHash uint64 `json:"key_hash"`

	// Enrichment holds the text-stage output as a JSON document, keeping
	// the record schema open to provider-specific fields.
	Enrichment json.RawMessage `json:"enrichment"`

	AssetURL    string      `json:"asset_url,omitempty"`
	AssetStatus AssetStatus `json:"asset_status"`

	CreatedAt time.Time `json:"created_at"`
}

// NewContentRecord creates a content record ready for commit.
// Returns an error if validation fails.
func NewContentRecord(
	sourceText, normalizedText, locale string,
	keyHash uint64,
	enrichment json.RawMessage,
) (*ContentRecord, error) {
	rec := &ContentRecord{
		ID:             uuid.New(),
		SourceText:     sourceText,
		NormalizedText: normalizedText,
		Locale:         locale,
		KeyHash:        keyHash,
		Enrichment:     enrichment,
		AssetStatus:    AssetStatusAbsent,
		CreatedAt:      time.Now().UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// AttachAsset records a generated asset reference on the record.
func (r *ContentRecord) AttachAsset(url string) {
	r.AssetURL = url
	r.AssetStatus = AssetStatusPresent
}

// Validate checks if the ContentRecord has valid data.
func (r *ContentRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRecordID
	}

	if r.NormalizedText == "" || r.Locale == "" {
		return ErrEmptyRecordKey
	}

	if len(r.Enrichment) == 0 {
		return ErrEmptyEnrichment
	}

	if !json.Valid(r.Enrichment) {
		return ErrEmptyEnrichment
	}

	return nil
}
