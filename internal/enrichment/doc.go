// Package enrichment provides interfaces and result types for interacting
// with external AI services that enrich content items. It abstracts the
// details of the provider integration (Gemini), allowing the pipeline core
// to drive text enrichment and asset generation without coupling to
// specific vendor SDKs or their loosely-typed payloads.
package enrichment
