// Package pipeline implements the asynchronous content-enrichment job
// pipeline: the job controller owning batch lifecycle, the bounded
// worker pool that drives each item through admission, deduplication,
// enrichment, asset fallback and commit, and the retry/fallback policy
// shared by all provider call sites. A Runtime instance owns all
// per-process state (jobs, quota ledger, progress streams), so multiple
// isolated runtimes can coexist in one process for testing.
package pipeline
