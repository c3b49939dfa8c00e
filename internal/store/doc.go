// Package store provides the persistence boundary for committed content
// records. The pipeline depends only on the ContentStore interface; the
// Postgres implementation backs production and the in-memory one backs
// tests and local runs. The InsertOrGet conditional-insert primitive is
// what makes commit races safe under concurrency.
package store
