// Package dedup detects equivalent content across jobs. It normalizes
// source text into a canonical form, derives a stable key for the
// (text, locale) pair, and resolves candidate keys against the content
// store so that the same word is never enriched and committed twice.
package dedup
