package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"
)

// ContextKey is the key type for values this package stores on request
// contexts.
type ContextKey string

const (
	// OwnerIDContextKey is the context key for the calling owner's ID,
	// set by the owner middleware from the X-Owner-ID header.
	OwnerIDContextKey ContextKey = "ownerID"

	// TraceIDKey is the key for the trace ID in the request context.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID.
	TraceIDLength = 16 // 32 hex characters
)

// SetTraceID adds a freshly generated trace ID to the context for
// correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context, or "" if unset.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SetOwnerID stores the calling owner's ID on the context.
func SetOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, OwnerIDContextKey, ownerID)
}

// GetOwnerID retrieves the owner ID from the context, or "" if unset.
func GetOwnerID(ctx context.Context) string {
	ownerID, ok := ctx.Value(OwnerIDContextKey).(string)
	if !ok {
		return ""
	}
	return ownerID
}

// generateTraceID returns a 32-character hex string. If crypto/rand
// fails it falls back to a time-derived value rather than a static one.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	n, err := rand.Read(b)
	if err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"fallback", "time-based generation")
		return generateFallbackTraceID()
	}
	return hex.EncodeToString(b)
}

func generateFallbackTraceID() string {
	fallbackID := make([]byte, TraceIDLength)
	binary.BigEndian.PutUint64(fallbackID[:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(fallbackID[8:12], uint32(time.Now().Nanosecond()))
	binary.BigEndian.PutUint32(fallbackID[12:16], uint32(time.Now().Unix()))
	return hex.EncodeToString(fallbackID)
}
