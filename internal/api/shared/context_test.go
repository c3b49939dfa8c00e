package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, TraceIDLength*2, "trace ID must be a 32-char hex string")

	// Each context gets its own ID.
	other := GetTraceID(SetTraceID(context.Background()))
	assert.NotEqual(t, traceID, other)

	assert.Empty(t, GetTraceID(context.Background()))
}

func TestOwnerIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := SetOwnerID(context.Background(), "owner-42")
	assert.Equal(t, "owner-42", GetOwnerID(ctx))
	assert.Empty(t, GetOwnerID(context.Background()))
}
