package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// ActorIDContextKey is the context key for the acting user's ID
	ActorIDContextKey ContextKey = "actorID"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// WithActorID returns a context carrying the acting user's ID.
func WithActorID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ActorIDContextKey, id)
}

// ActorID returns the acting user's ID, or false when the request is
// unauthenticated.
func ActorID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ActorIDContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetTraceID adds a trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	traceID := generateTraceID()
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// generateTraceID returns 32 random hex characters. If crypto/rand fails
// the trace ID falls back to a time-ordered UUID.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if _, err := rand.Read(b); err != nil {
		slog.Error("failed to generate random trace ID", "error", err)
		id, err := uuid.NewV7()
		if err != nil {
			return strconv.FormatInt(time.Now().UnixNano(), 16)
		}
		return strings.ReplaceAll(id.String(), "-", "")
	}
	return hex.EncodeToString(b)
}
