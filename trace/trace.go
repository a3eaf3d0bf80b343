// Package trace carries the client-side request id through a context.
//
// The id is sent as X-Request-ID so a call can be matched against gateway
// logs. The gateway's own correlation id comes back in x-trace-id and is
// reported separately on errors.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// HeaderRequestID is the outbound correlation header
	HeaderRequestID = "X-Request-ID"
	// HeaderTraceID is the gateway's correlation header on responses
	HeaderTraceID = "x-trace-id"
)

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns the id from ctx or a new uuid.
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return NewRequestID()
}

// NewRequestID generates a random request id.
func NewRequestID() string {
	return uuid.NewString()
}
