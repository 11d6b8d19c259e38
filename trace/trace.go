// Package trace carries the request correlation ID between inbound server
// requests and outbound HTTP client calls.
package trace

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// HeaderXRequestID is the header used to correlate inbound and outbound requests
	HeaderXRequestID = "X-Request-ID"
)

// WithRequestID stores a request ID in the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stored in ctx, if any
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns the request ID from ctx or a fresh uuid
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// InjectRequestID sets X-Request-ID on h unless the caller already set one.
func InjectRequestID(ctx context.Context, h http.Header) {
	if h.Get(HeaderXRequestID) != "" {
		return
	}
	h.Set(HeaderXRequestID, EnsureRequestID(ctx))
}
