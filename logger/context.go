package logger

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey string

// severityHookKey stores a callback for request-level severity tracking
const severityHookKey contextKey = "severity_hook"

// WithSeverityHook attaches a severity hook to the context. Loggers derived with
// WithContext report every WARN+ event to it, which lets the request middleware
// know that a request already produced explicit warning logs.
func WithSeverityHook(ctx context.Context, hook func(zerolog.Level)) context.Context {
	if ctx == nil || hook == nil {
		return ctx
	}
	return context.WithValue(ctx, severityHookKey, hook)
}

func severityHookFromContext(ctx context.Context) func(zerolog.Level) {
	if ctx == nil {
		return nil
	}
	if hook, ok := ctx.Value(severityHookKey).(func(zerolog.Level)); ok {
		return hook
	}
	return nil
}
