// Package ctxlog carries a *slog.Logger through context.Context so that every
// component of the loader (manager, job pool, payload modules) logs through
// the single logger configured by the host application.
package ctxlog

import (
	"context"
	"io"
	"log/slog"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. A missing logger is a
// wiring bug in the host, so it panics instead of silently dropping records.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}

// With returns a context whose logger carries the given attributes.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// Discard returns a context carrying a logger that drops every record.
// Useful for tests and for library callers that do not care about logs.
func Discard(ctx context.Context) context.Context {
	return WithLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)))
}
