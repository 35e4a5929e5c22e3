// Package logging is the project's structured-logging port. Components take a
// Logger and never a concrete back end; New picks slog (text or JSON) or zap
// from configuration.
package logging

import "context"

// Logger is a context-aware, structured logger. args are key/value pairs:
//
//	log.Info(ctx, "chat selected", "session_id", id)
type Logger interface {
	// Debug is for stale responses, cache refreshes and similar detail.
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for failures the caller recovers from.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	// With returns a child logger that adds args to every entry.
	With(args ...any) Logger
}
