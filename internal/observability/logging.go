// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	var handler slog.Handler
	if os.Getenv("APP_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
	SpanID        LogContextKey = "span_id"
	TraceID       LogContextKey = "trace_id"
)

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// LogAuthRejected logs a rejected signed request with its reason.
func (l *Logger) LogAuthRejected(ctx context.Context, reason, nonce string) {
	l.WarnContext(ctx, "signed request rejected",
		slog.String("reason", reason),
		slog.String("nonce", nonce),
	)
}

// LogCascade logs a cascading soft delete.
func (l *Logger) LogCascade(ctx context.Context, resource string, id uint, affected int64) {
	l.InfoContext(ctx, "cascade soft delete",
		slog.String("resource", resource),
		slog.Uint64("id", uint64(id)),
		slog.Int64("affected", affected),
	)
}
