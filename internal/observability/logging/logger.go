package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"charcounter/internal/handler/http/requestid"
)

// ParseLevel maps a LOG_LEVEL value to a slog level.
// Supported levels: debug, info, warn, error. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a JSON logger writing to w at the given level.
// Source locations are attached for warn and error records.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level >= slog.LevelWarn,
	}))
}

// NewTextLogger creates a human-readable logger, used by the CLI and for local development.
func NewTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// FromEnv builds a logger from LOG_LEVEL and LOG_FORMAT (json or text, default json).
func FromEnv(w io.Writer) *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		return NewTextLogger(w, level)
	}
	return NewLogger(w, level)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRequestID returns a logger that includes the request ID from the context.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With(slog.String("request_id", reqID))
}

// FromContext retrieves the logger from the context, or the default logger if none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
