// Package logging provides structured logging utilities with context propagation.
//
// It wraps log/slog with the handful of helpers the lesson server, the file
// server and the charcount CLI share: level and format selection from the
// environment, request ID propagation and logger-in-context.
//
// Example usage:
//
//	logger := logging.FromEnv(os.Stdout)
//	slog.SetDefault(logger)
//	logger.Info("server starting", slog.String("addr", ":3000"))
package logging
