// Package respond writes JSON responses and user-safe error bodies.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are already sent
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes err's message verbatim as {"error": "..."}.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// safePhrases mark error messages that can be shown to clients unchanged.
var safePhrases = []string{
	"required",
	"invalid",
	"not found",
	"not allowed",
	"must be",
	"too large",
	"rate limit exceeded",
}

// AppError carries a user-facing message alongside the internal cause.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

// Error implements error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

// Unwrap returns the internal cause.
func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an AppError.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}

// SafeError writes an error body without leaking internals.
//
// An *AppError in the chain answers with its own code and UserMsg. Other
// errors are returned verbatim only when they are 4xx and their message
// contains a safe phrase; everything else becomes "internal server error"
// and is logged with secrets masked.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			slog.Default().Error("application error",
				slog.Int("code", appErr.Code),
				slog.String("user_message", appErr.UserMsg),
				slog.String("error", SanitizeError(appErr.Err)))
		}
		JSON(w, appErr.Code, map[string]string{"error": appErr.UserMsg})
		return
	}

	msg := err.Error()
	if code < http.StatusInternalServerError && isSafe(msg) {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

func isSafe(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range safePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
