// Package http holds the HTTP plumbing shared by the lesson server and the
// static file server: middleware, health probes and request metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse is the JSON body of /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the outcome of one named check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Checker reports the state of one dependency.
type Checker func(ctx context.Context) CheckStatus

// HealthHandler runs every check and answers 503 if any is unhealthy.
// Degraded checks are reported but keep the overall status healthy.
type HealthHandler struct {
	Version string
	Checks  map[string]Checker
	Timeout time.Duration
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]CheckStatus, len(names))
	status, code := StatusHealthy, http.StatusOK
	for _, name := range names {
		c := h.Checks[name](ctx)
		checks[name] = c
		if c.Status == StatusUnhealthy {
			status, code = StatusUnhealthy, http.StatusServiceUnavailable
		}
	}

	writeNoCacheJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

// ReadyHandler answers 200 once Ready reports true and 503 before that.
type ReadyHandler struct {
	Ready func() bool
}

// ServeHTTP implements http.Handler.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil && !h.Ready() {
		writePlain(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writePlain(w, http.StatusOK, "ready")
}

// LiveHandler always answers 200 while the process can serve requests.
type LiveHandler struct{}

// ServeHTTP implements http.Handler.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writePlain(w, http.StatusOK, "alive")
}

func writeNoCacheJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("health: failed to encode response", slog.Any("error", err))
	}
}

func writePlain(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Default().Error("probe: failed to write response", slog.Any("error", err))
	}
}
