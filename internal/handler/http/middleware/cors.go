// Package middleware contains the cross-cutting HTTP middleware shared by the
// lesson server and the static file server: CORS, client IP extraction and
// per-client rate limiting.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds the configuration for CORS middleware.
type CORSConfig struct {
	// Validator decides which origins are allowed. AnyOrigin makes the
	// middleware answer every response with "Access-Control-Allow-Origin: *".
	Validator OriginValidator

	// AllowedMethods is advertised on preflight responses.
	AllowedMethods []string

	// AllowedHeaders is advertised on preflight responses.
	AllowedHeaders []string

	// MaxAge is how long preflight results can be cached, in seconds.
	MaxAge int

	// Logger receives rejected-origin warnings and preflight debug records.
	// Nil disables logging.
	Logger *slog.Logger
}

// CORS returns an HTTP middleware that handles cross-origin requests.
//
// With a wildcard validator every response carries "Access-Control-Allow-Origin: *"
// and no credentials header. With a whitelist the request origin is echoed back
// only when it is allowed. Preflight requests from allowed origins are answered
// with 204 without reaching the wrapped handler.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	wildcard := config.Validator.Wildcard()
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin == "":
				// same-origin request
				next.ServeHTTP(w, r)
				return
			case !config.Validator.IsAllowed(origin):
				if config.Logger != nil {
					config.Logger.Warn("CORS: origin not allowed",
						slog.String("origin", origin),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("remote_addr", r.RemoteAddr))
				}
				next.ServeHTTP(w, r)
				return
			default:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)

				if config.Logger != nil {
					config.Logger.Debug("CORS: preflight request",
						slog.String("origin", origin),
						slog.String("requested_method", r.Header.Get("Access-Control-Request-Method")),
						slog.String("requested_headers", r.Header.Get("Access-Control-Request-Headers")))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
