package middleware

import (
	"fmt"
	"net/url"
	"strings"

	"charcounter/pkg/config"
)

// Defaults for the static file server, which is read-only.
var (
	DefaultCORSMethods = []string{"GET", "HEAD", "OPTIONS"}
	DefaultCORSHeaders = []string{"Content-Type", "X-Request-ID", "X-Trace-ID"}
)

// DefaultCORSMaxAge is the preflight cache duration in seconds (24 hours).
const DefaultCORSMaxAge = 86400

var validCORSMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true,
	"DELETE": true, "PATCH": true, "OPTIONS": true,
}

// LoadCORSConfig builds a CORSConfig from the environment.
//
//	CORS_ALLOWED_ORIGINS  comma-separated origins, or "*" (default "*")
//	CORS_ALLOWED_METHODS  comma-separated methods (default GET, HEAD, OPTIONS)
//	CORS_ALLOWED_HEADERS  comma-separated request headers
//	CORS_MAX_AGE          preflight cache seconds (default 86400)
func LoadCORSConfig() (CORSConfig, error) {
	cfg := CORSConfig{
		AllowedMethods: config.GetEnvStringList("CORS_ALLOWED_METHODS", DefaultCORSMethods),
		AllowedHeaders: config.GetEnvStringList("CORS_ALLOWED_HEADERS", DefaultCORSHeaders),
		MaxAge:         config.GetEnvInt("CORS_MAX_AGE", DefaultCORSMaxAge),
	}

	origins := config.GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{"*"})
	validator, err := validatorFor(origins)
	if err != nil {
		return CORSConfig{}, err
	}
	cfg.Validator = validator

	methods := make([]string, 0, len(cfg.AllowedMethods))
	for _, m := range cfg.AllowedMethods {
		m = strings.ToUpper(m)
		if !validCORSMethods[m] {
			return CORSConfig{}, fmt.Errorf("invalid HTTP method %q in CORS_ALLOWED_METHODS", m)
		}
		methods = append(methods, m)
	}
	cfg.AllowedMethods = methods
	if cfg.MaxAge < 0 {
		return CORSConfig{}, fmt.Errorf("CORS_MAX_AGE must be non-negative, got: %d", cfg.MaxAge)
	}
	return cfg, nil
}

func validatorFor(origins []string) (OriginValidator, error) {
	if len(origins) == 0 {
		return nil, fmt.Errorf("at least one origin must be configured in CORS_ALLOWED_ORIGINS")
	}
	for _, o := range origins {
		if o == "*" {
			return AnyOrigin{}, nil
		}
	}
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil {
			return nil, fmt.Errorf("invalid origin URL %q: %w", o, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("origin must use http or https scheme: %s", o)
		}
		if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
			return nil, fmt.Errorf("origin must not include path, query or fragment: %s", o)
		}
	}
	return NewWhitelistValidator(origins), nil
}
