package fetcher

import (
	"fmt"
	"time"

	"charcounter/internal/resilience/circuitbreaker"
	"charcounter/internal/resilience/retry"
	"charcounter/pkg/config"
)

// Config controls HTTPFetcher.
type Config struct {
	// Timeout bounds a single attempt, including reading the body.
	Timeout time.Duration

	// MaxBodySize is the largest accepted body in bytes.
	MaxBodySize int64

	// MaxRedirects is the number of redirects followed before giving up.
	MaxRedirects int

	// UserAgent is sent with every request.
	UserAgent string

	Retry   retry.Config
	Breaker circuitbreaker.Config
}

// DefaultConfig returns the configuration used for the lesson sample.
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		MaxBodySize:  10 * 1024 * 1024,
		MaxRedirects: 5,
		UserAgent:    "charcounter-lesson/1.0",
		Retry:        retry.SampleFetchConfig(),
		Breaker:      circuitbreaker.SampleFetchConfig(),
	}
}

// Validate checks that every field is usable.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	const minBody, maxBody = int64(1024), int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBody || c.MaxBodySize > maxBody {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBody, maxBody, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// LoadConfigFromEnv overlays environment variables on DefaultConfig.
//
//	SAMPLE_FETCH_TIMEOUT        per-attempt timeout (default 10s)
//	SAMPLE_FETCH_MAX_BODY_SIZE  bytes (default 10485760)
//	SAMPLE_FETCH_MAX_REDIRECTS  (default 5)
//	SAMPLE_FETCH_ATTEMPTS       total attempts including the first (default 3)
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.Timeout = config.GetEnvDuration("SAMPLE_FETCH_TIMEOUT", cfg.Timeout)
	cfg.MaxBodySize = config.GetEnvInt64("SAMPLE_FETCH_MAX_BODY_SIZE", cfg.MaxBodySize)
	cfg.MaxRedirects = config.GetEnvInt("SAMPLE_FETCH_MAX_REDIRECTS", cfg.MaxRedirects)
	cfg.Retry.MaxAttempts = config.GetEnvInt("SAMPLE_FETCH_ATTEMPTS", cfg.Retry.MaxAttempts)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("sample fetch config: %w", err)
	}
	return cfg, nil
}
