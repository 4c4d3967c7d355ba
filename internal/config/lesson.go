// Package config assembles the runtime configuration of the lesson server
// and the static file server.
//
// The lesson server reads an optional YAML file (LESSON_CONFIG) and then
// applies environment overrides with a fail-open strategy: an invalid
// override is logged, counted and replaced by the file or built-in value.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"charcounter/internal/domain/entity"
	pkgconfig "charcounter/internal/pkg/config"
	envconfig "charcounter/pkg/config"
)

// DefaultSampleURL is where the lesson server fetches the sample text on startup.
const DefaultSampleURL = "http://localhost:7777/api/FileProcessing/wap.txt"

// ErrInvalidConfig wraps every validation failure of LessonConfig.
var ErrInvalidConfig = errors.New("invalid configuration")

// LessonConfig is the configuration of cmd/lesson.
type LessonConfig struct {
	Addr            string        `yaml:"addr"`
	SampleURL       string        `yaml:"sample_url"`
	RefreshSchedule string        `yaml:"refresh_schedule"` // empty disables periodic refresh
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Compute         ComputeConfig `yaml:"compute"`
	Upload          UploadConfig  `yaml:"upload"`
}

// ComputeConfig bounds the background computation host.
type ComputeConfig struct {
	Workers          int `yaml:"workers"`
	MaxInputChars    int `yaml:"max_input_chars"`
	MaxOutputRows    int `yaml:"max_output_rows"`
	FallbackMaxInput int `yaml:"fallback_max_input"`
}

// UploadConfig limits POST /upload.
type UploadConfig struct {
	MaxBytes          int64   `yaml:"max_bytes"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Limits returns the primary path limits.
func (c ComputeConfig) Limits() entity.Limits {
	return entity.Limits{MaxInputChars: c.MaxInputChars, MaxOutputRows: c.MaxOutputRows}
}

// FallbackLimits returns the synchronous path limits. Only the input bound applies there.
func (c ComputeConfig) FallbackLimits() entity.Limits {
	return entity.Limits{MaxInputChars: c.FallbackMaxInput}
}

// DefaultLessonConfig returns the built-in configuration.
func DefaultLessonConfig() LessonConfig {
	return LessonConfig{
		Addr:            ":3000",
		SampleURL:       DefaultSampleURL,
		ShutdownTimeout: 10 * time.Second,
		Compute: ComputeConfig{
			Workers:       1,
			MaxInputChars: entity.DefaultMaxInputChars,
			MaxOutputRows: entity.DefaultMaxOutputRows,
		},
		Upload: UploadConfig{
			MaxBytes:          5 << 20,
			RequestsPerSecond: 2,
			Burst:             5,
		},
	}
}

// LoadLessonFile reads path over the built-in defaults.
// Keys missing from the file keep their default values.
func LoadLessonFile(path string) (LessonConfig, error) {
	cfg := DefaultLessonConfig()

	// #nosec G304 -- path comes from the operator (LESSON_CONFIG), not from a request
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate collects every invalid field into one error.
func (c LessonConfig) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr: is required"))
	}
	if err := pkgconfig.ValidateHTTPURL(c.SampleURL); err != nil {
		errs = append(errs, fmt.Errorf("sample_url: %w", err))
	}
	if err := pkgconfig.ValidateOptionalCronSchedule(c.RefreshSchedule); err != nil {
		errs = append(errs, fmt.Errorf("refresh_schedule: %w", err))
	}
	if err := envconfig.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("shutdown_timeout: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.Compute.Workers, 0, 16); err != nil {
		errs = append(errs, fmt.Errorf("compute.workers: %w", err))
	}
	if err := c.Compute.Limits().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("compute: %w", err))
	}
	if err := c.Compute.FallbackLimits().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("compute.fallback_max_input: %w", err))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes: must be positive"))
	}
	if err := pkgconfig.ValidatePositiveFloat(c.Upload.RequestsPerSecond); err != nil {
		errs = append(errs, fmt.Errorf("upload.requests_per_second: %w", err))
	}
	if c.Upload.Burst < 1 {
		errs = append(errs, errors.New("upload.burst: must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LoadLessonConfig builds the lesson configuration.
//
// If LESSON_CONFIG names a file it is loaded first; a missing or invalid
// file is an error. Environment overrides are then applied fail-open:
//
//	LESSON_ADDR                 listen address (default ":3000")
//	SAMPLE_URL                  sample text URL
//	SAMPLE_REFRESH_SCHEDULE     cron expression, empty disables refresh
//	SHUTDOWN_TIMEOUT            graceful shutdown bound
//	COMPUTE_WORKERS             0-16, 0 forces the synchronous path
//	COMPUTE_MAX_INPUT           primary input bound, 0 = unbounded
//	COMPUTE_MAX_ROWS            primary row bound, 0 = unbounded
//	COMPUTE_FALLBACK_MAX_INPUT  synchronous input bound, 0 = unbounded
//	UPLOAD_MAX_BYTES            request body limit for /upload
//	UPLOAD_RATE_LIMIT           uploads per second per client
//	UPLOAD_RATE_BURST           burst size per client
func LoadLessonConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (LessonConfig, error) {
	cfg := DefaultLessonConfig()
	if path := envconfig.GetEnvString("LESSON_CONFIG", ""); path != "" {
		fileCfg, err := LoadLessonFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
		logger.Info("lesson configuration file loaded", slog.String("path", path))
	}

	o := overrides{logger: logger, metrics: metrics}
	cfg.Addr = pkgconfig.LoadEnvString("LESSON_ADDR", cfg.Addr)
	cfg.SampleURL = apply(&o, "sample_url",
		pkgconfig.LoadEnvWithFallback("SAMPLE_URL", cfg.SampleURL, pkgconfig.ValidateHTTPURL))
	cfg.RefreshSchedule = apply(&o, "refresh_schedule",
		pkgconfig.LoadEnvWithFallback("SAMPLE_REFRESH_SCHEDULE", cfg.RefreshSchedule, pkgconfig.ValidateCronSchedule))
	cfg.ShutdownTimeout = apply(&o, "shutdown_timeout",
		pkgconfig.LoadEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, func(d time.Duration) error {
			return envconfig.ValidateDurationRange(d, time.Second, 5*time.Minute)
		}))
	cfg.Compute.Workers = apply(&o, "compute_workers",
		pkgconfig.LoadEnvInt("COMPUTE_WORKERS", cfg.Compute.Workers, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 0, 16)
		}))
	cfg.Compute.MaxInputChars = apply(&o, "compute_max_input",
		pkgconfig.LoadEnvInt("COMPUTE_MAX_INPUT", cfg.Compute.MaxInputChars, pkgconfig.ValidateNonNegativeInt))
	cfg.Compute.MaxOutputRows = apply(&o, "compute_max_rows",
		pkgconfig.LoadEnvInt("COMPUTE_MAX_ROWS", cfg.Compute.MaxOutputRows, pkgconfig.ValidateNonNegativeInt))
	cfg.Compute.FallbackMaxInput = apply(&o, "compute_fallback_max_input",
		pkgconfig.LoadEnvInt("COMPUTE_FALLBACK_MAX_INPUT", cfg.Compute.FallbackMaxInput, pkgconfig.ValidateNonNegativeInt))
	cfg.Upload.MaxBytes = int64(apply(&o, "upload_max_bytes",
		pkgconfig.LoadEnvInt("UPLOAD_MAX_BYTES", int(cfg.Upload.MaxBytes), func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 64<<20)
		})))
	cfg.Upload.RequestsPerSecond = apply(&o, "upload_rate_limit",
		pkgconfig.LoadEnvFloat("UPLOAD_RATE_LIMIT", cfg.Upload.RequestsPerSecond, pkgconfig.ValidatePositiveFloat))
	cfg.Upload.Burst = apply(&o, "upload_rate_burst",
		pkgconfig.LoadEnvInt("UPLOAD_RATE_BURST", cfg.Upload.Burst, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 1000)
		}))

	if metrics != nil {
		metrics.SetFallbackActive(o.fallbackApplied)
		metrics.RecordLoadTimestamp()
	}
	return cfg, nil
}

type overrides struct {
	logger          *slog.Logger
	metrics         *pkgconfig.ConfigMetrics
	fallbackApplied bool
}

func apply[T any](o *overrides, field string, result pkgconfig.LoadResult[T]) T {
	if !result.FallbackApplied {
		return result.Value
	}
	o.fallbackApplied = true
	if o.metrics != nil {
		o.metrics.RecordValidationError(field)
		o.metrics.RecordFallback(field)
	}
	for _, warning := range result.Warnings {
		o.logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}
	return result.Value
}
