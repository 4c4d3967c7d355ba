package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	pkgconfig "charcounter/internal/pkg/config"
)

// FileServerConfig is the configuration of cmd/fileserver.
type FileServerConfig struct {
	Dir  string // FILESERVER_DIR
	File string // FILESERVER_FILE, the sample offered at /api/FileProcessing/<File>
	Port int    // FILESERVER_PORT
}

// DefaultFileServerConfig returns the built-in configuration.
func DefaultFileServerConfig() FileServerConfig {
	return FileServerConfig{Dir: "./public", File: "wap.txt", Port: 7777}
}

// Addr is the listen address for Port.
func (c FileServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate requires a plain file name with no directory components.
func (c FileServerConfig) Validate() error {
	var errs []error
	if c.Dir == "" {
		errs = append(errs, errors.New("dir: is required"))
	}
	if c.File == "" || c.File != filepath.Base(c.File) || strings.HasPrefix(c.File, ".") {
		errs = append(errs, fmt.Errorf("file: %q must be a plain file name", c.File))
	}
	if err := pkgconfig.ValidateIntRange(c.Port, 1, 65535); err != nil {
		errs = append(errs, fmt.Errorf("port: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LoadFileServerConfig reads FILESERVER_DIR, FILESERVER_FILE and FILESERVER_PORT.
// An invalid port falls back to the default; an invalid file name is an error.
func LoadFileServerConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (FileServerConfig, error) {
	cfg := DefaultFileServerConfig()
	o := overrides{logger: logger, metrics: metrics}

	cfg.Dir = pkgconfig.LoadEnvString("FILESERVER_DIR", cfg.Dir)
	cfg.File = pkgconfig.LoadEnvString("FILESERVER_FILE", cfg.File)
	cfg.Port = apply(&o, "port", pkgconfig.LoadEnvInt("FILESERVER_PORT", cfg.Port, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 65535)
	}))

	if metrics != nil {
		metrics.SetFallbackActive(o.fallbackApplied)
		metrics.RecordLoadTimestamp()
	}
	return cfg, cfg.Validate()
}
