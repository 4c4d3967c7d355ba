package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charcounter/internal/domain/entity"
	pkgconfig "charcounter/internal/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics(t *testing.T) *pkgconfig.ConfigMetrics {
	t.Helper()
	return pkgconfig.NewConfigMetricsWith(prometheus.NewRegistry(), "lesson_test")
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lesson.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultLessonConfig_IsValid(t *testing.T) {
	cfg := DefaultLessonConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, entity.DefaultLimits(), cfg.Compute.Limits())
	assert.Equal(t, entity.Limits{}, cfg.Compute.FallbackLimits())
	assert.Empty(t, cfg.RefreshSchedule)
}

func TestLoadLessonFile(t *testing.T) {
	path := writeFile(t, `
addr: ":8080"
sample_url: "http://files.internal:7777/api/FileProcessing/hello.txt"
refresh_schedule: "*/10 * * * *"
shutdown_timeout: 30s
compute:
  workers: 2
  max_input_chars: 1000
  fallback_max_input: 200
upload:
  burst: 10
`)

	cfg, err := LoadLessonFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://files.internal:7777/api/FileProcessing/hello.txt", cfg.SampleURL)
	assert.Equal(t, "*/10 * * * *", cfg.RefreshSchedule)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2, cfg.Compute.Workers)
	assert.Equal(t, 1000, cfg.Compute.MaxInputChars)
	assert.Equal(t, entity.DefaultMaxOutputRows, cfg.Compute.MaxOutputRows, "unset keys keep defaults")
	assert.Equal(t, 200, cfg.Compute.FallbackMaxInput)
	assert.Equal(t, 10, cfg.Upload.Burst)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxBytes)
}

func TestLoadLessonFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed yaml", content: "addr: [", wantErr: "failed to parse config"},
		{name: "bad schedule", content: `refresh_schedule: "soon"`, wantErr: "refresh_schedule"},
		{name: "bad url", content: `sample_url: "file:///etc/passwd"`, wantErr: "sample_url"},
		{name: "negative limit", content: "compute:\n  max_output_rows: -1", wantErr: "max_output_rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLessonFile(writeFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadLessonFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLessonConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultLessonConfig()
	cfg.Addr = ""
	cfg.Compute.Workers = 99
	cfg.Upload.Burst = 0

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "addr")
	assert.Contains(t, err.Error(), "compute.workers")
	assert.Contains(t, err.Error(), "upload.burst")
}

func TestLoadLessonConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LESSON_ADDR", ":9000")
	t.Setenv("SAMPLE_URL", "https://example.com/sample.txt")
	t.Setenv("SAMPLE_REFRESH_SCHEDULE", "@hourly")
	t.Setenv("COMPUTE_WORKERS", "0")
	t.Setenv("COMPUTE_FALLBACK_MAX_INPUT", "64")
	t.Setenv("UPLOAD_RATE_LIMIT", "0.5")

	metrics := testMetrics(t)
	cfg, err := LoadLessonConfig(discardLogger(), metrics)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "https://example.com/sample.txt", cfg.SampleURL)
	assert.Equal(t, "@hourly", cfg.RefreshSchedule)
	assert.Equal(t, 0, cfg.Compute.Workers)
	assert.Equal(t, 64, cfg.Compute.FallbackMaxInput)
	assert.InDelta(t, 0.5, cfg.Upload.RequestsPerSecond, 1e-9)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))
}

func TestLoadLessonConfig_InvalidOverridesFallBack(t *testing.T) {
	path := writeFile(t, "compute:\n  workers: 3\n")
	t.Setenv("LESSON_CONFIG", path)
	t.Setenv("COMPUTE_WORKERS", "100")
	t.Setenv("SAMPLE_URL", "not a url")

	metrics := testMetrics(t)
	cfg, err := LoadLessonConfig(discardLogger(), metrics)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Compute.Workers, "falls back to the file value")
	assert.Equal(t, DefaultSampleURL, cfg.SampleURL)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("compute_workers")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("sample_url")))
}

func TestLoadLessonConfig_BadFileIsFatal(t *testing.T) {
	t.Setenv("LESSON_CONFIG", writeFile(t, "compute:\n  workers: -1\n"))

	_, err := LoadLessonConfig(discardLogger(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
