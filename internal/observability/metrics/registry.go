package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sample fetch metrics
var (
	// SampleFetchesTotal counts sample fetches by trigger (startup, schedule) and outcome.
	SampleFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_sample_fetches_total",
			Help: "Total number of sample text fetches",
		},
		[]string{"trigger", "outcome"},
	)

	// SampleFetchDuration measures sample fetch latency including retries.
	SampleFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lesson_sample_fetch_duration_seconds",
			Help:    "Sample text fetch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	// SampleFetchBytes measures the size of fetched sample bodies.
	SampleFetchBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lesson_sample_fetch_bytes",
			Help:    "Size of fetched sample text in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
	)
)

// Upload metrics
var (
	// UploadsTotal counts upload attempts by outcome.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_uploads_total",
			Help: "Total number of file upload attempts",
		},
		[]string{"outcome"},
	)

	// UploadBytes measures accepted upload sizes.
	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lesson_upload_bytes",
			Help:    "Size of accepted uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
	)
)

// Page state metrics
var (
	// StateUpdatesTotal counts how many times the page state was replaced.
	StateUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lesson_state_updates_total",
			Help: "Total number of page state replacements",
		},
	)

	// StateGeneration is the computation generation currently displayed.
	StateGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lesson_state_generation",
			Help: "Generation of the computation currently displayed",
		},
	)

	// StateRows is the number of table rows currently displayed.
	StateRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lesson_state_rows",
			Help: "Number of frequency rows currently displayed",
		},
	)

	// StateTextLength is the character length of the text currently displayed.
	StateTextLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lesson_state_text_length",
			Help: "Character length of the text currently displayed",
		},
	)
)
