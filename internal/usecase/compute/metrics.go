package compute

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for background computation monitoring
var (
	// computeRunsTotal tracks finished computations by path and outcome
	computeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compute_runs_total",
			Help: "Total number of character counting computations",
		},
		[]string{"path", "outcome"}, // path: worker|fallback, outcome: delivered|stale|failed|abandoned
	)

	computeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compute_duration_seconds",
			Help:    "Character counting duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"path"},
	)

	computeCharactersProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compute_characters_processed_total",
			Help: "Total number of characters consumed by delivered computations",
		},
	)

	computeInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "compute_in_flight",
			Help: "Number of computations currently running in workers",
		},
	)
)

func recordRun(path Path, outcome string) {
	computeRunsTotal.WithLabelValues(string(path), outcome).Inc()
}

func recordDuration(path Path, d time.Duration) {
	computeDuration.WithLabelValues(string(path)).Observe(d.Seconds())
}

func recordProcessed(n int) {
	computeCharactersProcessed.Add(float64(n))
}
