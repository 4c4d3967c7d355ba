// Package circuitbreaker wraps github.com/sony/gobreaker for outbound calls.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// ErrOpenState is returned while the circuit is open.
var ErrOpenState = gobreaker.ErrOpenState

// ErrTooManyRequests is returned when the half-open probe budget is spent.
var ErrTooManyRequests = gobreaker.ErrTooManyRequests

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name labels logs and metrics.
	Name string

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts. 0 never clears them.
	Interval time.Duration

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit, e.g. 0.6.
	FailureThreshold float64

	// MinRequests is the sample size needed before the ratio is considered.
	MinRequests uint32
}

// DefaultConfig returns a general-purpose configuration.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// SampleFetchConfig is tuned for the single sample file on the local file
// server: it trips quickly so a missing file server does not stall every refresh.
func SampleFetchConfig() Config {
	return Config{
		Name:             "sample-fetch",
		MaxRequests:      1,
		Interval:         5 * time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      3,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit breaker. State changes are logged and exported as
// the circuit_breaker_state gauge.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(float64(to))
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))
	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the breaker. While open it fails fast with ErrOpenState.
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	return cb.breaker.Execute(fn)
}

// Do is a typed form of Execute.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// State returns the current state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Counts returns the request counts of the current generation.
func (cb *CircuitBreaker) Counts() gobreaker.Counts {
	return cb.breaker.Counts()
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether the breaker is failing fast.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
