// Package compute runs character counting off the caller's goroutine and
// delivers the result through a one-shot completion callback.
package compute

import "errors"

// Sentinel errors for the computation host.
var (
	// ErrWorkerPanic indicates that a computation panicked inside a worker.
	ErrWorkerPanic = errors.New("computation worker panicked")

	// ErrHostClosed indicates that a computation was submitted after Shutdown.
	ErrHostClosed = errors.New("computation host is shut down")

	// ErrAbandoned indicates that a computation was dropped before it started,
	// because its context was cancelled or the host was shutting down.
	ErrAbandoned = errors.New("computation abandoned before start")
)
