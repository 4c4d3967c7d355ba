// Package fetch defines how the lesson server obtains sample text from a
// remote file server, and the errors a fetch can end with.
package fetch

import (
	"context"
	"errors"
)

// SampleFetcher downloads a sample text file.
// Implementations read the whole body before returning.
type SampleFetcher interface {
	FetchSample(ctx context.Context, url string) (string, error)
}

var (
	// ErrInvalidURL means the URL cannot be fetched (bad syntax or scheme).
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrTooManyRedirects means the redirect budget was exhausted.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge means the body exceeded the configured maximum.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout means a single attempt exceeded its deadline.
	ErrTimeout = errors.New("request timeout")

	// ErrBadStatus means the server answered with a non-2xx status.
	ErrBadStatus = errors.New("unexpected response status")

	// ErrCircuitOpen means recent fetches failed and calls are short-circuited.
	ErrCircuitOpen = errors.New("sample fetch circuit open")
)

// Reason classifies err into a short label for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrBodyTooLarge):
		return "too_large"
	case errors.Is(err, ErrBadStatus):
		return "bad_status"
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrTooManyRedirects):
		return "invalid_url"
	default:
		return "failure"
	}
}
