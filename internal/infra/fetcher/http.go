// Package fetcher downloads sample text over HTTP behind a circuit breaker
// and bounded retry.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"charcounter/internal/observability/tracing"
	"charcounter/internal/resilience/circuitbreaker"
	"charcounter/internal/resilience/retry"
	"charcounter/internal/usecase/fetch"
)

// HTTPFetcher implements fetch.SampleFetcher.
type HTTPFetcher struct {
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	cfg     Config
	logger  *slog.Logger
}

var _ fetch.SampleFetcher = (*HTTPFetcher)(nil)

// New creates an HTTPFetcher. A nil client gets a default one; its
// CheckRedirect is always replaced to enforce MaxRedirects.
func New(cfg Config, client *http.Client, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	} else {
		c := *client
		client = &c
	}

	f := &HTTPFetcher{
		breaker: circuitbreaker.New(cfg.Breaker),
		cfg:     cfg,
		logger:  logger,
	}
	cfg.Retry.Logger = logger
	f.cfg = cfg

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= f.cfg.MaxRedirects {
			return fmt.Errorf("%w: %d redirects", fetch.ErrTooManyRedirects, len(via))
		}
		return checkScheme(req.URL)
	}
	f.client = client
	return f
}

// Breaker exposes the circuit breaker for health reporting.
func (f *HTTPFetcher) Breaker() *circuitbreaker.CircuitBreaker {
	return f.breaker
}

// FetchSample downloads rawURL and returns the full body as text.
//
// Transient failures (5xx, 408, 429, refused connections) are retried with
// backoff. While the circuit is open FetchSample fails fast with
// fetch.ErrCircuitOpen. Cancelling ctx aborts both the request and any wait.
func (f *HTTPFetcher) FetchSample(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", fetch.ErrInvalidURL, err)
	}
	if err := checkScheme(u); err != nil {
		return "", err
	}

	ctx, span := tracing.GetTracer().Start(ctx, "fetch.sample")
	defer span.End()
	span.SetAttributes(attribute.String("fetch.host", u.Host), attribute.String("fetch.path", u.Path))

	var body []byte
	err = retry.WithBackoff(ctx, f.cfg.Retry, func() error {
		b, err := circuitbreaker.Do(f.breaker, func() ([]byte, error) {
			return f.doFetch(ctx, u.String())
		})
		if errors.Is(err, circuitbreaker.ErrOpenState) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", fetch.ErrCircuitOpen, err)
		}
		body = b
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fetch.Reason(err))
		return "", err
	}

	span.SetAttributes(attribute.Int("fetch.bytes", len(body)))
	return string(body), nil
}

func (f *HTTPFetcher) doFetch(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request exceeded %v", fetch.ErrTimeout, f.cfg.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %w", fetch.ErrBadStatus,
			&retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize+1))
	if err != nil {
		if ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: reading body exceeded %v", fetch.ErrTimeout, f.cfg.Timeout)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > f.cfg.MaxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", fetch.ErrBodyTooLarge, f.cfg.MaxBodySize)
	}

	f.logger.Debug("sample fetched",
		slog.String("url", rawURL),
		slog.Int("bytes", len(data)),
		slog.String("content_type", resp.Header.Get("Content-Type")))
	return data, nil
}

func checkScheme(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme %q not allowed (only http/https)", fetch.ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty hostname", fetch.ErrInvalidURL)
	}
	return nil
}
