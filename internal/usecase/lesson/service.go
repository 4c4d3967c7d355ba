package lesson

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"charcounter/internal/handler/http/requestid"
	"charcounter/internal/observability/metrics"
	"charcounter/internal/usecase/compute"
	"charcounter/internal/usecase/fetch"
)

// SourceSample labels results computed from the fetched sample text.
const SourceSample = "sample"

// ErrNoContent is returned by Upload when no file was selected.
var ErrNoContent = errors.New("no file selected")

// Service turns incoming text into page state.
type Service struct {
	Fetcher   fetch.SampleFetcher
	Compute   compute.Service
	State     *State
	SampleURL string
	Logger    *slog.Logger
}

// LoadSample fetches the sample text and dispatches it for counting.
// On failure nothing is dispatched and the page keeps its previous result.
func (s *Service) LoadSample(ctx context.Context, trigger string) error {
	logger := s.logger().With(
		slog.String("trigger", trigger),
		slog.String("url", s.SampleURL))

	start := time.Now()
	body, err := s.Fetcher.FetchSample(ctx, s.SampleURL)
	if err == nil {
		// the body may have arrived just as the server began shutting down
		err = ctx.Err()
	}
	duration := time.Since(start)

	if err != nil {
		reason := fetch.Reason(err)
		metrics.RecordSampleFetchFailed(trigger, reason, duration)
		level := slog.LevelError
		if reason == "cancelled" {
			level = slog.LevelInfo
		}
		logger.Log(ctx, level, "sample fetch failed",
			slog.String("reason", reason),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return fmt.Errorf("load sample: %w", err)
	}

	metrics.RecordSampleFetchSuccess(trigger, duration, len(body))
	ticket := s.submit(ctx, body, SourceSample)
	logger.Info("sample fetched",
		slog.Int("bytes", len(body)),
		slog.Uint64("generation", ticket.Generation),
		slog.Duration("duration", duration))
	return nil
}

// Upload dispatches the content of an uploaded file.
// An empty name means no file was selected and nothing happens.
//
// The upload is counted even after the request that carried it completes:
// only a done ctx at the time of the call or a host shutdown abandons it.
func (s *Service) Upload(ctx context.Context, name, content string) (compute.Ticket, error) {
	if name == "" {
		return compute.Ticket{}, ErrNoContent
	}
	if err := ctx.Err(); err != nil {
		return compute.Ticket{}, fmt.Errorf("upload %s: %w", name, err)
	}
	ticket := s.submit(context.WithoutCancel(ctx), content, name)
	s.logger().Info("upload dispatched",
		slog.String("request_id", requestid.FromContext(ctx)),
		slog.String("file", name),
		slog.Int("bytes", len(content)),
		slog.Uint64("generation", ticket.Generation))
	return ticket, nil
}

// Snapshot returns the current page state.
func (s *Service) Snapshot() Snapshot {
	return s.State.Snapshot()
}

// Ready reports whether the page has a result to show.
func (s *Service) Ready() bool {
	return s.State.Ready()
}

func (s *Service) submit(ctx context.Context, raw, source string) compute.Ticket {
	return s.Compute.Submit(ctx, raw, func(res compute.Result) {
		s.State.Apply(res, source)
	})
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
