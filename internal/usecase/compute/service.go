package compute

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"charcounter/internal/domain/entity"
	"charcounter/internal/handler/http/requestid"
	"charcounter/internal/observability/tracing"
	"charcounter/internal/usecase/frequency"
	"charcounter/internal/utils/text"
)

// Path identifies where a computation ran.
type Path string

const (
	// PathWorker is the background worker path: sanitize, then count with the primary limits.
	PathWorker Path = "worker"
	// PathFallback is the synchronous path used when no worker is available.
	PathFallback Path = "fallback"
)

// Result is what a completed computation delivers.
type Result struct {
	Generation   uint64
	Path         Path
	Text         string // sanitized on the worker path, raw on the fallback path
	Observations []entity.Observation
	Processed    int // characters consumed before the row limit was applied
	Duration     time.Duration
}

// Ticket identifies a submitted computation.
type Ticket struct {
	Generation uint64 // 0 when the submission was not accepted
}

// Accepted reports whether the submission was dispatched.
func (t Ticket) Accepted() bool {
	return t.Generation != 0
}

// Config controls the computation host.
type Config struct {
	// Workers is the number of concurrent background workers.
	// 0 means workers are unavailable and every Submit runs synchronously.
	Workers int

	// Limits bound the worker path.
	Limits entity.Limits

	// FallbackLimits bound the synchronous path. Only MaxInputChars is applied there.
	FallbackLimits entity.Limits
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Workers:        1,
		Limits:         entity.DefaultLimits(),
		FallbackLimits: entity.Limits{},
	}
}

// Service counts text in the background and reports the result once.
type Service interface {
	// Submit starts a new computation over raw and returns its ticket.
	// A submission rejected after Shutdown or made with a done ctx returns a
	// zero Ticket and leaves the current generation untouched. A background
	// computation whose ctx is done before it gets a worker slot is abandoned.
	// onDone is called at most once, and only if no newer computation was
	// submitted before this one finished. On the fallback path onDone runs
	// before Submit returns.
	Submit(ctx context.Context, raw string, onDone func(Result)) Ticket

	// Current returns the generation of the most recently submitted computation.
	Current() uint64

	// WorkersAvailable reports whether Submit dispatches to a background worker.
	WorkersAvailable() bool

	// Shutdown stops accepting computations and waits for in-flight ones.
	Shutdown(ctx context.Context) error
}

type service struct {
	cfg    Config
	logger *slog.Logger
	slots  *semaphore.Weighted

	generation atomic.Uint64
	closed     atomic.Bool
	deliverMu  sync.Mutex // serialises the staleness check with onDone
	wg         sync.WaitGroup

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc

	// count is swapped in tests to simulate worker failures.
	count func(string, entity.Limits) []entity.Observation
}

// NewService creates a computation host. A nil logger falls back to slog.Default().
func NewService(cfg Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	s := &service{
		cfg:            cfg,
		logger:         logger,
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
		count:          frequency.CountWithLimits,
	}
	if cfg.Workers > 0 {
		s.slots = semaphore.NewWeighted(int64(cfg.Workers))
	}
	return s
}

// Submit implements Service.Submit.
func (s *service) Submit(ctx context.Context, raw string, onDone func(Result)) Ticket {
	reqID := requestid.FromContext(ctx)

	// Rejected and abandoned submissions do not advance the generation,
	// so they never supersede a computation that is still running.
	if s.closed.Load() {
		s.logger.Warn("computation rejected",
			slog.String("request_id", reqID),
			slog.Any("error", ErrHostClosed))
		return Ticket{}
	}
	if err := ctx.Err(); err != nil {
		s.logger.Info("computation abandoned before dispatch",
			slog.String("request_id", reqID),
			slog.Any("error", err))
		recordRun(s.path(), "abandoned")
		return Ticket{}
	}

	gen := s.generation.Add(1)
	if !s.WorkersAvailable() {
		s.runFallback(ctx, gen, raw, onDone)
		return Ticket{Generation: gen}
	}

	s.wg.Add(1)
	go s.runWorker(ctx, gen, raw, onDone)
	return Ticket{Generation: gen}
}

// runFallback counts on the caller's goroutine.
// It applies only the fallback input limit and does not sanitize.
func (s *service) runFallback(ctx context.Context, gen uint64, raw string, onDone func(Result)) {
	start := time.Now()
	limits := entity.Limits{MaxInputChars: s.cfg.FallbackLimits.MaxInputChars}
	obs := s.count(raw, limits)
	res := Result{
		Generation:   gen,
		Path:         PathFallback,
		Text:         raw,
		Observations: obs,
		Processed:    processed(raw, limits),
		Duration:     time.Since(start),
	}
	s.deliver(ctx, res, onDone)
}

// runWorker sanitizes and counts in a background goroutine. ctx is honoured
// until a slot is acquired; after that the computation runs to completion.
func (s *service) runWorker(ctx context.Context, gen uint64, raw string, onDone func(Result)) {
	defer s.wg.Done()

	reqID := requestid.FromContext(ctx)

	if err := s.acquire(ctx); err != nil {
		s.logger.Info("computation abandoned before start",
			slog.String("request_id", reqID),
			slog.Uint64("generation", gen),
			slog.Any("error", fmt.Errorf("%w: %w", ErrAbandoned, err)))
		recordRun(PathWorker, "abandoned")
		return
	}
	defer s.slots.Release(1)

	if current := s.generation.Load(); current != gen {
		s.logger.Debug("skipping superseded computation",
			slog.String("request_id", reqID),
			slog.Uint64("generation", gen),
			slog.Uint64("current", current))
		recordRun(PathWorker, "stale")
		return
	}
	ctx = context.WithoutCancel(ctx)

	computeInFlight.Inc()
	defer computeInFlight.Dec()

	ctx, span := tracing.GetTracer().Start(ctx, "compute.count")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("compute.generation", int64(gen)),
		attribute.Int("compute.raw_bytes", len(raw)),
	)

	res, err := s.work(gen, raw)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("computation worker failed",
			slog.String("request_id", reqID),
			slog.Uint64("generation", gen),
			slog.Any("error", err))
		recordRun(PathWorker, "failed")
		return
	}

	span.SetAttributes(attribute.Int("compute.rows", len(res.Observations)))
	s.deliver(ctx, res, onDone)
}

// work performs the sanitize+count step and converts a panic into ErrWorkerPanic.
func (s *service) work(gen uint64, raw string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
			s.logger.Debug("worker panic stack", slog.String("stack", string(debug.Stack())))
		}
	}()

	start := time.Now()
	sanitized := text.Sanitize(raw)
	obs := s.count(sanitized, s.cfg.Limits)
	return Result{
		Generation:   gen,
		Path:         PathWorker,
		Text:         sanitized,
		Observations: obs,
		Processed:    processed(sanitized, s.cfg.Limits),
		Duration:     time.Since(start),
	}, nil
}

// deliver hands res to onDone unless a newer computation has been submitted.
func (s *service) deliver(ctx context.Context, res Result, onDone func(Result)) {
	recordDuration(res.Path, res.Duration)

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if current := s.generation.Load(); current != res.Generation {
		s.logger.Debug("discarding stale computation",
			slog.String("request_id", requestid.FromContext(ctx)),
			slog.Uint64("generation", res.Generation),
			slog.Uint64("current", current))
		recordRun(res.Path, "stale")
		return
	}

	recordRun(res.Path, "delivered")
	recordProcessed(res.Processed)
	s.logger.Info("computation delivered",
		slog.String("request_id", requestid.FromContext(ctx)),
		slog.Uint64("generation", res.Generation),
		slog.String("path", string(res.Path)),
		slog.Int("processed", res.Processed),
		slog.Int("rows", len(res.Observations)),
		slog.Duration("duration", res.Duration))

	if onDone != nil {
		onDone(res)
	}
}

// acquire waits for a worker slot until ctx is done or the host shuts down.
func (s *service) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.shutdownCtx, cancel)
	defer stop()

	if err := s.slots.Acquire(waitCtx, 1); err != nil {
		if s.shutdownCtx.Err() != nil && ctx.Err() == nil {
			return ErrHostClosed
		}
		return err
	}
	return nil
}

// Current implements Service.Current.
func (s *service) Current() uint64 {
	return s.generation.Load()
}

// WorkersAvailable implements Service.WorkersAvailable.
func (s *service) WorkersAvailable() bool {
	return s.slots != nil
}

// Shutdown implements Service.Shutdown.
func (s *service) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down computation host")
	s.closed.Store(true)

	// Computations waiting for a slot give up; running ones finish.
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("computation host shutdown complete")
		return nil
	case <-ctx.Done():
		s.logger.Warn("computation host shutdown timeout")
		return ctx.Err()
	}
}

func (s *service) path() Path {
	if s.WorkersAvailable() {
		return PathWorker
	}
	return PathFallback
}

// processed returns how many characters of t the given limits let through.
func processed(t string, limits entity.Limits) int {
	maxInput, _ := limits.Resolve()
	return min(text.CountRunes(t), maxInput)
}
