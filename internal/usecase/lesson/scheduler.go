package lesson

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"charcounter/internal/observability/metrics"
	pkgconfig "charcounter/internal/pkg/config"
)

// Refresher reloads the sample text on a cron schedule.
type Refresher struct {
	cron    *cron.Cron
	svc     *Service
	timeout time.Duration
	logger  *slog.Logger
	runCtx  context.Context
}

// NewRefresher parses schedule and registers the refresh job.
// Runs that overlap a still-running refresh are skipped.
func NewRefresher(schedule string, svc *Service, timeout time.Duration, logger *slog.Logger) (*Refresher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cronLogAdapter{logger: logger}
	r := &Refresher{
		cron: cron.New(
			cron.WithParser(pkgconfig.CronParser),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		svc:     svc,
		timeout: timeout,
		logger:  logger,
		runCtx:  context.Background(),
	}
	if _, err := r.cron.AddFunc(schedule, r.refresh); err != nil {
		return nil, fmt.Errorf("add refresh job %q: %w", schedule, err)
	}
	return r, nil
}

// Run starts the scheduler and blocks until ctx is done. A refresh in
// progress is cancelled through ctx and awaited before Run returns.
func (r *Refresher) Run(ctx context.Context) error {
	r.runCtx = ctx
	r.cron.Start()
	r.logger.Info("sample refresh scheduler started")

	<-ctx.Done()
	<-r.cron.Stop().Done()
	r.logger.Info("sample refresh scheduler stopped")
	return nil
}

func (r *Refresher) refresh() {
	ctx := r.runCtx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	// errors are logged and counted by LoadSample
	_ = r.svc.LoadSample(ctx, metrics.TriggerSchedule)
}

// cronLogAdapter routes cron's logr-style logging to slog.
type cronLogAdapter struct {
	logger *slog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
