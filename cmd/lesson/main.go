// Command lesson serves the character counter lesson page.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"charcounter/internal/config"
	hhttp "charcounter/internal/handler/http"
	hlesson "charcounter/internal/handler/http/lesson"
	"charcounter/internal/handler/http/middleware"
	"charcounter/internal/handler/http/requestid"
	"charcounter/internal/infra/fetcher"
	"charcounter/internal/observability/logging"
	"charcounter/internal/observability/metrics"
	"charcounter/internal/observability/tracing"
	pkgconfig "charcounter/internal/pkg/config"
	"charcounter/internal/usecase/compute"
	"charcounter/internal/usecase/lesson"
	envconfig "charcounter/pkg/config"
)

func main() {
	logger := logging.FromEnv(os.Stdout)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("lesson server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadLessonConfig(logger, pkgconfig.NewConfigMetrics("lesson"))
	if err != nil {
		return err
	}
	version := envconfig.GetEnvString("VERSION", "dev")

	shutdownTracing, err := tracing.Init(tracing.Config{
		ServiceName: "charcounter-lesson",
		SampleRatio: envconfig.GetEnvFloat("TRACE_SAMPLE_RATIO", 1),
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	sampleFetcher := fetcher.New(fetchCfg, nil, logger)

	host := compute.NewService(compute.Config{
		Workers:        cfg.Compute.Workers,
		Limits:         cfg.Compute.Limits(),
		FallbackLimits: cfg.Compute.FallbackLimits(),
	}, logger)

	svc := &lesson.Service{
		Fetcher:   sampleFetcher,
		Compute:   host,
		State:     lesson.NewState(),
		SampleURL: cfg.SampleURL,
		Logger:    logger,
	}

	handler, err := buildHandler(logger, cfg, version, svc, host, sampleFetcher)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info("lesson server starting",
		slog.String("addr", cfg.Addr),
		slog.String("version", version),
		slog.String("sample_url", cfg.SampleURL),
		slog.Int("workers", cfg.Compute.Workers),
		slog.String("refresh_schedule", cfg.RefreshSchedule))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down lesson server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", slog.Any("error", err))
		}
		return host.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		// failures are logged and counted; the page stays empty until a later refresh or upload
		_ = svc.LoadSample(gctx, metrics.TriggerStartup)
		return nil
	})
	if cfg.RefreshSchedule != "" {
		refresher, err := lesson.NewRefresher(cfg.RefreshSchedule, svc, fetchCfg.Timeout*time.Duration(max(fetchCfg.Retry.MaxAttempts, 1)), logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return refresher.Run(gctx) })
	}

	err = g.Wait()
	logger.Info("lesson server stopped")
	return err
}

func buildHandler(
	logger *slog.Logger,
	cfg config.LessonConfig,
	version string,
	svc *lesson.Service,
	host compute.Service,
	sampleFetcher *fetcher.HTTPFetcher,
) (http.Handler, error) {
	corsConfig, err := middleware.LoadCORSConfig()
	if err != nil {
		return nil, err
	}
	corsConfig.Logger = logger

	proxies, err := middleware.ParseTrustedProxies(envconfig.GetEnvStringList("TRUSTED_PROXIES", nil))
	if err != nil {
		return nil, err
	}
	var extractor middleware.IPExtractor = middleware.RemoteAddrExtractor{}
	if len(proxies) > 0 {
		extractor = middleware.TrustedProxyExtractor{Trusted: proxies}
	}
	uploadLimiter := middleware.NewClientRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.Upload.RequestsPerSecond,
		Burst:             cfg.Upload.Burst,
	}, extractor, logger, func() {
		metrics.RecordUpload(metrics.UploadRateLimited, 0)
	})

	mux := http.NewServeMux()
	hlesson.Register(mux, svc, uploadLimiter, cfg.Upload.MaxBytes)
	mux.Handle("GET /health", &hhttp.HealthHandler{
		Version: version,
		Checks: map[string]hhttp.Checker{
			"sample":       sampleCheck(svc),
			"compute":      computeCheck(host),
			"sample_fetch": breakerCheck(sampleFetcher),
		},
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{Ready: svc.Ready})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	return hhttp.Chain(mux,
		middleware.CORS(corsConfig),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.LimitRequestBody(cfg.Upload.MaxBytes),
		hhttp.MetricsMiddleware,
	), nil
}

func sampleCheck(svc *lesson.Service) hhttp.Checker {
	return func(context.Context) hhttp.CheckStatus {
		snap := svc.Snapshot()
		if snap.Empty() {
			return hhttp.CheckStatus{Status: hhttp.StatusDegraded, Message: "no result delivered yet"}
		}
		return hhttp.CheckStatus{
			Status: hhttp.StatusHealthy,
			Details: map[string]any{
				"generation": snap.Generation,
				"source":     snap.Source,
				"rows":       len(snap.Rows),
			},
		}
	}
}

func computeCheck(host compute.Service) hhttp.Checker {
	return func(context.Context) hhttp.CheckStatus {
		if !host.WorkersAvailable() {
			return hhttp.CheckStatus{Status: hhttp.StatusDegraded, Message: "no workers, counting synchronously"}
		}
		return hhttp.CheckStatus{Status: hhttp.StatusHealthy, Details: map[string]any{"generation": host.Current()}}
	}
}

func breakerCheck(f *fetcher.HTTPFetcher) hhttp.Checker {
	return func(context.Context) hhttp.CheckStatus {
		cb := f.Breaker()
		details := map[string]any{"state": cb.State().String()}
		if cb.IsOpen() {
			return hhttp.CheckStatus{Status: hhttp.StatusDegraded, Message: "circuit open", Details: details}
		}
		return hhttp.CheckStatus{Status: hhttp.StatusHealthy, Details: details}
	}
}
