// Command fileserver serves the lesson's sample text file with permissive CORS.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charcounter/internal/config"
	hhttp "charcounter/internal/handler/http"
	"charcounter/internal/handler/http/middleware"
	"charcounter/internal/handler/http/requestid"
	"charcounter/internal/handler/http/static"
	"charcounter/internal/observability/logging"
	"charcounter/internal/observability/tracing"
	pkgconfig "charcounter/internal/pkg/config"
	envconfig "charcounter/pkg/config"
)

const routePrefix = "/api/FileProcessing"

func main() {
	logger := logging.FromEnv(os.Stdout)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("file server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFileServerConfig(logger, pkgconfig.NewConfigMetrics("fileserver"))
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Init(tracing.Config{
		ServiceName: "charcounter-fileserver",
		SampleRatio: envconfig.GetEnvFloat("TRACE_SAMPLE_RATIO", 1),
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	files, err := static.New(cfg.Dir, cfg.File, logger)
	if err != nil {
		return err
	}
	defer func() { _ = files.Close() }()

	if status := files.Check(ctx); status.Status != hhttp.StatusHealthy {
		logger.Warn("sample file is not available yet",
			slog.String("dir", cfg.Dir),
			slog.String("file", cfg.File))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           buildHandler(logger, files),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("file server starting",
			slog.String("addr", srv.Addr),
			slog.String("dir", cfg.Dir),
			slog.String("url", "http://localhost"+srv.Addr+routePrefix+"/"+cfg.File))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down file server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("file server stopped")
	return nil
}

// buildHandler wires the routes. CORS is always the wildcard policy here:
// the lesson page on another origin fetches the sample file.
func buildHandler(logger *slog.Logger, files *static.Handler) http.Handler {
	mux := http.NewServeMux()
	files.Register(mux, routePrefix)
	mux.Handle("GET /health", &hhttp.HealthHandler{
		Version: envconfig.GetEnvString("VERSION", "dev"),
		Checks:  map[string]hhttp.Checker{"sample_file": files.Check},
	})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	return hhttp.Chain(mux,
		middleware.CORS(middleware.CORSConfig{
			Validator:      middleware.AnyOrigin{},
			AllowedMethods: middleware.DefaultCORSMethods,
			AllowedHeaders: middleware.DefaultCORSHeaders,
			MaxAge:         middleware.DefaultCORSMaxAge,
			Logger:         logger,
		}),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.MetricsMiddleware,
	)
}
