package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/incident-docs/internal/adapters/http"
	"github.com/kirillkom/incident-docs/internal/bootstrap"
	"github.com/kirillkom/incident-docs/internal/config"
	"github.com/kirillkom/incident-docs/internal/core/ports"
	"github.com/kirillkom/incident-docs/internal/observability/logging"
	"github.com/kirillkom/incident-docs/internal/observability/metrics"
)

const serviceName = "incident-docs-api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:   logger,
		Recorder: httpMetrics.Generation(),
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// A nil *nats.Queue must not reach the router as a non-nil interface.
	var queue ports.GenerationQueue
	if app.Queue != nil {
		queue = app.Queue
	}
	router := httpadapter.NewRouter(cfg, app.Generator, app.Templates, queue).WithMetrics(httpMetrics)
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
