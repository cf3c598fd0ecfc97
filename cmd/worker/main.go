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

	"github.com/kirillkom/incident-docs/internal/bootstrap"
	"github.com/kirillkom/incident-docs/internal/config"
	"github.com/kirillkom/incident-docs/internal/core/domain"
	"github.com/kirillkom/incident-docs/internal/observability/logging"
	"github.com/kirillkom/incident-docs/internal/observability/metrics"
)

const serviceName = "incident-docs-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:   logger,
		Recorder: workerMetrics.Generation(),
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()
	if app.Queue == nil {
		logger.Error("worker_requires_nats", "hint", "set NATS_URL")
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSGenerationSubject)
	err = app.Queue.SubscribeGenerationRequested(ctx, func(handlerCtx context.Context, req domain.GenerationRequest) error {
		if !req.RequestedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(req.RequestedAt))
		}
		workerMetrics.StartRequest()

		runCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()
		outcome, err := app.Generator.Generate(runCtx, req)
		workerMetrics.FinishRequest(serviceName, err)
		if err != nil {
			var pe *domain.PreflightError
			if errors.As(err, &pe) {
				for _, msg := range pe.Messages(cfg.GenerationMaxMessages) {
					logger.Warn("generation_rejected", "firm_id", req.Scope.FirmID, "message", msg)
				}
			}
			return err
		}
		logger.Info("generation_request_done",
			"run_id", outcome.RunID,
			"status", string(outcome.Status),
			"generated", outcome.Summary.Generated,
		)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
