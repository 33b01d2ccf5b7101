package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intakeworks/docflow/internal/bootstrap"
	"github.com/intakeworks/docflow/internal/config"
	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/observability/logging"
	"github.com/intakeworks/docflow/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("docflow-worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("docflow-worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeBatchProcessed(ctx, func(handlerCtx context.Context, event domain.BatchProcessedEvent) error {
		if !event.PublishedAt.IsZero() {
			workerMetrics.ObserveQueueLag("docflow-worker", time.Since(event.PublishedAt))
		}
		workerMetrics.StartReconcile()
		start := time.Now()

		reconcileCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()

		reconcileErr := app.ReconcileUC.Reconcile(reconcileCtx, event.BatchID)
		workerMetrics.FinishReconcile("docflow-worker", time.Since(start), reconcileErr)
		return reconcileErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
