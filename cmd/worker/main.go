package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsage/docsage/internal/bootstrap"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/core/usecase"
	"github.com/docsage/docsage/internal/observability/logging"
	"github.com/docsage/docsage/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		start := time.Now()
		workerMetrics.StartDocument()

		doc, docErr := app.Documents.GetByID(handlerCtx, documentID)
		if docErr == nil {
			workerMetrics.ObserveQueueLag("worker", time.Since(doc.CreatedAt))
		}

		timeout := usecase.DefaultIndexTimeout
		if docErr == nil {
			timeout = usecase.CalculateTimeoutForDocument(doc)
		}

		indexCtx, cancel := context.WithTimeout(handlerCtx, timeout)
		defer cancel()

		indexErr := app.IndexUC.IndexByID(indexCtx, documentID)
		workerMetrics.FinishDocument("worker", time.Since(start), indexErr)
		if indexErr != nil {
			logger.Error("document_index_failed", "document_id", documentID, "error", indexErr)
		}
		return indexErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
