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

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/bootstrap"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/config"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/observability/logging"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/observability/metrics"
)

const service = "intent-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeCrawlTasks(ctx, func(handlerCtx context.Context, task domain.CrawlTask) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()

		if !task.Item.FetchedAt.IsZero() {
			workerMetrics.ObserveQueueLag(service, time.Since(task.Item.FetchedAt))
		}

		workerMetrics.StartItem()
		start := time.Now()
		outcome, err := app.ProcessUC.Process(processCtx, task)
		workerMetrics.FinishItem(service, string(outcome.Status), time.Since(start), err)
		if err != nil {
			return err
		}

		if outcome.Unattributed {
			workerMetrics.RecordUnattributed(service)
		}
		for _, signalType := range outcome.SignalTypes {
			workerMetrics.RecordSignal(service, string(signalType))
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
