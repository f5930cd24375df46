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

	"github.com/nattawat-k/fracture-triage/internal/bootstrap"
	"github.com/nattawat-k/fracture-triage/internal/config"
	"github.com/nattawat-k/fracture-triage/internal/observability/logging"
	"github.com/nattawat-k/fracture-triage/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
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
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeCaseCreated(ctx, func(handlerCtx context.Context, caseID string) error {
		workerMetrics.StartInsights()
		start := time.Now()

		narrateCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()
		narrateErr := app.NarrateUC.NarrateByID(narrateCtx, caseID)

		workerMetrics.FinishInsights("worker", time.Since(start), narrateErr)
		return narrateErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
