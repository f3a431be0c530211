package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/pdf-qa-service/internal/bootstrap"
	"github.com/kirillkom/pdf-qa-service/internal/config"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/inbox"
	"github.com/kirillkom/pdf-qa-service/internal/observability/logging"
	"github.com/kirillkom/pdf-qa-service/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := startMetricsServer(cfg.WorkerMetricsPort, workerMetrics)
	defer shutdownMetricsServer(metricsServer)

	if cfg.InboxDir != "" {
		watcher := inbox.NewWatcher(app.IngestUC, cfg.InboxDir)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Error("inbox watcher stopped", "error", err)
			}
		}()
	}

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		return processDocument(processCtx, app, workerMetrics, documentID)
	})
	if err != nil {
		slog.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}

func processDocument(ctx context.Context, app *bootstrap.App, m *metrics.WorkerMetrics, documentID string) error {
	if doc, err := app.Repo.GetByID(ctx, documentID); err == nil {
		m.ObserveQueueLag(serviceName, time.Since(doc.CreatedAt))
	}

	m.StartDocument()
	start := time.Now()
	err := app.ProcessUC.ProcessByID(ctx, documentID)
	m.FinishDocument(serviceName, time.Since(start), err)
	if err != nil {
		return err
	}

	doc, getErr := app.Repo.GetByID(ctx, documentID)
	if getErr == nil {
		m.ObserveExtraction(serviceName, doc.PageCount, doc.ChunkCount)
		slog.Info("document_processed",
			"document_id", documentID,
			"pages", doc.PageCount,
			"chunks", doc.ChunkCount,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return nil
}

func startMetricsServer(port string, m *metrics.WorkerMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker metrics listening", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server error", "error", err)
		}
	}()
	return server
}

func shutdownMetricsServer(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
