// Command ingestion starts the asynchronous document ingestion HTTP service.
//
// Document changes are validated, recorded as PENDING or REMOVING in
// PostgreSQL and published to Kafka for the indexer. Status is served at
// GET /api/v1/indexes/{namespace}/documents/{id}/status.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion/repository"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/postgres"
)

// main connects to PostgreSQL, ensures the status schema, creates the Kafka
// producer and serves the ingestion API until SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ingestion service", "port", cfg.Server.Port)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	repo := repository.New(db)
	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = repo.EnsureSchema(schemaCtx)
	cancel()
	if err != nil {
		slog.Error("failed to ensure document schema", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to postgres")

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentEvents)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.DocumentEvents)

	m := metrics.New(nil)
	checker := health.NewChecker()
	checker.Register("postgres", health.PingCheck(db, health.StatusDown))
	checker.Register("kafka", health.PingCheck(producer, health.StatusDegraded))

	h := handler.New(publisher.New(repo, producer), repo)
	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst, m)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if shutdownMetrics != nil {
			shutdownMetrics(shutdownCtx)
		}
	}()
	slog.Info("ingestion service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}
