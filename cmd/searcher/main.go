// Command searcher serves the phonetic index over HTTP: synchronous document
// add/remove and ranked search per namespace.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
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

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/search"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "store", cfg.Search.Store)

	m := metrics.New(nil)
	checker := health.NewChecker()

	var st store.Store
	switch cfg.Search.Store {
	case "memory":
		st = store.NewMemory()
		slog.Warn("using in-memory store, the index is lost on exit")
	default:
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		st = pkgredis.NewStore(redisClient, cfg.Redis, m)
		checker.Register("redis", health.PingCheck(redisClient, health.StatusDown))
		slog.Info("connected to redis", "addr", cfg.Redis.Addr, "transactional", cfg.Redis.Transactional)
	}

	defaultMode, err := search.ParseMode(cfg.Search.DefaultMode)
	if err != nil {
		slog.Error("invalid default search mode", "mode", cfg.Search.DefaultMode, "error", err)
		os.Exit(1)
	}
	indexes := search.NewRegistry(st,
		search.WithLanguage(cfg.Search.Language),
		search.WithBulkWorkers(cfg.Search.BulkWorkers),
	)
	if _, err := indexes.Get(cfg.Search.Namespace); err != nil {
		slog.Error("failed to open default index", "namespace", cfg.Search.Namespace, "error", err)
		os.Exit(1)
	}

	h := handler.New(indexes, defaultMode, cfg.Search.MaxWindow, m)
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
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
