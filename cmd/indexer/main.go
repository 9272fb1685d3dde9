// Command indexer consumes document events from Kafka and applies them to
// the Redis-backed phonetic index, recording outcomes in PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion/repository"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/postgres"
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
	slog.Info("starting indexer service", "redis", cfg.Redis.Addr)

	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	indexes := search.NewRegistry(pkgredis.NewStore(redisClient, cfg.Redis, m),
		search.WithLanguage(cfg.Search.Language),
	)
	handler := consumer.HandleMessage(indexes, repository.New(db), m)
	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.DocumentEvents,
		handler,
	)

	indexConsumer := consumer.New(kafkaConsumer)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentEvents,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := indexConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("indexer service stopped")
}
