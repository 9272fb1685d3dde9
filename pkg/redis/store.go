package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/resilience"
	"github.com/redis/go-redis/v9"
)

// Store runs store batches against Redis sorted sets. Each batch is one
// pipeline round trip; with Transactional set it is wrapped in MULTI/EXEC
// and applies atomically, otherwise commands before a failing one stay
// applied.
//
// Failed batches are retried only when they are safe to replay, which
// excludes any batch that increments scores.
type Store struct {
	rdb           *redis.Client
	transactional bool
	attempts      int
	breaker       *resilience.CircuitBreaker
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewStore builds a Store on client. m may be nil.
func NewStore(client *Client, cfg config.RedisConfig, m *metrics.Metrics) *Store {
	attempts := cfg.BatchAttempts
	if attempts < 1 {
		attempts = 1
	}
	breakerCfg := resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Breaker.ResetTimeout,
	}
	if m != nil {
		breakerCfg.OnStateChange = func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
		m.CircuitBreakerState.WithLabelValues("redis").Set(float64(resilience.StateClosed))
	}
	return &Store{
		rdb:           client.rdb,
		transactional: cfg.Transactional,
		attempts:      attempts,
		breaker:       resilience.NewCircuitBreaker("redis", breakerCfg),
		metrics:       m,
		logger:        slog.Default().With("component", "redis-store"),
	}
}

// Batch implements store.Store.
func (s *Store) Batch(ctx context.Context, ops []store.Op) ([]store.Result, error) {
	for _, op := range ops {
		if err := op.Check(); err != nil {
			return nil, err
		}
	}
	if len(ops) == 0 {
		return []store.Result{}, nil
	}

	attempts := s.attempts
	if !replayable(ops) {
		attempts = 1
	}
	retryCfg := resilience.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Retryable:    isTransient,
	}

	start := time.Now()
	var results []store.Result
	err := resilience.Retry(ctx, "redis-batch", retryCfg, func() error {
		return s.breaker.ExecuteCounting(func() error {
			var err error
			results, err = s.exec(ctx, ops)
			return err
		}, countsAsOutage)
	})
	if err != nil {
		err = classify(err)
	}
	s.observe(ops, err, time.Since(start))
	if err != nil {
		s.logger.Warn("batch failed", "ops", len(ops), "transactional", s.transactional, "error", err)
		return nil, err
	}
	return results, nil
}

func (s *Store) exec(ctx context.Context, ops []store.Op) ([]store.Result, error) {
	var pipe redis.Pipeliner
	if s.transactional {
		pipe = s.rdb.TxPipeline()
	} else {
		pipe = s.rdb.Pipeline()
	}
	cmds := make([]redis.Cmder, len(ops))
	for i, op := range ops {
		cmds[i] = queue(ctx, pipe, op)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	results := make([]store.Result, len(cmds))
	for i, cmd := range cmds {
		results[i] = toResult(cmd)
	}
	return results, nil
}

func queue(ctx context.Context, pipe redis.Pipeliner, op store.Op) redis.Cmder {
	switch op.Kind {
	case store.KindAdd:
		return pipe.ZIncrBy(ctx, op.Key, op.Delta, op.Member)
	case store.KindCombine:
		zs := &redis.ZStore{Keys: op.Sources, Aggregate: "SUM"}
		if op.SetOp == store.Union {
			return pipe.ZUnionStore(ctx, op.Key, zs)
		}
		return pipe.ZInterStore(ctx, op.Key, zs)
	case store.KindRangeDesc:
		return pipe.ZRevRange(ctx, op.Key, op.Start, op.Stop)
	case store.KindTrimByRank:
		// ZREMRANGEBYRANK counts ranks ascending; mirror the descending window.
		return pipe.ZRemRangeByRank(ctx, op.Key, -(op.Stop + 1), -(op.Start + 1))
	case store.KindRangeByScoreDesc:
		return pipe.ZRevRangeByScore(ctx, op.Key, &redis.ZRangeBy{
			Max: store.FormatScore(op.Max),
			Min: store.FormatScore(op.Min),
		})
	case store.KindRemoveMember:
		members := make([]interface{}, len(op.Members))
		for i, m := range op.Members {
			members[i] = m
		}
		return pipe.ZRem(ctx, op.Key, members...)
	case store.KindDelete:
		return pipe.Del(ctx, op.Keys...)
	}
	panic(fmt.Sprintf("redis store: unhandled op kind %s", op.Kind))
}

func toResult(cmd redis.Cmder) store.Result {
	switch c := cmd.(type) {
	case *redis.FloatCmd:
		return store.Result{Score: c.Val()}
	case *redis.IntCmd:
		return store.Result{Count: c.Val()}
	case *redis.StringSliceCmd:
		members := c.Val()
		if members == nil {
			members = []string{}
		}
		return store.Result{Members: members}
	}
	return store.Result{}
}

func replayable(ops []store.Op) bool {
	for _, op := range ops {
		if op.Kind == store.KindAdd {
			return false
		}
	}
	return true
}

// Reply prefixes Redis uses for conditions that clear on their own.
var transientReplies = []string{"LOADING", "BUSY", "TRYAGAIN", "CLUSTERDOWN", "MASTERDOWN", "READONLY"}

func isReplyError(err error) bool {
	var rerr redis.Error
	if !errors.As(err, &rerr) {
		return false
	}
	msg := rerr.Error()
	for _, prefix := range transientReplies {
		if strings.HasPrefix(msg, prefix) {
			return false
		}
	}
	return true
}

func isTransient(err error) bool {
	return !isReplyError(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, resilience.ErrCircuitOpen)
}

func countsAsOutage(err error) bool {
	return !isReplyError(err) && !errors.Is(err, context.Canceled)
}

// classify maps a batch error onto the index's error kinds: a command Redis
// rejected is an operation failure, everything else means the store could
// not be reached in time.
func classify(err error) error {
	if isReplyError(err) {
		return apperrors.Wrap(apperrors.ErrStoreOperationFailed, err)
	}
	return apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
}

func (s *Store) observe(ops []store.Op, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, apperrors.ErrStoreOperationFailed):
		status = "failed"
	case err != nil:
		status = "unavailable"
	}
	s.metrics.StoreBatchesTotal.WithLabelValues(status).Inc()
	s.metrics.StoreBatchDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	s.metrics.StoreBatchOps.Observe(float64(len(ops)))
}
