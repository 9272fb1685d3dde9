// Package executor evaluates query plans against the store: it combines the
// referenced posting sets into a per-call result set, reads the requested
// rank window and releases the result set, all in one batch.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
)

const releaseTimeout = 2 * time.Second

type SearchResult struct {
	Query     string   `json:"query"`
	Mode      string   `json:"mode"`
	Start     int64    `json:"start"`
	Stop      int64    `json:"stop"`
	TotalHits int64    `json:"total_hits"`
	IDs       []string `json:"ids"`
}

type Executor struct {
	store  store.Store
	keys   index.Keys
	logger *slog.Logger
}

func New(st store.Store, keys index.Keys) *Executor {
	return &Executor{
		store:  st,
		keys:   keys,
		logger: slog.Default().With("component", "query-executor", "namespace", keys.Namespace()),
	}
}

// Execute runs plan and returns matching ids by descending score. Ties keep
// the store's order, which for Redis is reverse lexicographic by id. A plan
// without codes returns an empty result without touching the store.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan) (*SearchResult, error) {
	result := &SearchResult{
		Query: plan.RawQuery,
		Mode:  plan.Mode.String(),
		Start: plan.Window.Start,
		Stop:  plan.Window.Stop,
		IDs:   []string{},
	}
	if plan.Empty() {
		return result, nil
	}

	tmp := e.keys.Ephemeral()
	start, stop := plan.Window.Start, plan.Window.Stop
	ops := []store.Op{
		store.Combine(tmp, plan.Mode.SetOp(), e.keys.Postings(plan.Codes)...),
		store.RangeDesc(tmp, start, stop),
		store.TrimByRank(tmp, start, stop),
		store.Delete(tmp),
	}
	res, err := e.store.Batch(ctx, ops)
	if err != nil {
		e.release(ctx, tmp)
		return nil, fmt.Errorf("executing query %q: %w", plan.RawQuery, err)
	}

	result.TotalHits = res[0].Count
	if res[1].Members != nil {
		result.IDs = res[1].Members
	}
	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"mode", plan.Mode.String(),
		"codes", plan.Codes,
		"total_hits", result.TotalHits,
		"returned", len(result.IDs),
	)
	return result, nil
}

// release deletes the result set after a failed batch. The batch may have
// died before or after the combine ran, so this is best effort.
func (e *Executor) release(ctx context.Context, tmp string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if _, err := e.store.Batch(ctx, []store.Op{store.Delete(tmp)}); err != nil {
		e.logger.Warn("failed to release query result set", "key", tmp, "error", err)
	}
}
