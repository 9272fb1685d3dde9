// Package indexer maintains the phonetic inverted index: it writes a
// document's codes into per-code posting sets plus a per-document reverse
// set, and uses the reverse set to prune postings on removal.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
)

// Writer adds and removes documents of one namespace.
type Writer struct {
	store    store.Store
	keys     index.Keys
	analyzer *index.Analyzer
	logger   *slog.Logger
}

func NewWriter(st store.Store, keys index.Keys, analyzer *index.Analyzer) *Writer {
	return &Writer{
		store:    st,
		keys:     keys,
		analyzer: analyzer,
		logger:   slog.Default().With("component", "index-writer", "namespace", keys.Namespace()),
	}
}

// Add indexes text under id in a single store batch. Scores are added to
// whatever the document already holds, so indexing the same id twice
// doubles its frequencies. Text that normalises to nothing is a no-op.
func (w *Writer) Add(ctx context.Context, id string, text string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.New(apperrors.ErrInvalidInput, 400, "document id is required")
	}
	ops := w.AddOps(id, text)
	if len(ops) == 0 {
		w.logger.Debug("document has no indexable terms", "doc_id", id)
		return nil
	}
	if _, err := w.store.Batch(ctx, ops); err != nil {
		return fmt.Errorf("indexing document %s: %w", id, err)
	}
	w.logger.Debug("document indexed", "doc_id", id, "codes", len(ops)/2)
	return nil
}

// AddOps builds the batch Add submits: for every code, one increment of the
// posting set and one of the document's reverse set.
func (w *Writer) AddOps(id string, text string) []store.Op {
	terms := w.analyzer.Terms(text)
	if len(terms) == 0 {
		return nil
	}
	docKey := w.keys.Document(id)
	ops := make([]store.Op, 0, 2*len(terms))
	for _, term := range terms {
		freq := float64(term.Frequency)
		ops = append(ops,
			store.Add(w.keys.Posting(term.Code), id, freq),
			store.Add(docKey, term.Code, freq),
		)
	}
	return ops
}

// Codes returns the phonetic codes currently recorded for id.
func (w *Writer) Codes(ctx context.Context, id string) ([]string, error) {
	res, err := w.store.Batch(ctx, []store.Op{
		store.RangeByScoreDesc(w.keys.Document(id), math.Inf(1), 0),
	})
	if err != nil {
		return nil, fmt.Errorf("reading codes of document %s: %w", id, err)
	}
	return res[0].Members, nil
}

// Remove deletes id's reverse set and drops id from every posting set it
// names. Removing an unknown id succeeds without writing anything.
func (w *Writer) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.New(apperrors.ErrInvalidInput, 400, "document id is required")
	}
	codes, err := w.Codes(ctx, id)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		w.logger.Debug("document not indexed, nothing to remove", "doc_id", id)
		return nil
	}
	ops := make([]store.Op, 0, len(codes)+1)
	ops = append(ops, store.Delete(w.keys.Document(id)))
	for _, code := range codes {
		ops = append(ops, store.RemoveMember(w.keys.Posting(code), id))
	}
	if _, err := w.store.Batch(ctx, ops); err != nil {
		return fmt.Errorf("removing document %s: %w", id, err)
	}
	w.logger.Debug("document removed", "doc_id", id, "codes", len(codes))
	return nil
}
