// Package search is the entry point for embedding a phonetic index: it binds
// a store and a namespace, and exposes document add/remove and an immutable
// query builder.
//
//	idx, err := search.New(store.NewMemory(), "reds")
//	err = idx.Add(ctx, "7", "simple words do not mean simple ideas")
//	ids, err := idx.Query("simple").Mode(search.Union).Range(0, 9).Execute(ctx)
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/phonetic"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const defaultBulkWorkers = 8

// Mode is the set operator a query combines its terms with.
type Mode = parser.Mode

const (
	Intersect = parser.ModeIntersect
	Union     = parser.ModeUnion
)

// ParseMode accepts intersect/and and union/or, case-insensitively.
func ParseMode(s string) (Mode, error) {
	return parser.ParseMode(s)
}

// Result is a query's ranked window plus the total number of matches.
type Result = executor.SearchResult

// Document is one unit of AddAll.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type options struct {
	language  string
	stopWords []string
	encoder   phonetic.Encoder
	workers   int
}

type Option func(*options)

// WithLanguage selects the stemmer language. Only english carries a
// stopword list by default.
func WithLanguage(language string) Option {
	return func(o *options) { o.language = language }
}

// WithStopWords replaces the language's stopword list.
func WithStopWords(words []string) Option {
	return func(o *options) { o.stopWords = words }
}

// WithEncoder swaps the phonetic encoder. It must be deterministic and
// never return an empty code.
func WithEncoder(encode func(token string) string) Option {
	return func(o *options) { o.encoder = phonetic.EncoderFunc(encode) }
}

// WithBulkWorkers bounds how many documents AddAll indexes concurrently.
func WithBulkWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Index is a phonetic index over one namespace of a store. It holds no
// mutable state and is safe for concurrent use.
type Index struct {
	keys     index.Keys
	analyzer *index.Analyzer
	writer   *indexer.Writer
	executor *executor.Executor
	workers  int
	logger   *slog.Logger
}

// New binds st and namespace into an Index.
func New(st store.Store, namespace string, opts ...Option) (*Index, error) {
	if st == nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "store is required")
	}
	if strings.TrimSpace(namespace) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidNamespace, http.StatusBadRequest, "namespace must not be empty")
	}
	o := options{language: tokenizer.DefaultLanguage, workers: defaultBulkWorkers}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	var normOpts []tokenizer.Option
	if o.stopWords != nil {
		normOpts = append(normOpts, tokenizer.WithStopWords(o.stopWords))
	}
	normalizer, err := tokenizer.New(o.language, normOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating normalizer: %w", err)
	}

	keys := index.NewKeys(namespace)
	analyzer := index.NewAnalyzer(normalizer, o.encoder)
	return &Index{
		keys:     keys,
		analyzer: analyzer,
		writer:   indexer.NewWriter(st, keys, analyzer),
		executor: executor.New(st, keys),
		workers:  o.workers,
		logger:   slog.Default().With("component", "search-index", "namespace", namespace),
	}, nil
}

func (ix *Index) Namespace() string {
	return ix.keys.Namespace()
}

// Add indexes text under id. Adding an id again adds to its scores.
func (ix *Index) Add(ctx context.Context, id string, text string) error {
	return ix.writer.Add(ctx, id, text)
}

// AddAll indexes docs concurrently, one batch per document, and returns the
// first error. Documents already written stay written.
func (ix *Index) AddAll(ctx context.Context, docs []Document) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for _, doc := range docs {
		g.Go(func() error {
			return ix.writer.Add(ctx, doc.ID, doc.Text)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	ix.logger.Debug("bulk add complete", "documents", len(docs))
	return nil
}

// Remove drops id from the index. Unknown ids are a no-op.
func (ix *Index) Remove(ctx context.Context, id string) error {
	return ix.writer.Remove(ctx, id)
}

// Codes lists the phonetic codes id is indexed under, highest frequency
// first.
func (ix *Index) Codes(ctx context.Context, id string) ([]string, error) {
	return ix.writer.Codes(ctx, id)
}

// Query starts a query for text in intersect mode over every match.
func (ix *Index) Query(text string) Query {
	return Query{index: ix, text: text, mode: Intersect, window: parser.All}
}

// Query is an immutable query description. Mode and Range return modified
// copies, so a Query can be shared and refined freely.
type Query struct {
	index  *Index
	text   string
	mode   Mode
	window parser.Window
}

func (q Query) Mode(mode Mode) Query {
	q.mode = mode
	return q
}

// Range selects the inclusive rank window [start, stop]. Negative bounds
// count from the lowest-ranked match.
func (q Query) Range(start, stop int64) Query {
	q.window = parser.Window{Start: start, Stop: stop}
	return q
}

func (q Query) Text() string { return q.text }

// Execute returns the ids in the query's window, highest score first.
func (q Query) Execute(ctx context.Context) ([]string, error) {
	res, err := q.Result(ctx)
	if err != nil {
		return nil, err
	}
	return res.IDs, nil
}

// Result is Execute plus the total match count before windowing.
func (q Query) Result(ctx context.Context) (*Result, error) {
	plan := parser.Parse(q.index.analyzer, q.text, q.mode, q.window)
	return q.index.executor.Execute(ctx, plan)
}
