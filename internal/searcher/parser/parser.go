// Package parser turns a free-text query and its options into a QueryPlan:
// the deduplicated phonetic codes to combine, the set operator and the rank
// window.
package parser

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
)

type Mode int

const (
	ModeIntersect Mode = iota
	ModeUnion
)

func (m Mode) String() string {
	switch m {
	case ModeUnion:
		return "union"
	default:
		return "intersect"
	}
}

// SetOp maps the mode onto the store's set operator.
func (m Mode) SetOp() store.SetOp {
	switch m {
	case ModeUnion:
		return store.Union
	default:
		return store.Intersect
	}
}

// ParseMode accepts intersect/and and union/or in any case. The empty
// string selects intersect.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "intersect", "and":
		return ModeIntersect, nil
	case "union", "or":
		return ModeUnion, nil
	default:
		return ModeIntersect, apperrors.Newf(apperrors.ErrInvalidInput, 400, "unknown query mode %q", s)
	}
}

// Window is an inclusive rank range; negative bounds count from the end.
type Window struct {
	Start int64
	Stop  int64
}

// All selects every match.
var All = Window{Start: 0, Stop: -1}

// Size returns the number of ranks a window spans when both bounds have the
// same sign, or -1 when it depends on the result size.
func (w Window) Size() int64 {
	if (w.Start < 0) != (w.Stop < 0) {
		return -1
	}
	if w.Stop < w.Start {
		return 0
	}
	return w.Stop - w.Start + 1
}

type QueryPlan struct {
	RawQuery string
	Codes    []string
	Mode     Mode
	Window   Window
}

// Empty reports whether the query reduced to no codes.
func (p *QueryPlan) Empty() bool {
	return len(p.Codes) == 0
}

func (p *QueryPlan) String() string {
	return fmt.Sprintf("%s %v [%d,%d]", p.Mode, p.Codes, p.Window.Start, p.Window.Stop)
}

// Parse analyses query text exactly as indexing does and keeps each code
// once, in order of first occurrence.
func Parse(analyzer *index.Analyzer, query string, mode Mode, window Window) *QueryPlan {
	return &QueryPlan{
		RawQuery: query,
		Codes:    analyzer.Codes(query),
		Mode:     mode,
		Window:   window,
	}
}
