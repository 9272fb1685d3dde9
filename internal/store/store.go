// Package store defines the ordered-set primitives the index issues against
// its backing data store, and an in-memory implementation of them.
//
// Every logical index operation is expressed as one batch of Ops submitted
// through Store.Batch; results come back in submission order so a caller can
// pick out, for example, only the window read from a combine+read+cleanup
// batch.
package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Store executes batches of weighted-set operations. A batch is one round
// trip; implementations document whether it is also atomic.
type Store interface {
	Batch(ctx context.Context, ops []Op) ([]Result, error)
}

// Kind tags an Op.
type Kind int

const (
	KindAdd Kind = iota
	KindCombine
	KindRangeDesc
	KindTrimByRank
	KindRangeByScoreDesc
	KindRemoveMember
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindCombine:
		return "combine"
	case KindRangeDesc:
		return "range_desc"
	case KindTrimByRank:
		return "trim_by_rank"
	case KindRangeByScoreDesc:
		return "range_by_score_desc"
	case KindRemoveMember:
		return "remove_member"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// SetOp selects the set algebra of a combine.
type SetOp int

const (
	Intersect SetOp = iota
	Union
)

func (o SetOp) String() string {
	if o == Union {
		return "union"
	}
	return "intersect"
}

// Op is a single weighted-set primitive. Only the fields relevant to Kind
// are read.
type Op struct {
	Kind    Kind
	Key     string
	Member  string
	Members []string
	Delta   float64
	SetOp   SetOp
	Sources []string
	Start   int64
	Stop    int64
	Max     float64
	Min     float64
	Keys    []string
}

// Result is the outcome of one Op. Members is set by range reads, Count by
// removals and combines, Score by Add.
type Result struct {
	Members []string
	Count   int64
	Score   float64
}

// Add increments member's score in key by delta, creating both if absent.
func Add(key, member string, delta float64) Op {
	return Op{Kind: KindAdd, Key: key, Member: member, Delta: delta}
}

// Combine stores at dest the intersection or union of sources with scores
// summed (all weights 1).
func Combine(dest string, op SetOp, sources ...string) Op {
	return Op{Kind: KindCombine, Key: dest, SetOp: op, Sources: sources}
}

// RangeDesc reads members by descending score within the inclusive rank
// window [start, stop]. Negative indices count from the end.
func RangeDesc(key string, start, stop int64) Op {
	return Op{Kind: KindRangeDesc, Key: key, Start: start, Stop: stop}
}

// TrimByRank removes the members RangeDesc would return for the same window.
func TrimByRank(key string, start, stop int64) Op {
	return Op{Kind: KindTrimByRank, Key: key, Start: start, Stop: stop}
}

// RangeByScoreDesc reads members with min <= score <= max, highest first.
func RangeByScoreDesc(key string, max, min float64) Op {
	return Op{Kind: KindRangeByScoreDesc, Key: key, Max: max, Min: min}
}

// RemoveMember removes members from key.
func RemoveMember(key string, members ...string) Op {
	return Op{Kind: KindRemoveMember, Key: key, Members: members}
}

// Delete removes whole keys.
func Delete(keys ...string) Op {
	return Op{Kind: KindDelete, Keys: keys}
}

// FormatScore renders a score bound the way Redis expects it.
func FormatScore(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// ResolveWindow converts a possibly negative inclusive rank window over a
// sequence of length n into half-open slice bounds. ok is false when the
// window selects nothing.
func ResolveWindow(start, stop int64, n int) (lo, hi int, ok bool) {
	size := int64(n)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if size == 0 || start > stop || start >= size {
		return 0, 0, false
	}
	return int(start), int(stop) + 1, true
}

// Check validates the fields an Op needs before it is sent.
func (o Op) Check() error {
	switch o.Kind {
	case KindAdd:
		if o.Key == "" || o.Member == "" {
			return fmt.Errorf("add: key and member are required")
		}
	case KindCombine:
		if o.Key == "" || len(o.Sources) == 0 {
			return fmt.Errorf("combine: destination and at least one source are required")
		}
	case KindRangeDesc, KindTrimByRank, KindRangeByScoreDesc:
		if o.Key == "" {
			return fmt.Errorf("%s: key is required", o.Kind)
		}
	case KindRemoveMember:
		if o.Key == "" || len(o.Members) == 0 {
			return fmt.Errorf("remove_member: key and members are required")
		}
	case KindDelete:
		if len(o.Keys) == 0 {
			return fmt.Errorf("delete: at least one key is required")
		}
	default:
		return fmt.Errorf("unknown op kind %d", o.Kind)
	}
	return nil
}
