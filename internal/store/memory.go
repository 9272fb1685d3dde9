package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/huandu/skiplist"
)

// Memory is an in-process Store. Each sorted set keeps its members in a
// skiplist ordered by (score, member) ascending, the same order Redis uses,
// so rank windows and tie-breaks match a Redis-backed index exactly.
//
// A batch runs under one lock and is therefore atomic.
type Memory struct {
	mu   sync.Mutex
	sets map[string]*sortedSet
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sets: make(map[string]*sortedSet)}
}

type entry struct {
	score  float64
	member string
}

// entryOrder orders entries by score, then member bytes.
type entryOrder struct{}

func (entryOrder) Compare(lhs, rhs interface{}) int {
	a, b := lhs.(entry), rhs.(entry)
	switch {
	case a.score < b.score:
		return -1
	case a.score > b.score:
		return 1
	default:
		return strings.Compare(a.member, b.member)
	}
}

func (entryOrder) CalcScore(key interface{}) float64 {
	return key.(entry).score
}

type sortedSet struct {
	scores map[string]float64
	order  *skiplist.SkipList
}

func newSortedSet() *sortedSet {
	return &sortedSet{
		scores: make(map[string]float64),
		order:  skiplist.New(entryOrder{}),
	}
}

func (s *sortedSet) set(member string, score float64) {
	if old, ok := s.scores[member]; ok {
		s.order.Remove(entry{score: old, member: member})
	}
	s.scores[member] = score
	s.order.Set(entry{score: score, member: member}, struct{}{})
}

func (s *sortedSet) remove(member string) bool {
	old, ok := s.scores[member]
	if !ok {
		return false
	}
	s.order.Remove(entry{score: old, member: member})
	delete(s.scores, member)
	return true
}

func (s *sortedSet) len() int {
	return len(s.scores)
}

// descending returns all entries, highest (score, member) first.
func (s *sortedSet) descending() []entry {
	out := make([]entry, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key().(entry))
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Batch applies ops in order and returns one Result per op.
func (m *Memory) Batch(ctx context.Context, ops []Op) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, op := range ops {
		if err := op.Check(); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]Result, len(ops))
	for i, op := range ops {
		results[i] = m.apply(op)
	}
	return results, nil
}

func (m *Memory) apply(op Op) Result {
	switch op.Kind {
	case KindAdd:
		set, ok := m.sets[op.Key]
		if !ok {
			set = newSortedSet()
			m.sets[op.Key] = set
		}
		score := set.scores[op.Member] + op.Delta
		set.set(op.Member, score)
		return Result{Score: score}

	case KindCombine:
		combined := m.combine(op.SetOp, op.Sources)
		delete(m.sets, op.Key)
		if combined.len() > 0 {
			m.sets[op.Key] = combined
		}
		return Result{Count: int64(combined.len())}

	case KindRangeDesc:
		set, ok := m.sets[op.Key]
		if !ok {
			return Result{Members: []string{}}
		}
		all := set.descending()
		lo, hi, ok := ResolveWindow(op.Start, op.Stop, len(all))
		if !ok {
			return Result{Members: []string{}}
		}
		members := make([]string, 0, hi-lo)
		for _, e := range all[lo:hi] {
			members = append(members, e.member)
		}
		return Result{Members: members}

	case KindTrimByRank:
		set, ok := m.sets[op.Key]
		if !ok {
			return Result{}
		}
		all := set.descending()
		lo, hi, ok := ResolveWindow(op.Start, op.Stop, len(all))
		if !ok {
			return Result{}
		}
		for _, e := range all[lo:hi] {
			set.remove(e.member)
		}
		m.dropIfEmpty(op.Key)
		return Result{Count: int64(hi - lo)}

	case KindRangeByScoreDesc:
		set, ok := m.sets[op.Key]
		if !ok {
			return Result{Members: []string{}}
		}
		members := make([]string, 0, set.len())
		for _, e := range set.descending() {
			if e.score <= op.Max && e.score >= op.Min {
				members = append(members, e.member)
			}
		}
		return Result{Members: members}

	case KindRemoveMember:
		set, ok := m.sets[op.Key]
		if !ok {
			return Result{}
		}
		var removed int64
		for _, member := range op.Members {
			if set.remove(member) {
				removed++
			}
		}
		m.dropIfEmpty(op.Key)
		return Result{Count: removed}

	case KindDelete:
		var deleted int64
		for _, key := range op.Keys {
			if _, ok := m.sets[key]; ok {
				delete(m.sets, key)
				deleted++
			}
		}
		return Result{Count: deleted}
	}
	return Result{}
}

func (m *Memory) combine(op SetOp, sources []string) *sortedSet {
	out := newSortedSet()
	switch op {
	case Union:
		sums := make(map[string]float64)
		for _, key := range sources {
			if set, ok := m.sets[key]; ok {
				for member, score := range set.scores {
					sums[member] += score
				}
			}
		}
		for member, score := range sums {
			out.set(member, score)
		}
	case Intersect:
		sets := make([]*sortedSet, 0, len(sources))
		for _, key := range sources {
			set, ok := m.sets[key]
			if !ok {
				return out
			}
			sets = append(sets, set)
		}
		sort.Slice(sets, func(i, j int) bool { return sets[i].len() < sets[j].len() })
		for member := range sets[0].scores {
			var sum float64
			present := true
			for _, set := range sets {
				score, ok := set.scores[member]
				if !ok {
					present = false
					break
				}
				sum += score
			}
			if present {
				out.set(member, sum)
			}
		}
	}
	return out
}

// Redis removes a sorted set once its last member is gone.
func (m *Memory) dropIfEmpty(key string) {
	if set, ok := m.sets[key]; ok && set.len() == 0 {
		delete(m.sets, key)
	}
}

// Exists reports whether key holds a non-empty set.
func (m *Memory) Exists(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sets[key]
	return ok
}

// Score returns member's score in key.
func (m *Memory) Score(key, member string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return 0, false
	}
	score, ok := set.scores[member]
	return score, ok
}

// Keys lists every key currently held, sorted.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.sets))
	for key := range m.sets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
