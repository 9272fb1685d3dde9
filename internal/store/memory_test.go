package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, m *Memory, key string, scores map[string]float64) {
	t.Helper()
	ops := make([]Op, 0, len(scores))
	for member, score := range scores {
		ops = append(ops, Add(key, member, score))
	}
	_, err := m.Batch(context.Background(), ops)
	require.NoError(t, err)
}

func rangeDesc(t *testing.T, m *Memory, key string, start, stop int64) []string {
	t.Helper()
	res, err := m.Batch(context.Background(), []Op{RangeDesc(key, start, stop)})
	require.NoError(t, err)
	return res[0].Members
}

func TestAddAccumulates(t *testing.T) {
	m := NewMemory()
	res, err := m.Batch(context.Background(), []Op{
		Add("k", "a", 2),
		Add("k", "a", 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, res[0].Score)
	assert.Equal(t, 5.0, res[1].Score)

	score, ok := m.Score("k", "a")
	require.True(t, ok)
	assert.Equal(t, 5.0, score)
}

func TestRangeDescOrderAndTieBreak(t *testing.T) {
	m := NewMemory()
	seed(t, m, "k", map[string]float64{"a": 1, "b": 3, "c": 1, "d": 2})

	// equal scores come back in reverse lexicographic order, as ZREVRANGE does
	assert.Equal(t, []string{"b", "d", "c", "a"}, rangeDesc(t, m, "k", 0, -1))
	assert.Equal(t, []string{"b", "d"}, rangeDesc(t, m, "k", 0, 1))
	assert.Equal(t, []string{"c", "a"}, rangeDesc(t, m, "k", -2, -1))
	assert.Equal(t, []string{"d", "c"}, rangeDesc(t, m, "k", 1, -2))
	assert.Equal(t, []string{"b", "d", "c", "a"}, rangeDesc(t, m, "k", -100, 100))
	assert.Empty(t, rangeDesc(t, m, "k", 3, 1))
	assert.Empty(t, rangeDesc(t, m, "k", 10, 20))
	assert.Empty(t, rangeDesc(t, m, "missing", 0, -1))
}

func TestCombineIntersectSumsScores(t *testing.T) {
	m := NewMemory()
	seed(t, m, "x", map[string]float64{"1": 1, "2": 2, "3": 5})
	seed(t, m, "y", map[string]float64{"2": 4, "3": 1, "4": 9})

	res, err := m.Batch(context.Background(), []Op{
		Combine("dest", Intersect, "x", "y"),
		RangeDesc("dest", 0, -1),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res[0].Count)
	assert.Equal(t, []string{"3", "2"}, res[1].Members)

	score, _ := m.Score("dest", "2")
	assert.Equal(t, 6.0, score)
}

func TestCombineIntersectMissingSourceIsEmpty(t *testing.T) {
	m := NewMemory()
	seed(t, m, "x", map[string]float64{"1": 1})
	seed(t, m, "dest", map[string]float64{"stale": 1})

	res, err := m.Batch(context.Background(), []Op{Combine("dest", Intersect, "x", "nope")})
	require.NoError(t, err)
	assert.Zero(t, res[0].Count)
	assert.False(t, m.Exists("dest"))
}

func TestCombineUnionTreatsAbsenceAsZero(t *testing.T) {
	m := NewMemory()
	seed(t, m, "x", map[string]float64{"1": 1, "2": 2})
	seed(t, m, "y", map[string]float64{"2": 4, "3": 1})

	res, err := m.Batch(context.Background(), []Op{
		Combine("dest", Union, "x", "y", "missing"),
		RangeDesc("dest", 0, -1),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res[0].Count)
	assert.Equal(t, []string{"2", "3", "1"}, res[1].Members)
}

func TestTrimByRankUsesDescendingWindow(t *testing.T) {
	m := NewMemory()
	seed(t, m, "k", map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4})

	res, err := m.Batch(context.Background(), []Op{TrimByRank("k", 0, 1)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res[0].Count)
	assert.Equal(t, []string{"b", "a"}, rangeDesc(t, m, "k", 0, -1))

	_, err = m.Batch(context.Background(), []Op{TrimByRank("k", 0, -1)})
	require.NoError(t, err)
	assert.False(t, m.Exists("k"))
}

func TestRangeByScoreDesc(t *testing.T) {
	m := NewMemory()
	seed(t, m, "k", map[string]float64{"a": 0, "b": 2, "c": 3, "d": -1})

	res, err := m.Batch(context.Background(), []Op{RangeByScoreDesc("k", math.Inf(1), 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, res[0].Members)
}

func TestRemoveMemberAndDelete(t *testing.T) {
	m := NewMemory()
	seed(t, m, "k", map[string]float64{"a": 1, "b": 2})
	seed(t, m, "j", map[string]float64{"a": 1})

	res, err := m.Batch(context.Background(), []Op{
		RemoveMember("k", "a", "zzz"),
		Delete("j", "never"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res[0].Count)
	assert.EqualValues(t, 1, res[1].Count)
	assert.Equal(t, []string{"k"}, m.Keys())

	_, err = m.Batch(context.Background(), []Op{RemoveMember("k", "b")})
	require.NoError(t, err)
	assert.Empty(t, m.Keys())
}

func TestBatchRejectsInvalidOpsBeforeApplying(t *testing.T) {
	m := NewMemory()
	_, err := m.Batch(context.Background(), []Op{
		Add("k", "a", 1),
		Combine("dest", Union),
	})
	require.Error(t, err)
	assert.False(t, m.Exists("k"))
}

func TestBatchHonoursCancelledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Batch(ctx, []Op{Add("k", "a", 1)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveWindow(t *testing.T) {
	cases := []struct {
		start, stop int64
		n           int
		lo, hi      int
		ok          bool
	}{
		{0, -1, 5, 0, 5, true},
		{0, 0, 5, 0, 1, true},
		{-2, -1, 5, 3, 5, true},
		{-10, 1, 5, 0, 2, true},
		{2, 100, 5, 2, 5, true},
		{3, 2, 5, 0, 0, false},
		{5, 6, 5, 0, 0, false},
		{0, -1, 0, 0, 0, false},
		{0, -9, 5, 0, 0, false},
	}
	for _, c := range cases {
		lo, hi, ok := ResolveWindow(c.start, c.stop, c.n)
		assert.Equal(t, c.ok, ok, "window [%d,%d] n=%d", c.start, c.stop, c.n)
		if c.ok {
			assert.Equal(t, c.lo, lo)
			assert.Equal(t, c.hi, hi)
		}
	}
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "+inf", FormatScore(math.Inf(1)))
	assert.Equal(t, "-inf", FormatScore(math.Inf(-1)))
	assert.Equal(t, "0", FormatScore(0))
	assert.Equal(t, "2.5", FormatScore(2.5))
}
