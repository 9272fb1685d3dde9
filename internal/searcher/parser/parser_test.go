package parser

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModeAliases(t *testing.T) {
	cases := map[string]Mode{
		"":          ModeIntersect,
		"intersect": ModeIntersect,
		"and":       ModeIntersect,
		"AND":       ModeIntersect,
		"union":     ModeUnion,
		"or":        ModeUnion,
		" Or ":      ModeUnion,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseModeRejectsUnknown(t *testing.T) {
	_, err := ParseMode("xor")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
}

func TestModeSetOp(t *testing.T) {
	assert.Equal(t, store.Intersect, ModeIntersect.SetOp())
	assert.Equal(t, store.Union, ModeUnion.SetOp())
	assert.Equal(t, "union", ModeUnion.String())
	assert.Equal(t, "intersect", ModeIntersect.String())
}

func TestParseDedupesCodes(t *testing.T) {
	plan := Parse(index.DefaultAnalyzer(), "Smith smyth and SMITH jane", ModeUnion, All)
	assert.Equal(t, []string{"SM0", "JN"}, plan.Codes)
	assert.Equal(t, ModeUnion, plan.Mode)
	assert.Equal(t, All, plan.Window)
	assert.False(t, plan.Empty())
	assert.Equal(t, "union [SM0 JN] [0,-1]", plan.String())
}

func TestParseStopWordsOnly(t *testing.T) {
	plan := Parse(index.DefaultAnalyzer(), "is a", ModeIntersect, All)
	assert.True(t, plan.Empty())
	assert.Equal(t, "is a", plan.RawQuery)
}

func TestWindowSize(t *testing.T) {
	assert.EqualValues(t, 10, Window{0, 9}.Size())
	assert.EqualValues(t, 2, Window{-2, -1}.Size())
	assert.EqualValues(t, 0, Window{5, 1}.Size())
	assert.EqualValues(t, -1, All.Size())
}
