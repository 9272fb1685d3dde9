package index

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/phonetic"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermsCountFrequencies(t *testing.T) {
	a := DefaultAnalyzer()
	terms := a.Terms("simple words do not mean simple ideas")
	assert.Equal(t, []Term{
		{Code: "SMPL", Frequency: 2},
		{Code: "WRT", Frequency: 1},
		{Code: "MN", Frequency: 1},
		{Code: "IT", Frequency: 1},
	}, terms)
}

func TestTermsSumSharedCodes(t *testing.T) {
	a := DefaultAnalyzer()
	terms := a.Terms("Smith met Smyth and smith")
	require.Len(t, terms, 2)
	assert.Equal(t, Term{Code: "SM0", Frequency: 3}, terms[0])
	assert.Equal(t, Term{Code: "MT", Frequency: 1}, terms[1])
}

func TestTermsEmpty(t *testing.T) {
	a := DefaultAnalyzer()
	assert.Empty(t, a.Terms(""))
	assert.Empty(t, a.Terms("is a"))
	assert.Empty(t, a.Terms("... !!"))
}

func TestCodesDedupeInOrder(t *testing.T) {
	a := DefaultAnalyzer()
	assert.Equal(t, []string{"TB", "WNT", "4", "TLR"}, a.Codes("Tobi wants 4 dollars"))
	assert.Equal(t, []string{"F", "BR", "BS"}, a.Codes("foo bar baz foo"))
	assert.Empty(t, a.Codes("is a"))
}

func TestCustomEncoder(t *testing.T) {
	upper := phonetic.EncoderFunc(strings.ToUpper)
	a := NewAnalyzer(tokenizer.MustNew(tokenizer.DefaultLanguage), upper)
	assert.Equal(t, []string{"LOKI", "FERRET"}, a.Codes("Loki is a ferret"))
}

func TestNilEncoderFallsBackToMetaphone(t *testing.T) {
	a := NewAnalyzer(tokenizer.MustNew(tokenizer.DefaultLanguage), nil)
	assert.Equal(t, []string{"TB"}, a.Codes("tobi"))
}
