// Package index turns text into the phonetic terms stored in the inverted
// index and derives the store keys those terms live under.
package index

import (
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/phonetic"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/indexer/tokenizer"
)

// Term is one phonetic code of a document with the number of normalised
// tokens that encode to it.
type Term struct {
	Code      string
	Frequency int
}

// Analyzer runs the normaliser and the phonetic encoder. It holds no
// mutable state.
type Analyzer struct {
	normalizer *tokenizer.Normalizer
	encoder    phonetic.Encoder
}

func NewAnalyzer(normalizer *tokenizer.Normalizer, encoder phonetic.Encoder) *Analyzer {
	if encoder == nil {
		encoder = phonetic.Metaphone
	}
	return &Analyzer{normalizer: normalizer, encoder: encoder}
}

// DefaultAnalyzer is english Snowball stemming with Metaphone codes.
func DefaultAnalyzer() *Analyzer {
	return NewAnalyzer(tokenizer.MustNew(tokenizer.DefaultLanguage), phonetic.Metaphone)
}

// Tokens returns the normalised tokens of text.
func (a *Analyzer) Tokens(text string) []string {
	return a.normalizer.Normalize(text)
}

// Terms returns one Term per distinct code, in order of first occurrence.
// Distinct tokens sharing a code have their frequencies summed.
func (a *Analyzer) Terms(text string) []Term {
	tokens := a.normalizer.Normalize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := tokenizer.CountWords(tokens)
	position := make(map[string]int, len(counts))
	terms := make([]Term, 0, len(counts))
	seen := make(map[string]struct{}, len(counts))
	for _, token := range tokens {
		if _, done := seen[token]; done {
			continue
		}
		seen[token] = struct{}{}
		code := a.encoder.Encode(token)
		if i, ok := position[code]; ok {
			terms[i].Frequency += counts[token]
			continue
		}
		position[code] = len(terms)
		terms = append(terms, Term{Code: code, Frequency: counts[token]})
	}
	return terms
}

// Codes returns the distinct codes of text in order of first occurrence.
func (a *Analyzer) Codes(text string) []string {
	tokens := a.normalizer.Normalize(text)
	codes := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		code := a.encoder.Encode(token)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}
