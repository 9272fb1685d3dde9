// Package tokenizer turns raw text into the normalised token stream used for
// both indexing and querying. It extracts [A-Za-z0-9_]+ runs, drops
// stop-words (case-sensitive, before stemming) and applies a Snowball
// stemmer to every surviving token.
package tokenizer

import (
	"fmt"
	"regexp"

	"github.com/kljensen/snowball"
)

// DefaultLanguage is the Snowball language used when none is configured.
const DefaultLanguage = "english"

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Normalizer holds the stop-word set and stemmer for one language. It is
// immutable after construction and safe for concurrent use.
type Normalizer struct {
	language  string
	stopWords map[string]struct{}
}

// Option customises a Normalizer.
type Option func(*Normalizer)

// WithStopWords replaces the language's stop-word list.
func WithStopWords(words []string) Option {
	return func(n *Normalizer) {
		n.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			n.stopWords[w] = struct{}{}
		}
	}
}

// New returns a Normalizer for a Snowball language. Only english ships with
// a stop-word list; other languages stem without one unless WithStopWords
// is given.
func New(language string, opts ...Option) (*Normalizer, error) {
	if language == "" {
		language = DefaultLanguage
	}
	if _, err := snowball.Stem("probe", language, true); err != nil {
		return nil, fmt.Errorf("unsupported stemming language %q: %w", language, err)
	}
	n := &Normalizer{
		language:  language,
		stopWords: map[string]struct{}{},
	}
	if language == DefaultLanguage {
		n.stopWords = englishStopWords
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// MustNew is New for package-level defaults; it panics on an unknown language.
func MustNew(language string, opts ...Option) *Normalizer {
	n, err := New(language, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// Language reports the Snowball language in use.
func (n *Normalizer) Language() string {
	return n.language
}

// Normalize returns the stemmed, stop-word-free tokens of text in source
// order. Duplicates are preserved.
func (n *Normalizer) Normalize(text string) []string {
	words := Words(text)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if n.IsStopWord(word) {
			continue
		}
		tokens = append(tokens, n.Stem(word))
	}
	return tokens
}

// IsStopWord reports whether word is in the stop-word set. The match is
// case-sensitive.
func (n *Normalizer) IsStopWord(word string) bool {
	_, ok := n.stopWords[word]
	return ok
}

// Stem applies the Snowball stemmer. The stemmer lower-cases its input.
func (n *Normalizer) Stem(word string) string {
	stemmed, err := snowball.Stem(word, n.language, true)
	if err != nil {
		return word
	}
	return stemmed
}

// Words returns the maximal [A-Za-z0-9_]+ runs of text in order.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// CountWords maps each token to the number of times it occurs.
func CountWords(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}
