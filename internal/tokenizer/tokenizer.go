// Package tokenizer splits page text into lower-cased alphanumeric tokens and
// computes word frequencies with English stopwords removed.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenizer implements crawler.Tokenizer. The zero value uses the built-in
// English stopword list.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// New returns a Tokenizer using DefaultStopwords.
func New() *Tokenizer {
	return NewWithStopwords(DefaultStopwords)
}

// NewWithStopwords returns a Tokenizer with a custom stopword list. Entries
// are compared case-insensitively.
func NewWithStopwords(words []string) *Tokenizer {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &Tokenizer{stopwords: set}
}

// Tokenize returns every maximal run of ASCII letters and digits in text,
// lower-cased, in order of appearance.
func (t *Tokenizer) Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}

// RemoveStopwords drops tokens found in the stopword list.
func (t *Tokenizer) RemoveStopwords(tokens []string) []string {
	stop := t.stopwords
	if stop == nil {
		stop = defaultStopwordSet
	}
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := stop[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Frequencies counts occurrences of each token.
func (t *Tokenizer) Frequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}
