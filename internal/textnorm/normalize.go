package textnorm

import (
	"regexp"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/kljensen/snowball"
)

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Normalizer applies a fixed cleanup-rule chain followed by tokenization,
// stopword removal, and stemming. The zero value is not usable; construct
// with New.
type Normalizer struct {
	rules []Rule
}

// New creates a Normalizer with the default cleanup chain.
func New() *Normalizer {
	return &Normalizer{rules: DefaultRules()}
}

// NewWithRules creates a Normalizer with a custom cleanup chain.
func NewWithRules(rules []Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Normalize converts raw report text to an ordered sequence of word stems.
//
// Stages, in fixed order: cleanup rules, non-alphanumeric stripping,
// lowercasing, stopword removal, single-character token removal, stemming.
// The result never contains empty or single-character tokens. Normalizing
// already-normalized text yields the same sequence.
func (n *Normalizer) Normalize(text string) []string {
	text = applyRules(text, n.rules)
	text = nonAlnumRe.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	text = stopwords.CleanString(text, "en", false)

	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, word := range fields {
		if len(word) <= 1 {
			continue
		}
		stem, err := snowball.Stem(word, "english", false)
		if err != nil || len(stem) <= 1 {
			// Unstemmable tokens are kept as-is rather than dropped; the
			// stemmer only errors on unsupported languages.
			stem = word
		}
		tokens = append(tokens, stem)
	}
	return tokens
}

// NormalizeJoined returns the normalized tokens joined by single spaces, for
// backends that consume one string per document.
func (n *Normalizer) NormalizeJoined(text string) string {
	return strings.Join(n.Normalize(text), " ")
}
