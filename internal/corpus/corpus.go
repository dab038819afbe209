// Package corpus builds the normalized (id, tokens) collection every
// similarity backend trains on.
package corpus

import (
	"math/rand"
	"strings"

	"github.com/fyrsmithlabs/dupfinder/internal/report"
)

// Entry pairs a report identifier with its normalized document.
// Ids and documents are never held in separate collections, so no reordering
// can desynchronize them.
type Entry struct {
	ID     report.ID
	Tokens []string
}

// Corpus is an ordered collection of normalized documents.
type Corpus []Entry

// NormalizeFunc converts raw report text to a token sequence.
type NormalizeFunc func(text string) []string

// Build applies the normalization pipeline to every report, preserving the
// input order.
func Build(reports []report.Report, normalize NormalizeFunc) Corpus {
	c := make(Corpus, 0, len(reports))
	for _, r := range reports {
		c = append(c, Entry{ID: r.ID, Tokens: normalize(r.Text())})
	}
	return c
}

// Shuffled returns a copy of the corpus with entries permuted by rng.
// Entries move as pairs; embedding trainers shuffle to decorrelate any latent
// ordering in the source dump.
func (c Corpus) Shuffled(rng *rand.Rand) Corpus {
	out := make(Corpus, len(c))
	copy(out, c)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Joined returns document i as a single space-joined string.
func (c Corpus) Joined(i int) string {
	return strings.Join(c[i].Tokens, " ")
}

// JoinedDocs returns every document as a space-joined string, in corpus order.
func (c Corpus) JoinedDocs() []string {
	docs := make([]string, len(c))
	for i := range c {
		docs[i] = c.Joined(i)
	}
	return docs
}

// IDs returns the identifiers in corpus order.
func (c Corpus) IDs() []report.ID {
	ids := make([]report.ID, len(c))
	for i := range c {
		ids[i] = c[i].ID
	}
	return ids
}
