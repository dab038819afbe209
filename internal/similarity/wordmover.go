package similarity

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/fyrsmithlabs/dupfinder/internal/corpus"
	"github.com/fyrsmithlabs/dupfinder/internal/embedding"
	"github.com/fyrsmithlabs/dupfinder/internal/emd"
	"github.com/fyrsmithlabs/dupfinder/internal/report"
	"github.com/fyrsmithlabs/dupfinder/internal/textnorm"
)

// WordMoverOptions configures the word-embedding-distance backend.
type WordMoverOptions struct {
	// Word2Vec holds the embedding training parameters.
	Word2Vec embedding.Word2VecConfig
	// Seed drives the pre-training corpus shuffle.
	Seed int64
	// TopK is the result length per query.
	TopK int
}

// WordMoverBackend ranks candidates by the minimum cost of transporting the
// query's word-probability mass onto each candidate's, with per-word cost
// equal to cosine distance in embedding space.
//
// Exact transport distances are quadratic in document vocabulary, so each
// query runs two stages: a relaxed lower-bound pass over the whole corpus,
// then exact refinement in ascending bound order with early termination once
// no remaining candidate can improve the confirmed top-k.
type WordMoverBackend struct {
	entries  corpus.Corpus
	docVocab [][]int // per entry: vocabulary indexes of in-vocab tokens
	model    *embedding.WordModel
	norm     *textnorm.Normalizer
	topK     int
	logger   *zap.Logger
}

// NewWordMoverBackend shuffles the corpus, trains word embeddings over it,
// and precomputes each document's in-vocabulary token indexes.
func NewWordMoverBackend(c corpus.Corpus, norm *textnorm.Normalizer, opts WordMoverOptions, logger *zap.Logger) (*WordMoverBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(c) == 0 {
		return nil, ErrEmptyCorpus
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}

	shuffled := c.Shuffled(rand.New(rand.NewSource(opts.Seed)))
	docs := make([][]string, len(shuffled))
	for i := range shuffled {
		docs[i] = shuffled[i].Tokens
	}

	model, err := embedding.TrainWord2Vec(docs, opts.Word2Vec, logger)
	if err != nil {
		return nil, fmt.Errorf("training word embeddings: %w", err)
	}
	return newWordMover(shuffled, model, norm, opts.TopK, logger), nil
}

// newWordMover wires a backend over an already-trained word model.
func newWordMover(c corpus.Corpus, model *embedding.WordModel, norm *textnorm.Normalizer, topK int, logger *zap.Logger) *WordMoverBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	docVocab := make([][]int, len(c))
	for i := range c {
		docVocab[i] = model.InVocab(c[i].Tokens)
	}
	return &WordMoverBackend{
		entries:  c,
		docVocab: docVocab,
		model:    model,
		norm:     norm,
		topK:     topK,
		logger:   logger,
	}
}

// SimilarBugs returns the top-k corpus documents by exact transport distance,
// found via the relaxed-bound filter and early-terminated refinement.
func (b *WordMoverBackend) SimilarBugs(ctx context.Context, query report.Report) ([]report.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := b.norm.Normalize(query.Text())
	queryIdx := b.model.InVocab(tokens)
	if len(queryIdx) == 0 {
		b.logger.Debug("query has no in-vocabulary words", zap.Int("report", query.ID))
		return []report.ID{}, nil
	}

	// Cosine distance from every vocabulary word to every query token,
	// computed once per query and sliced per candidate. Never shared across
	// queries.
	dist := b.queryDistances(queryIdx)

	type candidate struct {
		pos   int
		bound float64
	}
	candidates := make([]candidate, 0, len(b.entries))
	for i := range b.entries {
		if len(b.docVocab[i]) == 0 {
			// No bound is computable without in-vocabulary words.
			continue
		}
		candidates = append(candidates, candidate{
			pos:   i,
			bound: relaxedBound(dist, b.docVocab[i], len(queryIdx)),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].bound < candidates[j].bound
	})

	confirmed := newRankedList(b.topK)
	refined := 0
	for _, cand := range candidates {
		// Bounds are sorted ascending, so once the confirmed top-k beats
		// this bound no later candidate can improve the result.
		if confirmed.Full() && cand.bound > confirmed.Worst() {
			break
		}
		exact := b.exactDistanceWith(dist, queryIdx, b.docVocab[cand.pos])
		refined++
		if math.IsInf(exact, 1) {
			continue
		}
		confirmed.Insert(b.entries[cand.pos].ID, exact)
	}

	b.logger.Debug("word-mover query refined",
		zap.Int("report", query.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("refined", refined),
	)
	return excludeSelf(confirmed.IDs(), query.ID, b.topK), nil
}

// queryDistances builds the vocabulary-by-query cosine-distance matrix:
// entry (i, j) is 1 minus the dot product of unit vectors for vocabulary
// word i and the j-th query token.
func (b *WordMoverBackend) queryDistances(queryIdx []int) *mat.Dense {
	dim := b.model.Dim()
	queryVecs := mat.NewDense(len(queryIdx), dim, nil)
	for j, vi := range queryIdx {
		queryVecs.SetRow(j, b.model.Vector(vi))
	}

	var dist mat.Dense
	dist.Mul(b.model.Vectors(), queryVecs.T())
	dist.Apply(func(_, _ int, v float64) float64 { return 1 - v }, &dist)
	return &dist
}

// relaxedBound computes the relaxed transport lower bound between the query
// and one candidate: the greater of the two one-sided nearest-word assignment
// costs. Each side is itself a lower bound on the exact transport cost.
func relaxedBound(dist *mat.Dense, docIdx []int, queryLen int) float64 {
	var queryside float64
	for j := 0; j < queryLen; j++ {
		min := math.Inf(1)
		for _, d := range docIdx {
			if v := dist.At(d, j); v < min {
				min = v
			}
		}
		queryside += min
	}

	var docside float64
	for _, d := range docIdx {
		min := math.Inf(1)
		for j := 0; j < queryLen; j++ {
			if v := dist.At(d, j); v < min {
				min = v
			}
		}
		docside += min
	}

	return math.Max(queryside, docside)
}

// exactDistance computes the exact transport distance between the query and
// one candidate document over their union vocabulary. An all-zero cost matrix
// or a degenerate transport problem yields +Inf, marking the pair
// incomparable rather than identical.
func (b *WordMoverBackend) exactDistance(queryIdx, docIdx []int) float64 {
	dist := b.queryDistances(queryIdx)
	return b.exactDistanceWith(dist, queryIdx, docIdx)
}

// exactDistanceWith is exactDistance against an already-computed query
// distance matrix.
func (b *WordMoverBackend) exactDistanceWith(dist *mat.Dense, queryIdx, docIdx []int) float64 {
	if len(queryIdx) == 0 || len(docIdx) == 0 {
		return math.Inf(1)
	}

	queryWords, queryCounts, queryCol := uniqueWords(queryIdx)
	docWords, docCounts, _ := uniqueWords(docIdx)

	cost := mat.NewDense(len(queryWords), len(docWords), nil)
	allZero := true
	for i, qw := range queryWords {
		col := queryCol[qw]
		for j, dw := range docWords {
			v := dist.At(dw, col)
			cost.Set(i, j, v)
			if v != 0 {
				allZero = false
			}
		}
	}
	if allZero {
		b.logger.Warn("transport cost matrix is all zeros, treating pair as incomparable",
			zap.Int("query_words", len(queryWords)),
			zap.Int("doc_words", len(docWords)),
		)
		return math.Inf(1)
	}

	p := distribution(queryCounts, len(queryIdx))
	q := distribution(docCounts, len(docIdx))

	d, err := emd.Distance(p, q, cost)
	if err != nil {
		b.logger.Warn("transport distance failed, treating pair as incomparable", zap.Error(err))
		return math.Inf(1)
	}
	return d
}

// uniqueWords returns the distinct vocabulary indexes in first-occurrence
// order, their occurrence counts, and the position of each word's first
// occurrence in the token sequence.
func uniqueWords(idx []int) (words []int, counts []int, firstPos map[int]int) {
	firstPos = make(map[int]int, len(idx))
	seen := make(map[int]int, len(idx))
	for pos, vi := range idx {
		if at, ok := seen[vi]; ok {
			counts[at]++
			continue
		}
		seen[vi] = len(words)
		firstPos[vi] = pos
		words = append(words, vi)
		counts = append(counts, 1)
	}
	return words, counts, firstPos
}

// distribution converts occurrence counts to term frequencies over a
// document of length total.
func distribution(counts []int, total int) []float64 {
	d := make([]float64, len(counts))
	for i, c := range counts {
		d[i] = float64(c) / float64(total)
	}
	return d
}
