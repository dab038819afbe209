package similarity

import (
	"context"
	"fmt"
	"sort"

	"github.com/james-bowman/nlp"
	"github.com/james-bowman/nlp/measures/pairwise"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/fyrsmithlabs/dupfinder/internal/corpus"
	"github.com/fyrsmithlabs/dupfinder/internal/report"
	"github.com/fyrsmithlabs/dupfinder/internal/textnorm"
)

// LSIOptions configures the latent-semantic backend.
type LSIOptions struct {
	// Topics is the factorization rank. Capped at the corpus dimensions.
	Topics int
	// K is the result length per query.
	K int
}

// LSIBackend ranks candidates by cosine similarity in a truncated-SVD topic
// space fitted over TF-IDF-weighted bag-of-words vectors. The vocabulary is
// frozen at construction; query tokens outside it are silently dropped.
type LSIBackend struct {
	vectoriser  *nlp.CountVectoriser
	transformer *nlp.TfidfTransformer
	reducer     *nlp.TruncatedSVD
	docVecs     *mat.Dense // one column per document, corpus order
	ids         []report.ID
	norm        *textnorm.Normalizer
	k           int
	logger      *zap.Logger
}

// NewLSIBackend fits the dictionary, TF-IDF weighting, and factorization over
// the corpus and retains every document's topic vector.
func NewLSIBackend(c corpus.Corpus, norm *textnorm.Normalizer, opts LSIOptions, logger *zap.Logger) (*LSIBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(c) == 0 {
		return nil, ErrEmptyCorpus
	}
	if opts.Topics <= 0 {
		opts.Topics = 300
	}
	if opts.K <= 0 {
		opts.K = DefaultTopK
	}

	vectoriser := nlp.NewCountVectoriser()
	transformer := nlp.NewTfidfTransformer()

	counts, err := vectoriser.FitTransform(c.JoinedDocs()...)
	if err != nil {
		return nil, fmt.Errorf("fitting count vectoriser: %w", err)
	}
	weighted, err := transformer.FitTransform(counts)
	if err != nil {
		return nil, fmt.Errorf("fitting tfidf transformer: %w", err)
	}

	// The factorization rank cannot exceed either matrix dimension.
	terms, docs := weighted.Dims()
	topics := opts.Topics
	if topics > terms {
		topics = terms
	}
	if topics > docs {
		topics = docs
	}

	reducer := nlp.NewTruncatedSVD(topics)
	reduced, err := reducer.FitTransform(weighted)
	if err != nil {
		return nil, fmt.Errorf("fitting truncated svd: %w", err)
	}

	logger.Debug("lsi backend ready",
		zap.Int("documents", docs),
		zap.Int("terms", terms),
		zap.Int("topics", topics),
		zap.Int("k", opts.K),
	)
	return &LSIBackend{
		vectoriser:  vectoriser,
		transformer: transformer,
		reducer:     reducer,
		docVecs:     mat.DenseCopyOf(reduced),
		ids:         c.IDs(),
		norm:        norm,
		k:           opts.K,
		logger:      logger,
	}, nil
}

// SimilarBugs projects the query through the frozen pipeline and returns the
// k highest-cosine documents, ties broken by corpus insertion order.
func (b *LSIBackend) SimilarBugs(ctx context.Context, query report.Report) ([]report.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	joined := b.norm.NormalizeJoined(query.Text())
	counts, err := b.vectoriser.Transform(joined)
	if err != nil {
		return nil, fmt.Errorf("vectorizing query: %w", err)
	}
	weighted, err := b.transformer.Transform(counts)
	if err != nil {
		return nil, fmt.Errorf("weighting query: %w", err)
	}
	reduced, err := b.reducer.Transform(weighted)
	if err != nil {
		return nil, fmt.Errorf("projecting query: %w", err)
	}

	queryVec := mat.NewVecDense(b.docVecs.RawMatrix().Rows, mat.Col(nil, 0, reduced))
	if mat.Norm(queryVec, 2) == 0 {
		b.logger.Debug("query has no indexed terms", zap.Int("report", query.ID))
		return []report.ID{}, nil
	}

	type scored struct {
		idx int
		sim float64
	}
	scores := make([]scored, len(b.ids))
	for i := range b.ids {
		scores[i] = scored{
			idx: i,
			sim: pairwise.CosineSimilarity(queryVec, b.docVecs.ColView(i)),
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].sim > scores[j].sim
	})

	n := b.k
	if n > len(scores) {
		n = len(scores)
	}
	ids := make([]report.ID, 0, n)
	for _, s := range scores[:n] {
		ids = append(ids, b.ids[s.idx])
	}
	return excludeSelf(ids, query.ID, b.k), nil
}
