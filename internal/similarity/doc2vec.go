package similarity

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/dupfinder/internal/corpus"
	"github.com/fyrsmithlabs/dupfinder/internal/embedding"
	"github.com/fyrsmithlabs/dupfinder/internal/report"
	"github.com/fyrsmithlabs/dupfinder/internal/textnorm"
)

// Doc2VecOptions configures the paragraph-embedding backend.
type Doc2VecOptions struct {
	// Model holds the paragraph-vector training parameters.
	Model embedding.Doc2VecConfig
	// TopK is the result length per query.
	TopK int
}

// Doc2VecBackend ranks candidates by cosine similarity between the query's
// inferred paragraph vector and the trained per-document vectors. Documents
// are tagged with their report id; training runs to completion at
// construction, before the first query.
type Doc2VecBackend struct {
	model  *embedding.DocModel
	norm   *textnorm.Normalizer
	topK   int
	logger *zap.Logger
}

// NewDoc2VecBackend shuffles the corpus, tags every document with its report
// id, and fits the paragraph-vector model.
func NewDoc2VecBackend(c corpus.Corpus, norm *textnorm.Normalizer, opts Doc2VecOptions, logger *zap.Logger) (*Doc2VecBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(c) == 0 {
		return nil, ErrEmptyCorpus
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Model.Seed == 0 {
		opts.Model.Seed = 1
	}

	shuffled := c.Shuffled(rand.New(rand.NewSource(opts.Model.Seed)))
	docs := make([][]string, len(shuffled))
	tags := make([]string, len(shuffled))
	for i := range shuffled {
		docs[i] = shuffled[i].Tokens
		tags[i] = strconv.Itoa(shuffled[i].ID)
	}

	model, err := embedding.TrainDoc2Vec(docs, tags, opts.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("training paragraph vectors: %w", err)
	}
	return &Doc2VecBackend{
		model:  model,
		norm:   norm,
		topK:   opts.TopK,
		logger: logger,
	}, nil
}

// SimilarBugs infers a paragraph vector for the query text and returns the
// ids of the nearest trained documents, excluding the query's own id.
func (b *Doc2VecBackend) SimilarBugs(ctx context.Context, query report.Report) ([]report.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := b.norm.Normalize(query.Text())
	vector := b.model.Infer(tokens, 0)

	// One extra candidate so dropping the query itself still yields topK.
	matches := b.model.MostSimilar(vector, b.topK+1)
	ids := make([]report.ID, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m.Tag)
		if err != nil {
			return nil, fmt.Errorf("parsing candidate tag %q: %w", m.Tag, err)
		}
		ids = append(ids, id)
	}
	return excludeSelf(ids, query.ID, b.topK), nil
}
