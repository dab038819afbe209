package similarity

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/james-bowman/nlp"
	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/fyrsmithlabs/dupfinder/internal/corpus"
	"github.com/fyrsmithlabs/dupfinder/internal/report"
	"github.com/fyrsmithlabs/dupfinder/internal/textnorm"
)

// NeighborsOptions configures the TF-IDF nearest-neighbor backend.
type NeighborsOptions struct {
	// K is the neighbor count retrieved per query.
	K int
}

// NeighborsBackend ranks candidates by cosine similarity between TF-IDF
// vectors, indexed in an embedded chromem collection.
type NeighborsBackend struct {
	vectoriser  *nlp.CountVectoriser
	transformer *nlp.TfidfTransformer
	collection  *chromem.Collection
	norm        *textnorm.Normalizer
	k           int
	logger      *zap.Logger
}

// NewNeighborsBackend fits the TF-IDF space over the joined corpus documents
// and indexes every document vector.
func NewNeighborsBackend(ctx context.Context, c corpus.Corpus, norm *textnorm.Normalizer, opts NeighborsOptions, logger *zap.Logger) (*NeighborsBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(c) == 0 {
		return nil, ErrEmptyCorpus
	}
	if opts.K <= 0 {
		opts.K = DefaultTopK
	}

	vectoriser := nlp.NewCountVectoriser()
	transformer := nlp.NewTfidfTransformer()

	docs := c.JoinedDocs()
	counts, err := vectoriser.FitTransform(docs...)
	if err != nil {
		return nil, fmt.Errorf("fitting count vectoriser: %w", err)
	}
	weighted, err := transformer.FitTransform(counts)
	if err != nil {
		return nil, fmt.Errorf("fitting tfidf transformer: %w", err)
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("reports", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating vector collection: %w", err)
	}

	chromemDocs := make([]chromem.Document, 0, len(c))
	skipped := 0
	for i := range c {
		embedded, ok := columnToFloat32(weighted, i)
		if !ok {
			// A document whose every token was filtered vectorizes to zero
			// and can never match a query.
			skipped++
			continue
		}
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:        strconv.Itoa(c[i].ID),
			Content:   docs[i],
			Embedding: embedded,
		})
	}
	if len(chromemDocs) == 0 {
		return nil, ErrEmptyCorpus
	}
	if err := collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("indexing document vectors: %w", err)
	}

	logger.Debug("neighbors backend ready",
		zap.Int("documents", len(chromemDocs)),
		zap.Int("zero_vector_documents", skipped),
		zap.Int("k", opts.K),
	)
	return &NeighborsBackend{
		vectoriser:  vectoriser,
		transformer: transformer,
		collection:  collection,
		norm:        norm,
		k:           opts.K,
		logger:      logger,
	}, nil
}

// SimilarBugs projects the query into the fitted TF-IDF space and returns the
// ids of the k nearest documents, excluding the query's own id.
func (b *NeighborsBackend) SimilarBugs(ctx context.Context, query report.Report) ([]report.ID, error) {
	joined := b.norm.NormalizeJoined(query.Text())

	counts, err := b.vectoriser.Transform(joined)
	if err != nil {
		return nil, fmt.Errorf("vectorizing query: %w", err)
	}
	weighted, err := b.transformer.Transform(counts)
	if err != nil {
		return nil, fmt.Errorf("weighting query: %w", err)
	}
	embedded, ok := columnToFloat32(weighted, 0)
	if !ok {
		b.logger.Debug("query has no indexed terms", zap.Int("report", query.ID))
		return []report.ID{}, nil
	}

	n := b.k
	if count := b.collection.Count(); n > count {
		n = count
	}
	results, err := b.collection.QueryEmbedding(ctx, embedded, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying vector collection: %w", err)
	}

	ids := make([]report.ID, 0, len(results))
	for _, r := range results {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing candidate id %q: %w", r.ID, err)
		}
		ids = append(ids, id)
	}
	return excludeSelf(ids, query.ID, b.k), nil
}

// columnToFloat32 extracts column j of m as float32 values, reporting false
// for an all-zero column.
func columnToFloat32(m mat.Matrix, j int) ([]float32, bool) {
	col := mat.Col(nil, j, m)
	out := make([]float32, len(col))
	nonzero := false
	for i, v := range col {
		out[i] = float32(v)
		if v != 0 {
			nonzero = true
		}
	}
	return out, nonzero
}
