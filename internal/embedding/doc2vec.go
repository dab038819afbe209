package embedding

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Doc2VecConfig holds paragraph-vector training parameters.
type Doc2VecConfig struct {
	Dim      int
	MinCount int
	Epochs   int
	// Negative is the number of noise words sampled per target word.
	Negative int
	// LearningRate is the starting learning rate, decayed linearly per epoch.
	LearningRate float64
	Seed         int64
}

// applyDefaults fills unset training knobs.
func (c *Doc2VecConfig) applyDefaults() {
	if c.Negative == 0 {
		c.Negative = 5
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.025
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

// DocMatch is one ranked document from a similarity query.
type DocMatch struct {
	Tag        string
	Similarity float64
}

// DocModel holds trained paragraph vectors tagged by document identifier,
// using the distributed bag-of-words scheme: each document vector is trained
// to predict the words it contains against negative-sampled noise words.
type DocModel struct {
	cfg      Doc2VecConfig
	tags     []string
	docVecs  *mat.Dense // one row per document
	out      *mat.Dense // output word weights, one row per vocabulary word
	vocab    map[string]int
	words    []string
	noiseCDF []float64 // cumulative unigram^0.75 distribution for sampling
	rng      *rand.Rand
}

// TrainDoc2Vec fits paragraph vectors for the tagged documents and trains to
// completion before returning; the model is read-only afterward.
func TrainDoc2Vec(docs [][]string, tags []string, cfg Doc2VecConfig, logger *zap.Logger) (*DocModel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(docs) != len(tags) {
		return nil, fmt.Errorf("got %d documents but %d tags", len(docs), len(tags))
	}
	if len(docs) == 0 {
		return nil, errors.New("no documents to train on")
	}
	cfg.applyDefaults()

	m := &DocModel{
		cfg:   cfg,
		tags:  append([]string(nil), tags...),
		vocab: make(map[string]int),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
	counts := m.buildVocab(docs, cfg.MinCount)
	if len(m.words) == 0 {
		return nil, ErrEmptyVocabulary
	}
	m.buildNoiseCDF(counts)

	m.docVecs = mat.NewDense(len(docs), cfg.Dim, nil)
	m.out = mat.NewDense(len(m.words), cfg.Dim, nil)
	for i := 0; i < len(docs); i++ {
		randomizeRow(m.docVecs.RawRowView(i), cfg.Dim, m.rng)
	}

	logger.Debug("training doc2vec",
		zap.Int("documents", len(docs)),
		zap.Int("vocabulary", len(m.words)),
		zap.Int("dim", cfg.Dim),
		zap.Int("epochs", cfg.Epochs),
	)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		lr := m.epochRate(epoch)
		for d, doc := range docs {
			m.trainDoc(m.docVecs.RawRowView(d), doc, lr, true, m.rng)
		}
	}
	logger.Debug("doc2vec training complete")
	return m, nil
}

// buildVocab counts tokens and assigns indexes to those meeting minCount.
func (m *DocModel) buildVocab(docs [][]string, minCount int) []int {
	raw := make(map[string]int)
	for _, doc := range docs {
		for _, t := range doc {
			raw[t]++
		}
	}
	// Deterministic vocabulary order regardless of map iteration.
	candidates := make([]string, 0, len(raw))
	for w, c := range raw {
		if c >= minCount {
			candidates = append(candidates, w)
		}
	}
	sort.Strings(candidates)

	counts := make([]int, 0, len(candidates))
	for _, w := range candidates {
		m.vocab[w] = len(m.words)
		m.words = append(m.words, w)
		counts = append(counts, raw[w])
	}
	return counts
}

// buildNoiseCDF prepares the unigram^0.75 cumulative distribution used for
// negative sampling.
func (m *DocModel) buildNoiseCDF(counts []int) {
	m.noiseCDF = make([]float64, len(counts))
	var total float64
	for i, c := range counts {
		total += math.Pow(float64(c), 0.75)
		m.noiseCDF[i] = total
	}
}

func (m *DocModel) sampleNoise(rng *rand.Rand) int {
	target := rng.Float64() * m.noiseCDF[len(m.noiseCDF)-1]
	return sort.SearchFloat64s(m.noiseCDF, target)
}

func randomizeRow(row []float64, dim int, rng *rand.Rand) {
	scale := 0.5 / float64(dim)
	for i := range row {
		row[i] = (rng.Float64() - 0.5) * 2 * scale
	}
}

func (m *DocModel) epochRate(epoch int) float64 {
	frac := float64(epoch) / float64(m.cfg.Epochs)
	lr := m.cfg.LearningRate * (1 - frac)
	if min := m.cfg.LearningRate * 0.01; lr < min {
		lr = min
	}
	return lr
}

// trainDoc runs one pass of negative-sampling updates for a document vector.
// When updateOut is false the output weights are frozen (inference mode).
func (m *DocModel) trainDoc(docVec []float64, doc []string, lr float64, updateOut bool, rng *rand.Rand) {
	grad := make([]float64, m.cfg.Dim)
	for _, token := range doc {
		w, ok := m.vocab[token]
		if !ok {
			continue
		}
		for i := range grad {
			grad[i] = 0
		}
		m.updatePair(docVec, grad, w, 1, lr, updateOut)
		for n := 0; n < m.cfg.Negative; n++ {
			noise := m.sampleNoise(rng)
			if noise == w {
				continue
			}
			m.updatePair(docVec, grad, noise, 0, lr, updateOut)
		}
		floats.Add(docVec, grad)
	}
}

// updatePair applies one (document, word, label) gradient step, accumulating
// the document-side gradient and optionally updating the word output row.
func (m *DocModel) updatePair(docVec, grad []float64, word int, label float64, lr float64, updateOut bool) {
	outRow := m.out.RawRowView(word)
	g := (label - sigmoid(floats.Dot(docVec, outRow))) * lr
	floats.AddScaled(grad, g, outRow)
	if updateOut {
		floats.AddScaled(outRow, g, docVec)
	}
}

func sigmoid(x float64) float64 {
	switch {
	case x > 6:
		return 1
	case x < -6:
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

// Dim returns the paragraph-vector dimensionality.
func (m *DocModel) Dim() int { return m.cfg.Dim }

// Tags returns the document tags in training order.
func (m *DocModel) Tags() []string { return m.tags }

// Infer trains a vector for an unseen document against the frozen word
// weights and returns it. Inference uses its own random source so the result
// is deterministic for a given model and token sequence, and concurrent
// callers never share mutable state.
func (m *DocModel) Infer(tokens []string, epochs int) []float64 {
	rng := rand.New(rand.NewSource(m.cfg.Seed))
	vec := make([]float64, m.cfg.Dim)
	randomizeRow(vec, m.cfg.Dim, rng)
	if epochs <= 0 {
		epochs = m.cfg.Epochs
	}
	for epoch := 0; epoch < epochs; epoch++ {
		m.trainDoc(vec, tokens, m.epochRate(epoch), false, rng)
	}
	return vec
}

// MostSimilar ranks the trained documents by cosine similarity to vec,
// best first, ties broken by training order.
func (m *DocModel) MostSimilar(vec []float64, topn int) []DocMatch {
	type scored struct {
		idx int
		sim float64
	}
	scores := make([]scored, len(m.tags))
	for i := range m.tags {
		scores[i] = scored{idx: i, sim: cosine(vec, m.docVecs.RawRowView(i))}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].sim > scores[j].sim
	})
	if topn > len(scores) {
		topn = len(scores)
	}
	matches := make([]DocMatch, 0, topn)
	for _, s := range scores[:topn] {
		matches = append(matches, DocMatch{Tag: m.tags[s.idx], Similarity: s.sim})
	}
	return matches
}

func cosine(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
