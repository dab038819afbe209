// Package embedding provides the trained embedding models used by the
// similarity backends: a word2vec word model (trained via wego) and a
// paragraph-vector document model.
package embedding

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ynqa/wego/pkg/model/modelutil/vector"
	"github.com/ynqa/wego/pkg/model/word2vec"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyVocabulary is returned when training produces no vocabulary, e.g.
// when every token falls under the minimum frequency threshold.
var ErrEmptyVocabulary = errors.New("embedding vocabulary is empty")

// Word2VecConfig holds word2vec training parameters.
type Word2VecConfig struct {
	Dim      int
	MinCount int
	Window   int
	Epochs   int
}

// WordModel holds unit-normalized word vectors with a frozen vocabulary.
type WordModel struct {
	words []string
	index map[string]int
	vecs  *mat.Dense
	dim   int
}

// NewWordModel builds a model from pre-trained vectors. Vectors are copied
// and unit-normalized; every vector must have the same length.
func NewWordModel(words []string, vectors [][]float64) (*WordModel, error) {
	if len(words) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if len(words) != len(vectors) {
		return nil, fmt.Errorf("got %d words but %d vectors", len(words), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("zero-dimensional word vectors")
	}

	vecs := mat.NewDense(len(words), dim, nil)
	index := make(map[string]int, len(words))
	for i, w := range words {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("vector for %q has dimension %d, want %d", w, len(vectors[i]), dim)
		}
		row := make([]float64, dim)
		copy(row, vectors[i])
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		vecs.SetRow(i, row)
		index[w] = i
	}
	return &WordModel{words: append([]string(nil), words...), index: index, vecs: vecs, dim: dim}, nil
}

// TrainWord2Vec trains a word2vec model over the token sequences and returns
// the resulting unit-normalized word vectors. Words occurring fewer than
// MinCount times are excluded from the vocabulary.
func TrainWord2Vec(docs [][]string, cfg Word2VecConfig, logger *zap.Logger) (*WordModel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var corpus bytes.Buffer
	for _, doc := range docs {
		corpus.WriteString(strings.Join(doc, " "))
		corpus.WriteByte('\n')
	}

	model, err := word2vec.New(
		word2vec.Dim(cfg.Dim),
		word2vec.Window(cfg.Window),
		word2vec.MinCount(cfg.MinCount),
		word2vec.Iter(cfg.Epochs),
		word2vec.Model(word2vec.Cbow),
		word2vec.Optimizer(word2vec.NegativeSampling),
		word2vec.NegativeSampleSize(5),
	)
	if err != nil {
		return nil, fmt.Errorf("creating word2vec model: %w", err)
	}

	logger.Debug("training word2vec",
		zap.Int("documents", len(docs)),
		zap.Int("dim", cfg.Dim),
		zap.Int("min_count", cfg.MinCount),
	)
	if err := model.Train(bytes.NewReader(corpus.Bytes())); err != nil {
		return nil, fmt.Errorf("training word2vec model: %w", err)
	}

	var saved bytes.Buffer
	if err := model.Save(&saved, vector.Agg); err != nil {
		return nil, fmt.Errorf("exporting word vectors: %w", err)
	}

	words, vectors, err := parseWordVectors(&saved, cfg.Dim)
	if err != nil {
		return nil, err
	}
	logger.Debug("word2vec training complete", zap.Int("vocabulary", len(words)))
	return NewWordModel(words, vectors)
}

// parseWordVectors reads the word2vec text format: one word per line followed
// by its vector components. Lines that do not carry exactly dim components
// (such as a size header) are skipped.
func parseWordVectors(r *bytes.Buffer, dim int) ([]string, [][]float64, error) {
	var (
		words   []string
		vectors [][]float64
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != dim+1 {
			continue
		}
		vec := make([]float64, dim)
		ok := true
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				ok = false
				break
			}
			vec[i] = v
		}
		if !ok {
			continue
		}
		words = append(words, fields[0])
		vectors = append(vectors, vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading word vectors: %w", err)
	}
	if len(words) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}
	return words, vectors, nil
}

// Len returns the vocabulary size.
func (m *WordModel) Len() int { return len(m.words) }

// Dim returns the vector dimensionality.
func (m *WordModel) Dim() int { return m.dim }

// Index returns the vocabulary index of word.
func (m *WordModel) Index(word string) (int, bool) {
	i, ok := m.index[word]
	return i, ok
}

// Word returns the word at vocabulary index i.
func (m *WordModel) Word(i int) string { return m.words[i] }

// Vector returns the unit-normalized vector at vocabulary index i.
func (m *WordModel) Vector(i int) []float64 {
	return m.vecs.RawRowView(i)
}

// Vectors returns the full vocabulary-by-dim matrix of unit vectors.
// The returned matrix is shared state and must not be mutated.
func (m *WordModel) Vectors() *mat.Dense { return m.vecs }

// InVocab filters tokens to those present in the vocabulary, returning their
// vocabulary indexes in token order (repeats preserved).
func (m *WordModel) InVocab(tokens []string) []int {
	var idx []int
	for _, t := range tokens {
		if i, ok := m.index[t]; ok {
			idx = append(idx, i)
		}
	}
	return idx
}
