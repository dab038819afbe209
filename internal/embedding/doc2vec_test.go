package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc2vecTestConfig() Doc2VecConfig {
	return Doc2VecConfig{Dim: 16, MinCount: 1, Epochs: 40, Seed: 42}
}

func TestTrainDoc2Vec(t *testing.T) {
	docs := [][]string{
		{"crash", "startup", "pointer"},
		{"pointer", "crash", "startup"},
		{"render", "unicode", "glyph"},
	}
	tags := []string{"1", "2", "3"}

	model, err := TrainDoc2Vec(docs, tags, doc2vecTestConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, 16, model.Dim())
	assert.Equal(t, tags, model.Tags())
}

func TestTrainDoc2VecErrors(t *testing.T) {
	t.Run("tag count mismatch", func(t *testing.T) {
		_, err := TrainDoc2Vec([][]string{{"a2"}}, []string{"1", "2"}, doc2vecTestConfig(), nil)
		assert.Error(t, err)
	})

	t.Run("no documents", func(t *testing.T) {
		_, err := TrainDoc2Vec(nil, nil, doc2vecTestConfig(), nil)
		assert.Error(t, err)
	})

	t.Run("min count excludes everything", func(t *testing.T) {
		cfg := doc2vecTestConfig()
		cfg.MinCount = 100
		_, err := TrainDoc2Vec([][]string{{"rare", "words"}}, []string{"1"}, cfg, nil)
		assert.ErrorIs(t, err, ErrEmptyVocabulary)
	})
}

func TestInferDeterministic(t *testing.T) {
	docs := [][]string{
		{"crash", "startup", "pointer"},
		{"render", "unicode", "glyph"},
	}
	model, err := TrainDoc2Vec(docs, []string{"1", "2"}, doc2vecTestConfig(), nil)
	require.NoError(t, err)

	a := model.Infer([]string{"crash", "startup"}, 0)
	b := model.Infer([]string{"crash", "startup"}, 0)
	assert.Equal(t, a, b, "inference must not depend on shared mutable state")
	assert.Len(t, a, model.Dim())
}

func TestInferToleratesUnknownTokens(t *testing.T) {
	model, err := TrainDoc2Vec([][]string{{"crash", "startup"}}, []string{"1"}, doc2vecTestConfig(), nil)
	require.NoError(t, err)

	vec := model.Infer([]string{"totally", "unknown"}, 0)
	assert.Len(t, vec, model.Dim())
}

func TestMostSimilar(t *testing.T) {
	docs := [][]string{
		{"crash", "startup", "pointer"},
		{"pointer", "crash", "startup"},
		{"render", "unicode", "glyph"},
	}
	model, err := TrainDoc2Vec(docs, []string{"1", "2", "3"}, doc2vecTestConfig(), nil)
	require.NoError(t, err)

	vec := model.Infer(docs[0], 0)

	all := model.MostSimilar(vec, 10)
	require.Len(t, all, 3, "topn larger than corpus returns every document")
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Similarity, all[i].Similarity, "results not sorted")
	}

	two := model.MostSimilar(vec, 2)
	assert.Len(t, two, 2)
	assert.Equal(t, all[:2], two)
}
