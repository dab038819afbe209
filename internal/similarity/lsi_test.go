package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/dupfinder/internal/corpus"
	"github.com/fyrsmithlabs/dupfinder/internal/report"
	"github.com/fyrsmithlabs/dupfinder/internal/textnorm"
)

func TestLSIFindsDuplicateFirst(t *testing.T) {
	norm := textnorm.New()
	reports := similarityFixture()
	c := corpus.Build(reports, norm.Normalize)

	// 300 topics against 4 documents exercises the rank cap.
	backend, err := NewLSIBackend(c, norm, LSIOptions{Topics: 300}, nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		query report.Report
		first report.ID
	}{
		{name: "crash pair", query: reports[0], first: 2},
		{name: "rendering pair", query: reports[2], first: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := backend.SimilarBugs(context.Background(), tt.query)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.first, got[0])
			assert.NotContains(t, got, tt.query.ID)
		})
	}
}

func TestLSIQueryOutsideVocabulary(t *testing.T) {
	norm := textnorm.New()
	reports := similarityFixture()
	c := corpus.Build(reports, norm.Normalize)

	backend, err := NewLSIBackend(c, norm, LSIOptions{Topics: 2}, nil)
	require.NoError(t, err)

	got, err := backend.SimilarBugs(context.Background(), report.Report{
		ID:      42,
		Summary: "zzzz qqqq wwww",
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLSIEmptyCorpus(t *testing.T) {
	_, err := NewLSIBackend(nil, textnorm.New(), LSIOptions{}, nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestLSIRespectsK(t *testing.T) {
	norm := textnorm.New()
	reports := similarityFixture()
	c := corpus.Build(reports, norm.Normalize)

	backend, err := NewLSIBackend(c, norm, LSIOptions{Topics: 2, K: 2}, nil)
	require.NoError(t, err)

	got, err := backend.SimilarBugs(context.Background(), reports[0])
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 2)
}
