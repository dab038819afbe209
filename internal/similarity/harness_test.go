package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/dupfinder/internal/groundtruth"
	"github.com/fyrsmithlabs/dupfinder/internal/logging"
	"github.com/fyrsmithlabs/dupfinder/internal/report"
)

// stubBackend returns canned rankings per report id.
type stubBackend struct {
	results map[report.ID][]report.ID
}

func (s stubBackend) SimilarBugs(_ context.Context, query report.Report) ([]report.ID, error) {
	return s.results[query.ID], nil
}

func truthIndex(pairs map[report.ID][]report.ID) groundtruth.Index {
	index := make(groundtruth.Index)
	for a, dupes := range pairs {
		set := make(groundtruth.IDSet, len(dupes))
		for _, b := range dupes {
			set[b] = struct{}{}
		}
		index[a] = set
	}
	return index
}

func TestEvaluate(t *testing.T) {
	reports := []report.Report{{ID: 1}, {ID: 2}, {ID: 3}}
	index := truthIndex(map[report.ID][]report.ID{
		1: {2},
		2: {1},
	})
	backend := stubBackend{results: map[report.ID][]report.ID{
		1: {2, 3}, // hit + miss
		2: {3, 1}, // miss + hit
	}}

	m, err := Evaluate(context.Background(), backend, reports, index, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Queries, "report 3 has no duplicates and is skipped")
	assert.Equal(t, 2, m.RelevantTotal)
	assert.Equal(t, 4, m.ReturnedTotal)
	assert.InDelta(t, 100, m.RecallPct, 1e-9)
	assert.InDelta(t, 50, m.PrecisionPct, 1e-9)
}

func TestEvaluatePerfectBackend(t *testing.T) {
	reports := []report.Report{{ID: 1}, {ID: 2}}
	index := truthIndex(map[report.ID][]report.ID{
		1: {2},
		2: {1},
	})
	backend := stubBackend{results: map[report.ID][]report.ID{
		1: {2},
		2: {1},
	}}

	m, err := Evaluate(context.Background(), backend, reports, index, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100, m.RecallPct, 1e-9)
	assert.InDelta(t, 100, m.PrecisionPct, 1e-9)
}

func TestEvaluateMetricsStayInBounds(t *testing.T) {
	reports := []report.Report{{ID: 1}, {ID: 2}, {ID: 3}}
	index := truthIndex(map[report.ID][]report.ID{
		1: {2, 3},
		2: {1},
		3: {1},
	})
	backend := stubBackend{results: map[report.ID][]report.ID{
		1: {9, 8, 7},
		2: {1, 9},
		3: {9},
	}}

	m, err := Evaluate(context.Background(), backend, reports, index, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.RecallPct, 0.0)
	assert.LessOrEqual(t, m.RecallPct, 100.0)
	assert.GreaterOrEqual(t, m.PrecisionPct, 0.0)
	assert.LessOrEqual(t, m.PrecisionPct, 100.0)
}

func TestEvaluateNoQueries(t *testing.T) {
	reports := []report.Report{{ID: 1}, {ID: 2}}
	backend := stubBackend{}

	_, err := Evaluate(context.Background(), backend, reports, groundtruth.Index{}, nil)
	assert.ErrorIs(t, err, ErrNoQueries)
}

func TestEvaluateNoResults(t *testing.T) {
	reports := []report.Report{{ID: 1}, {ID: 2}}
	index := truthIndex(map[report.ID][]report.ID{
		1: {2},
		2: {1},
	})
	backend := stubBackend{results: map[report.ID][]report.ID{}}

	logger := logging.NewTestLogger()
	_, err := Evaluate(context.Background(), backend, reports, index, logger.Logger)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestMetricsString(t *testing.T) {
	m := Metrics{RecallPct: 75, PrecisionPct: 12.5}
	assert.Equal(t, "Recall: 75%\nPrecision: 12.5%", m.String())
}
