package similarity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/dupfinder/internal/groundtruth"
	"github.com/fyrsmithlabs/dupfinder/internal/report"
)

var (
	// ErrNoQueries is returned when no report has any known duplicate,
	// leaving recall undefined.
	ErrNoQueries = errors.New("no reports with known duplicates to query")
	// ErrNoResults is returned when the backend returned no candidates for
	// any query, leaving precision undefined.
	ErrNoResults = errors.New("backend returned no candidates for any query")
)

// Metrics holds the aggregate evaluation result for one backend.
type Metrics struct {
	// RecallPct is the percentage of known duplicates found, in [0, 100].
	RecallPct float64
	// PrecisionPct is the percentage of returned ids that are known
	// duplicates, in [0, 100].
	PrecisionPct float64
	// Queries is the number of reports queried.
	Queries int
	// RelevantTotal is the total number of known duplicates across queries.
	RelevantTotal int
	// ReturnedTotal is the total number of returned candidate ids.
	ReturnedTotal int
}

// String renders the metrics the way evaluation runs print them.
func (m Metrics) String() string {
	return fmt.Sprintf("Recall: %g%%\nPrecision: %g%%", m.RecallPct, m.PrecisionPct)
}

// Evaluate runs the backend over every report with at least one known
// duplicate and scores the rankings against the ground-truth index.
//
// Reports absent from ground truth are skipped, not counted as queries.
// Degenerate aggregations are explicit errors: ErrNoQueries when nothing was
// queried, ErrNoResults when no candidates were ever returned.
func Evaluate(ctx context.Context, backend Backend, reports []report.Report, index groundtruth.Index, logger *zap.Logger) (Metrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var m Metrics
	hitsRecall := 0
	hitsPrecision := 0

	for _, r := range reports {
		duplicates := index.Duplicates(r.ID)
		if len(duplicates) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Metrics{}, err
		}

		candidates, err := backend.SimilarBugs(ctx, r)
		if err != nil {
			return Metrics{}, fmt.Errorf("querying report %d: %w", r.ID, err)
		}
		m.Queries++

		returned := make(map[report.ID]struct{}, len(candidates))
		for _, id := range candidates {
			returned[id] = struct{}{}
		}
		for dup := range duplicates {
			m.RelevantTotal++
			if _, ok := returned[dup]; ok {
				hitsRecall++
			}
		}
		for _, id := range candidates {
			m.ReturnedTotal++
			if duplicates.Contains(id) {
				hitsPrecision++
			}
		}
	}

	if m.Queries == 0 || m.RelevantTotal == 0 {
		return Metrics{}, ErrNoQueries
	}
	if m.ReturnedTotal == 0 {
		return Metrics{}, ErrNoResults
	}

	m.RecallPct = float64(hitsRecall) / float64(m.RelevantTotal) * 100
	m.PrecisionPct = float64(hitsPrecision) / float64(m.ReturnedTotal) * 100

	logger.Info("evaluation complete",
		zap.Int("queries", m.Queries),
		zap.Float64("recall_pct", m.RecallPct),
		zap.Float64("precision_pct", m.PrecisionPct),
	)
	return m, nil
}
