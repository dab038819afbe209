// Package similarity implements the candidate-ranking backends and the
// evaluation harness that scores them against duplicate ground truth.
//
// Every backend trains its index once at construction and is read-only
// afterward; SimilarBugs may be called concurrently because each query builds
// its own working state.
package similarity

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/dupfinder/internal/report"
)

// DefaultTopK is the ranked-result length shared by all backends.
const DefaultTopK = 10

// ErrEmptyCorpus is returned when a backend is constructed over no documents.
var ErrEmptyCorpus = errors.New("corpus is empty")

// Backend ranks the historical corpus against a query report.
type Backend interface {
	// SimilarBugs returns candidate duplicate ids ordered best match first.
	// The result never contains the query's own id and is at most the
	// backend's configured result length.
	SimilarBugs(ctx context.Context, query report.Report) ([]report.ID, error)
}

// excludeSelf removes the query's own id from a ranked id list, preserving
// order, and trims to limit.
func excludeSelf(ids []report.ID, self report.ID, limit int) []report.ID {
	out := make([]report.ID, 0, len(ids))
	for _, id := range ids {
		if id == self {
			continue
		}
		out = append(out, id)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
