package groundtruth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/dupfinder/internal/report"
)

func idPtr(id report.ID) *report.ID { return &id }

func buildOpts() Options {
	return Options{
		IgnoredReporters: map[string]struct{}{"autofiler@example.com": {}},
		TriageKeyword:    "dupeme",
	}
}

func TestBuildSymmetry(t *testing.T) {
	reports := []report.Report{
		{ID: 1, Creator: "alice", Duplicates: []report.ID{2, 3}},
		{ID: 2, Creator: "bob"},
		{ID: 3, Creator: "carol"},
		{ID: 4, Creator: "dave", DupeOf: idPtr(1)},
	}
	index := Build(reports, buildOpts())

	for a, dupes := range index {
		for b := range dupes {
			assert.True(t, index.AreDuplicates(b, a),
				"index[%d] contains %d but not vice versa", a, b)
		}
	}

	assert.True(t, index.AreDuplicates(1, 2))
	assert.True(t, index.AreDuplicates(2, 1))
	assert.True(t, index.AreDuplicates(1, 4))
	assert.True(t, index.AreDuplicates(4, 1))
}

func TestBuildEligibility(t *testing.T) {
	reports := []report.Report{
		{ID: 1, Creator: "alice", Duplicates: []report.ID{2, 3, 4}},
		{ID: 2, Creator: "autofiler@example.com"},
		{ID: 3, Creator: "bob", Keywords: []string{"dupeme"}},
		{ID: 4, Creator: "carol"},
		{ID: 5, Creator: "autofiler@example.com", Duplicates: []report.ID{1}},
	}
	index := Build(reports, buildOpts())

	// Ignored creators and triage-tagged reports never appear on either side.
	for _, excluded := range []report.ID{2, 3, 5} {
		assert.Nil(t, index.Duplicates(excluded), "excluded report %d has an entry", excluded)
		for a, dupes := range index {
			assert.False(t, dupes.Contains(excluded),
				"excluded report %d appears as a value of %d", excluded, a)
		}
	}

	require.NotNil(t, index.Duplicates(1))
	assert.True(t, index.AreDuplicates(1, 4))
}

func TestBuildNoDuplicatesMeansNoEntry(t *testing.T) {
	reports := []report.Report{
		{ID: 1, Creator: "alice"},
		{ID: 2, Creator: "bob"},
	}
	index := Build(reports, buildOpts())

	assert.Empty(t, index)
	assert.Nil(t, index.Duplicates(1))
	assert.False(t, index.AreDuplicates(1, 2))
}

func TestBuildDanglingReferencesDropped(t *testing.T) {
	// References to ids absent from the corpus are not eligible and must be
	// dropped, not indexed.
	reports := []report.Report{
		{ID: 1, Creator: "alice", Duplicates: []report.ID{99}},
	}
	index := Build(reports, buildOpts())
	assert.Empty(t, index)
}

func TestBuildDupeOfBackreference(t *testing.T) {
	reports := []report.Report{
		{ID: 1, Creator: "alice"},
		{ID: 2, Creator: "bob", DupeOf: idPtr(1)},
	}
	index := Build(reports, buildOpts())

	assert.True(t, index.AreDuplicates(1, 2))
	assert.True(t, index.AreDuplicates(2, 1))
}
