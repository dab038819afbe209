package corpus

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/dupfinder/internal/report"
)

func splitNormalize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func TestBuild(t *testing.T) {
	reports := []report.Report{
		{ID: 1, Summary: "Crash on startup", Comments: []report.Comment{{Text: "null pointer"}}},
		{ID: 2, Summary: "Rendering bug"},
	}
	c := Build(reports, splitNormalize)

	require.Len(t, c, 2)
	assert.Equal(t, 1, c[0].ID)
	assert.Equal(t, []string{"crash", "on", "startup", "null", "pointer"}, c[0].Tokens)
	assert.Equal(t, 2, c[1].ID)
	assert.Equal(t, []string{"rendering", "bug"}, c[1].Tokens)
}

func TestShuffledPreservesPairing(t *testing.T) {
	var reports []report.Report
	for i := 1; i <= 50; i++ {
		reports = append(reports, report.Report{ID: i, Summary: strings.Repeat("w", i%7+2)})
	}
	c := Build(reports, splitNormalize)

	byID := make(map[report.ID][]string, len(c))
	for _, e := range c {
		byID[e.ID] = e.Tokens
	}

	shuffled := c.Shuffled(rand.New(rand.NewSource(7)))
	require.Len(t, shuffled, len(c))
	for _, e := range shuffled {
		assert.Equal(t, byID[e.ID], e.Tokens, "entry %d lost its document", e.ID)
	}

	// The original corpus is untouched.
	for i, e := range c {
		assert.Equal(t, reports[i].ID, e.ID)
	}
}

func TestJoinedDocs(t *testing.T) {
	c := Corpus{
		{ID: 1, Tokens: []string{"crash", "startup"}},
		{ID: 2, Tokens: nil},
	}
	assert.Equal(t, "crash startup", c.Joined(0))
	assert.Equal(t, []string{"crash startup", ""}, c.JoinedDocs())
	assert.Equal(t, []report.ID{1, 2}, c.IDs())
}
