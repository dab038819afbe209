// Package report defines the issue-report record and the store boundary.
//
// Reports come from an external tracker dump and are immutable once fetched.
// The store is an interface so evaluation runs can be fed from files, fixtures,
// or a live tracker client without touching the similarity code.
package report

import (
	"context"
	"strings"
)

// ID uniquely identifies a report in the tracker.
type ID = int

// Comment is a single free-text comment on a report.
type Comment struct {
	Text string `json:"text"`
}

// Report is one tracked issue with the metadata the similarity pipeline needs.
type Report struct {
	ID         ID        `json:"id"`
	Summary    string    `json:"summary"`
	Comments   []Comment `json:"comments"`
	Duplicates []ID      `json:"duplicates"`
	DupeOf     *ID       `json:"dupe_of"`
	Creator    string    `json:"creator"`
	Keywords   []string  `json:"keywords"`
}

// Text returns the free text used for similarity: the summary followed by the
// first comment's text. Reports without comments contribute the summary alone.
func (r Report) Text() string {
	if len(r.Comments) == 0 {
		return r.Summary
	}
	return r.Summary + " " + r.Comments[0].Text
}

// HasKeyword reports whether the report carries the given keyword tag.
func (r Report) HasKeyword(keyword string) bool {
	for _, k := range r.Keywords {
		if strings.EqualFold(k, keyword) {
			return true
		}
	}
	return false
}

// Store provides access to the historical report corpus.
type Store interface {
	// Reports returns every report in the corpus, in stable order.
	Reports(ctx context.Context) ([]Report, error)
}
