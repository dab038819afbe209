// Package groundtruth derives the known-duplicate relation from historical
// report records.
//
// The relation is symmetric: if A lists B as a duplicate, both directions are
// indexed. Reports from ignored creators or still awaiting triage are excluded
// entirely, as are cross-references pointing at them.
package groundtruth

import "github.com/fyrsmithlabs/dupfinder/internal/report"

// IDSet is a set of report identifiers.
type IDSet map[report.ID]struct{}

// Contains reports set membership.
func (s IDSet) Contains(id report.ID) bool {
	_, ok := s[id]
	return ok
}

// Index maps a report id to the set of ids known to duplicate it.
// Reports with no known duplicates have no entry; callers must treat a
// missing entry and an empty set identically.
type Index map[report.ID]IDSet

// Duplicates returns the known duplicates of id, or nil when there are none.
func (ix Index) Duplicates(id report.ID) IDSet {
	return ix[id]
}

// AreDuplicates reports whether a and b are known duplicates of each other.
func (ix Index) AreDuplicates(a, b report.ID) bool {
	return ix[a].Contains(b)
}

// Options controls which reports are eligible for ground-truth construction.
type Options struct {
	// IgnoredReporters are creator identities whose reports are excluded.
	IgnoredReporters map[string]struct{}

	// TriageKeyword marks reports whose duplicate state is not yet settled;
	// tagged reports are excluded.
	TriageKeyword string
}

// Build constructs the duplicate index over the given reports.
//
// Two passes: first the eligible-id set (creator not ignored, triage keyword
// absent), then symmetric insertion of each report's duplicate references and
// its dupe-of backreference, restricted to eligible ids.
func Build(reports []report.Report, opts Options) Index {
	eligible := make(IDSet, len(reports))
	for _, r := range reports {
		if _, ignored := opts.IgnoredReporters[r.Creator]; ignored {
			continue
		}
		if opts.TriageKeyword != "" && r.HasKeyword(opts.TriageKeyword) {
			continue
		}
		eligible[r.ID] = struct{}{}
	}

	index := make(Index)
	add := func(a, b report.ID) {
		set, ok := index[a]
		if !ok {
			set = make(IDSet)
			index[a] = set
		}
		set[b] = struct{}{}
	}

	for _, r := range reports {
		if !eligible.Contains(r.ID) {
			continue
		}
		var dupes []report.ID
		for _, d := range r.Duplicates {
			if eligible.Contains(d) {
				dupes = append(dupes, d)
			}
		}
		if r.DupeOf != nil && eligible.Contains(*r.DupeOf) {
			dupes = append(dupes, *r.DupeOf)
		}
		for _, d := range dupes {
			add(r.ID, d)
			add(d, r.ID)
		}
	}
	return index
}
