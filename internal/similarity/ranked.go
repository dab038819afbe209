package similarity

import (
	"sort"

	"github.com/fyrsmithlabs/dupfinder/internal/report"
)

// ranked is one confirmed (id, distance) pair.
type ranked struct {
	id   report.ID
	dist float64
}

// rankedList is a fixed-capacity list of (id, distance) pairs kept sorted by
// ascending distance. Inserting into a full list evicts the worst entry when
// the new distance improves on it. Ids and distances live in one sequence so
// they can never desynchronize.
type rankedList struct {
	capacity int
	entries  []ranked
}

func newRankedList(capacity int) *rankedList {
	return &rankedList{capacity: capacity, entries: make([]ranked, 0, capacity)}
}

// Insert places the pair at its sorted position. Equal distances keep
// insertion order. Returns false when the list is full and the distance does
// not improve on the current worst.
func (l *rankedList) Insert(id report.ID, dist float64) bool {
	if l.Full() && dist >= l.Worst() {
		return false
	}
	pos := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].dist > dist
	})
	l.entries = append(l.entries, ranked{})
	copy(l.entries[pos+1:], l.entries[pos:])
	l.entries[pos] = ranked{id: id, dist: dist}
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return true
}

// Full reports whether the list holds capacity entries.
func (l *rankedList) Full() bool {
	return len(l.entries) >= l.capacity
}

// Worst returns the largest confirmed distance. Only valid on a non-empty list.
func (l *rankedList) Worst() float64 {
	return l.entries[len(l.entries)-1].dist
}

// IDs returns the ids in ascending-distance order.
func (l *rankedList) IDs() []report.ID {
	ids := make([]report.ID, len(l.entries))
	for i, e := range l.entries {
		ids[i] = e.id
	}
	return ids
}
