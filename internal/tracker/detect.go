// Package tracker detects newly published incidents on a feed and runs the
// live polling loop.
package tracker

import (
	"github.com/statuswatch/statuswatch/internal/feed"
	"github.com/statuswatch/statuswatch/internal/incident"
)

// SeenSet is the grow-only set of identifiers a tracker has observed.
// Identifiers are never evicted.
type SeenSet struct {
	ids map[string]struct{}
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Add records id and reports whether it was not already present.
func (s *SeenSet) Add(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id has been recorded.
func (s *SeenSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of recorded identifiers.
func (s *SeenSet) Len() int {
	return len(s.ids)
}

// Detect returns the entries of a feed that seen has not recorded yet, oldest
// first, and records them. entries are in feed order, newest first.
//
// An entry without any identifier cannot be matched against earlier polls and
// is reported every time it appears.
func Detect(entries []feed.Entry, seen *SeenSet) []feed.Entry {
	var fresh []feed.Entry
	for i := len(entries) - 1; i >= 0; i-- {
		id, ok := incident.ResolveIdentifier(entries[i])
		if ok && !seen.Add(id) {
			continue
		}
		fresh = append(fresh, entries[i])
	}
	return fresh
}

// record adds every identifier in entries to seen without reporting any.
func record(entries []feed.Entry, seen *SeenSet) {
	for i := range entries {
		if id, ok := incident.ResolveIdentifier(entries[i]); ok {
			seen.Add(id)
		}
	}
}
