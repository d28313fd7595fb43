package conflict

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PartySet is the set of tracked party names. Lookups ignore case and
// Unicode normalization differences, so "Ældre" and "ældre" match.
type PartySet struct {
	names map[string]string // folded -> name as configured
}

// NewPartySet builds a set from names. Blank names are dropped.
func NewPartySet(names ...string) PartySet {
	s := PartySet{names: make(map[string]string, len(names))}
	for _, n := range names {
		key := FoldName(n)
		if key == "" {
			continue
		}
		if _, ok := s.names[key]; !ok {
			s.names[key] = strings.TrimSpace(n)
		}
	}
	return s
}

// FoldName returns the comparison key for a party name: trimmed, NFC
// normalized and case folded.
func FoldName(name string) string {
	// cases.Caser is stateful; build one per call.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// Len returns the number of distinct names.
func (s PartySet) Len() int {
	return len(s.names)
}

// Contains reports whether name is tracked.
func (s PartySet) Contains(name string) bool {
	if len(s.names) == 0 {
		return false
	}
	_, ok := s.names[FoldName(name)]
	return ok
}

// Involves reports whether either side of r is tracked.
func (s PartySet) Involves(r Record) bool {
	return s.Contains(r.Side1.Name) || s.Contains(r.Side2.Name)
}

// Names returns the configured names in sorted order.
func (s PartySet) Names() []string {
	out := make([]string, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
