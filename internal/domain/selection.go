package domain

import (
	"sort"
	"strings"
)

// MethodSeparator separates the class and method in a content identifier.
const MethodSeparator = "#"

// Wildcard stands for every method of a class in a method set.
const Wildcard = "*"

// SelectionSet is a set of content identifiers, either "FQCN" or
// "FQCN#method". A bare class selects all of its methods.
type SelectionSet map[string]struct{}

// NewSelectionSet builds a set from identifiers, ignoring blank entries.
func NewSelectionSet(ids ...string) SelectionSet {
	s := make(SelectionSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts an identifier.
func (s SelectionSet) Add(id string) {
	if id = strings.TrimSpace(id); id != "" {
		s[id] = struct{}{}
	}
}

// Contains reports whether the identifier is in the set.
func (s SelectionSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the identifiers in lexical order.
func (s SelectionSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ByClass groups the selection into class -> method set. A bare class maps
// to a set holding Wildcard.
func (s SelectionSet) ByClass() map[string]map[string]bool {
	index := make(map[string]map[string]bool)
	for id := range s {
		class, method := SplitContent(id)
		methods, ok := index[class]
		if !ok {
			methods = make(map[string]bool)
			index[class] = methods
		}
		if method == "" {
			methods[Wildcard] = true
		} else {
			methods[method] = true
		}
	}
	return index
}

// SplitContent splits an identifier into class and method at the first
// separator. The method is empty for a bare class.
func SplitContent(id string) (class, method string) {
	class, method, _ = strings.Cut(id, MethodSeparator)
	return class, method
}
