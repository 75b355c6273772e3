package discovery

import (
	"path/filepath"
	"strings"

	"ngorch/internal/pattern"
)

// ClassPattern selects every compiled class.
const ClassPattern = "**/*.class"

// Filter decides which scanned files take part in a scan.
type Filter struct {
	include []string // user include patterns
	exclude []string
}

// NewFilter creates a Filter from comma separated include and exclude
// pattern lists. An empty include list includes every class.
func NewFilter(includePattern, excludePattern string) *Filter {
	include := pattern.Split(includePattern)
	if len(include) == 0 {
		include = []string{ClassPattern}
	}
	return &Filter{
		include: include,
		exclude: pattern.Split(excludePattern),
	}
}

// Candidate reports whether the file is enumerated at all: any class or any
// user-included file, minus the excluded ones.
func (f *Filter) Candidate(name string) bool {
	name = filepath.ToSlash(name)
	if matchPath(name, f.exclude) {
		return false
	}
	return matchPath(name, []string{ClassPattern}) || matchPath(name, f.include)
}

// MatchesUser reports whether the file matches the user's include patterns.
func (f *Filter) MatchesUser(name string) bool {
	return matchPath(filepath.ToSlash(name), f.include)
}

// matchPath matches a relative slash path. A leading "**/" also matches a
// file at the root.
func matchPath(name string, patterns []string) bool {
	for _, p := range patterns {
		if pattern.Match(name, p) {
			return true
		}
		if rest, ok := strings.CutPrefix(p, "**/"); ok && pattern.Match(name, rest) {
			return true
		}
	}
	return false
}
