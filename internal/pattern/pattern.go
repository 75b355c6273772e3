// Package pattern implements the glob matching used for include/exclude
// filters and for matching classes against suite package selectors.
//
// Only two wildcards are recognised: '*' matches any sequence of characters
// (including path separators) and '?' matches exactly one character. A
// pattern must match the whole text.
package pattern

import (
	"regexp"
	"strings"
	"sync"
)

var cache sync.Map // pattern -> *regexp.Regexp

// Match reports whether text matches pattern in full.
func Match(text, pattern string) bool {
	return compile(pattern).MatchString(text)
}

// MatchPackage reports whether the fully qualified class name belongs to the
// package selector. Dots are turned into '/' on both sides first, and a
// selector without wildcards selects the classes directly inside it.
func MatchPackage(className, packagePattern string) bool {
	if packagePattern == "" {
		return false
	}
	if !strings.ContainsAny(packagePattern, "*?") {
		i := strings.LastIndex(className, ".")
		return i >= 0 && normalize(className[:i]) == normalize(packagePattern)
	}
	return Match(normalize(className), normalize(packagePattern))
}

// Split turns a comma separated pattern list into its trimmed, non-empty
// entries.
func Split(list string) []string {
	var patterns []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func normalize(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

func compile(pattern string) *regexp.Regexp {
	if re, ok := cache.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}

	var b strings.Builder
	b.WriteString(`^(?s:`)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(`.*?`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`)$`)

	re := regexp.MustCompile(b.String())
	cache.Store(pattern, re)
	return re
}
