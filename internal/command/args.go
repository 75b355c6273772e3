package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnbalancedQuotes is returned by Tokenize for an unterminated quote.
var ErrUnbalancedQuotes = errors.New("unbalanced quotes")

// Tokenize splits an option string into arguments. Single and double quotes
// group characters; there is no escape character, so Windows paths survive
// untouched. An empty quoted string yields an empty argument.
func Tokenize(line string) ([]string, error) {
	const (
		normal = iota
		inSingle
		inDouble
	)

	var (
		args   []string
		cur    strings.Builder
		state  = normal
		quoted bool
	)
	flush := func() {
		if quoted || cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
			quoted = false
		}
	}

	for _, r := range line {
		switch state {
		case inSingle:
			if r == '\'' {
				state = normal
				quoted = true
			} else {
				cur.WriteRune(r)
			}
		case inDouble:
			if r == '"' {
				state = normal
				quoted = true
			} else {
				cur.WriteRune(r)
			}
		default:
			switch r {
			case '\'':
				state = inSingle
			case '"':
				state = inDouble
			case ' ', '\t', '\n', '\r':
				flush()
			default:
				cur.WriteRune(r)
			}
		}
	}
	if state != normal {
		return nil, fmt.Errorf("%w in %q", ErrUnbalancedQuotes, line)
	}
	flush()
	return args, nil
}

// Quote quotes a single argument for the target platform. On Windows the
// argument is wrapped in double quotes with inner double quotes escaped.
// Elsewhere an argument holding a double quote is wrapped in single quotes
// and one holding a single quote, whitespace or a glob character in double
// quotes, so the shell passes classpath wildcards through. Holding both
// kinds of quote is an error.
func Quote(arg string, windows bool) (string, error) {
	if arg == "" {
		return `""`, nil
	}
	if windows {
		if !strings.ContainsAny(arg, " \t\"") {
			return arg, nil
		}
		return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`, nil
	}

	switch {
	case strings.Contains(arg, `"`):
		if strings.Contains(arg, "'") {
			return "", fmt.Errorf("cannot quote argument with both single and double quotes: %s", arg)
		}
		return "'" + arg + "'", nil
	case strings.ContainsAny(arg, "' \t*?"):
		return `"` + arg + `"`, nil
	default:
		return arg, nil
	}
}

// Join quotes every argument and joins them with spaces.
func Join(args []string, windows bool) (string, error) {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		q, err := Quote(a, windows)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " "), nil
}

// splitAtEntryPoint separates the tokens around the runner's entry point.
// When the entry point is absent a template token takes its place and
// subsumes it. Template tokens after the entry point are dropped since the
// template is always emitted again.
func splitAtEntryPoint(tokens []string, entryPoint string, templates []string) (leading, trailing []string, subsumed bool) {
	isTemplate := func(tok string) bool {
		for _, t := range templates {
			if t != "" && tok == t {
				return true
			}
		}
		return false
	}

	for i, tok := range tokens {
		if tok == entryPoint {
			for _, rest := range tokens[i+1:] {
				if !isTemplate(rest) {
					trailing = append(trailing, rest)
				}
			}
			return tokens[:i], trailing, false
		}
	}
	for i, tok := range tokens {
		if isTemplate(tok) {
			return tokens[:i], tokens[i+1:], true
		}
	}
	return tokens, nil, false
}

// extractClasspath removes every -cp/-classpath flag and its value from
// tokens and returns the value's entries split on sep.
func extractClasspath(tokens []string, sep string) (rest, entries []string, err error) {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok != "-cp" && tok != "-classpath" {
			rest = append(rest, tok)
			continue
		}
		if i+1 >= len(tokens) {
			return nil, nil, fmt.Errorf("missing value for %s", tok)
		}
		i++
		for _, e := range strings.Split(tokens[i], sep) {
			if e != "" {
				entries = append(entries, e)
			}
		}
	}
	return rest, entries, nil
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
