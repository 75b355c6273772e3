package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "empty", line: "", want: nil},
		{name: "blanks", line: "  \t ", want: nil},
		{name: "plain", line: "-d reports  -verbose 2", want: []string{"-d", "reports", "-verbose", "2"}},
		{name: "double quoted", line: `-d "my reports"`, want: []string{"-d", "my reports"}},
		{name: "single quoted", line: `-Dname='a "b"'`, want: []string{`-Dname=a "b"`}},
		{name: "quotes join word", line: `-Dx="a b"c`, want: []string{"-Dx=a bc"}},
		{name: "empty quoted", line: `-a "" -b`, want: []string{"-a", "", "-b"}},
		{name: "windows path", line: `-cp C:\libs\a.jar;C:\libs\b.jar`, want: []string{"-cp", `C:\libs\a.jar;C:\libs\b.jar`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.line)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}

	t.Run("unbalanced", func(t *testing.T) {
		_, err := Tokenize(`-d "reports`)
		assert.ErrorIs(t, err, ErrUnbalancedQuotes)
	})
}

func TestQuote(t *testing.T) {
	tests := []struct {
		arg     string
		windows bool
		want    string
	}{
		{arg: "plain", want: "plain"},
		{arg: "", want: `""`},
		{arg: "with space", want: `"with space"`},
		{arg: "it's", want: `"it's"`},
		{arg: `say "hi"`, want: `'say "hi"'`},
		{arg: "/lib/*:.", want: `"/lib/*:."`},
		{arg: "Test?.class", want: `"Test?.class"`},
		{arg: `-Dglob="*"`, want: `'-Dglob="*"'`},
		{arg: `C:\Program Files\lib\*`, windows: true, want: `"C:\Program Files\lib\*"`},
		{arg: `a"b`, windows: true, want: `"a\"b"`},
		{arg: `C:\lib\*`, windows: true, want: `C:\lib\*`},
	}
	for _, tt := range tests {
		got, err := Quote(tt.arg, tt.windows)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Quote(%q, %v)", tt.arg, tt.windows)
	}

	_, err := Quote(`both ' and "`, false)
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	got, err := Join([]string{"-classpath", ".:/opt/my libs/*", "org.testng.TestNG"}, false)
	require.NoError(t, err)
	assert.Equal(t, `-classpath ".:/opt/my libs/*" org.testng.TestNG`, got)

	_, err = Join([]string{`'"`}, false)
	assert.Error(t, err)
}

func TestSplitAtEntryPoint(t *testing.T) {
	const entry = "org.testng.TestNG"
	templates := []string{"testng.xml", "/work/testng.xml"}

	tests := []struct {
		name     string
		tokens   []string
		leading  []string
		trailing []string
		subsumed bool
	}{
		{
			name:     "entry point in the middle",
			tokens:   []string{"-Xmx1g", entry, "-d", "reports"},
			leading:  []string{"-Xmx1g"},
			trailing: []string{"-d", "reports"},
		},
		{
			name:     "template after entry point is dropped",
			tokens:   []string{entry, "testng.xml", "-d", "out"},
			leading:  []string{},
			trailing: []string{"-d", "out"},
		},
		{
			name:     "template subsumes entry point",
			tokens:   []string{"-Xmx1g", "/work/testng.xml", "-d", "out"},
			leading:  []string{"-Xmx1g"},
			trailing: []string{"-d", "out"},
			subsumed: true,
		},
		{
			name:    "neither present",
			tokens:  []string{"-Xmx1g", "-ea"},
			leading: []string{"-Xmx1g", "-ea"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leading, trailing, subsumed := splitAtEntryPoint(tt.tokens, entry, templates)
			assert.Equal(t, tt.subsumed, subsumed)
			if diff := cmp.Diff(tt.leading, leading, emptyEqualsNil); diff != "" {
				t.Errorf("leading mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.trailing, trailing, emptyEqualsNil); diff != "" {
				t.Errorf("trailing mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

var emptyEqualsNil = cmp.Comparer(func(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
})

func TestExtractClasspath(t *testing.T) {
	rest, entries, err := extractClasspath([]string{"-cp", "a.jar:b.jar", "-ea", "-classpath", "c.jar"}, ":")
	require.NoError(t, err)
	assert.Equal(t, []string{"-ea"}, rest)
	assert.Equal(t, []string{"a.jar", "b.jar", "c.jar"}, entries)

	t.Run("windows separator", func(t *testing.T) {
		_, entries, err := extractClasspath([]string{"-cp", `C:\a.jar;C:\b.jar`}, ";")
		require.NoError(t, err)
		assert.Equal(t, []string{`C:\a.jar`, `C:\b.jar`}, entries)
	})

	t.Run("dangling flag", func(t *testing.T) {
		_, _, err := extractClasspath([]string{"-ea", "-cp"}, ":")
		assert.Error(t, err)
	})
}
