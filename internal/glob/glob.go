package glob

import (
	"regexp"
	"strings"
)

// Matcher reports whether a slash-separated path matches a compiled pattern.
type Matcher interface {
	Match(path string) bool
	Pattern() string
}

type regexMatcher struct {
	pattern string
	re      *regexp.Regexp
}

func (m *regexMatcher) Match(path string) bool { return m.re.MatchString(path) }
func (m *regexMatcher) Pattern() string        { return m.pattern }

// nothing is returned for patterns that fail to compile.
type nothing struct{ pattern string }

func (n nothing) Match(string) bool { return false }
func (n nothing) Pattern() string   { return n.pattern }

// Compile translates pattern into an anchored matcher. It never fails: a
// pattern that cannot be compiled matches nothing.
func Compile(pattern string) Matcher {
	re, err := regexp.Compile(Translate(pattern))
	if err != nil {
		return nothing{pattern: pattern}
	}
	return &regexMatcher{pattern: pattern, re: re}
}

// Translate returns the anchored regular expression for pattern.
//
// Translation order: "**/" matches zero or more leading directories, any
// other "**" matches anything including separators, "*" matches anything
// except a separator, and "?" matches exactly one non-separator character.
func Translate(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			b.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			flush()
			if i+2 < len(pattern) && pattern[i+2] == '/' {
				b.WriteString("(?:.*/)?")
				i += 2
			} else {
				b.WriteString(".*")
				i++
			}
		case c == '*':
			flush()
			b.WriteString("[^/]*")
		case c == '?':
			flush()
			b.WriteString("[^/]")
		default:
			literal.WriteByte(c)
		}
	}
	flush()
	b.WriteString("$")
	return b.String()
}

// CompileAll compiles every pattern, preserving order.
func CompileAll(patterns []string) []Matcher {
	out := make([]Matcher, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, Compile(p))
	}
	return out
}

// MatchesAny reports whether path matches at least one of patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if Compile(p).Match(path) {
			return true
		}
	}
	return false
}
