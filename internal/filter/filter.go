package filter

import (
	"path"
	"strings"

	"github.com/dshills/changelens/internal/glob"
)

// Rules holds ordered include and exclude glob patterns. A path matching any
// Exclude pattern is rejected. Otherwise, when Include is non-empty, the
// path must match at least one Include pattern.
type Rules struct {
	Include []string `json:"include,omitempty" yaml:"include,omitempty" mapstructure:"include"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" mapstructure:"exclude"`
}

// ShouldInclude reports whether p passes rules. It compiles the patterns on
// every call; use Compile when filtering many paths.
func ShouldInclude(p string, rules Rules) bool {
	return Compile(rules).Allows(p)
}

// Filter is a precompiled Rules value. It is safe for concurrent use.
type Filter struct {
	include []glob.Matcher
	exclude []glob.Matcher
}

// Compile precompiles rules. Patterns that cannot be compiled match nothing.
func Compile(rules Rules) *Filter {
	return &Filter{
		include: glob.CompileAll(rules.Include),
		exclude: glob.CompileAll(rules.Exclude),
	}
}

// Allows reports whether p passes the filter.
func (f *Filter) Allows(p string) bool {
	p = normalize(p)
	for _, m := range f.exclude {
		if m.Match(p) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, m := range f.include {
		if m.Match(p) {
			return true
		}
	}
	return false
}

// normalize turns OS-style and "./"-prefixed paths into the slash-separated
// repository-relative form the patterns are written against.
func normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return p
	}
	return strings.TrimPrefix(path.Clean(p), "./")
}
