package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldInclude(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		rules Rules
		want  bool
	}{
		{"no rules", "anything/at/all.txt", Rules{}, true},
		{"exclude wins over include", "a.test.ts", Rules{Exclude: []string{"**/*.test.*"}, Include: []string{"**/*.ts"}}, false},
		{"include match", "src/app.ts", Rules{Include: []string{"**/*.ts"}}, true},
		{"include miss", "src/app.go", Rules{Include: []string{"**/*.ts"}}, false},
		{"exclude only", "vendor/lib/x.go", Rules{Exclude: []string{"vendor/**"}}, false},
		{"exclude only miss", "cmd/main.go", Rules{Exclude: []string{"vendor/**"}}, true},
		{"single star stays in dir", "src/file.ts", Rules{Include: []string{"*.ts"}}, false},
		{"any include suffices", "docs/readme.md", Rules{Include: []string{"**/*.go", "docs/*"}}, true},
		{"malformed include matches nothing", "a.go", Rules{Include: []string{"(["}}, false},
		{"malformed exclude excludes nothing", "a.go", Rules{Exclude: []string{"(["}}, true},
		{"dot slash prefix", "./src/app.ts", Rules{Include: []string{"src/*.ts"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldInclude(tt.path, tt.rules))
		})
	}
}

func TestCompile_ReusedAcrossPaths(t *testing.T) {
	rules := Rules{Exclude: []string{"**/*_test.go", "dist/**"}, Include: []string{"**/*.go", "**/*.js"}}
	f := Compile(rules)
	tests := []struct {
		path string
		want bool
	}{
		{"z.go", true},
		{"a_test.go", false},
		{"pkg/m.go", true},
		{"README.md", false},
		{"dist/app.js", false},
		{"src/app.js", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Allows(tt.path), tt.path)
		assert.Equal(t, tt.want, ShouldInclude(tt.path, rules), tt.path)
	}
}
