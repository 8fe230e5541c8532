package redact

import (
	"regexp"

	"github.com/dshills/changelens/internal/diffparse"
	"github.com/dshills/changelens/internal/glob"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	// Connection strings with inline credentials
	regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://[^:\s/]+:[^@\s]+@`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI API keys
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Generic long hex strings that look like secrets (32+ chars in an assignment)
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	return glob.MatchesAny(path, patterns)
}

// Content redacts secrets from content and optionally redacts entire content
// if the file path matches redaction patterns.
func Content(content, path string, redactPaths []string) string {
	if ShouldRedactPath(path, redactPaths) {
		return pathPlaceholder
	}
	return Secrets(content)
}

const pathPlaceholder = placeholder + " (file content redacted by path policy)\n"

// Policy redacts parsed file diffs before they leave the process.
type Policy struct {
	secrets bool
	paths   []glob.Matcher
}

// NewPolicy returns a policy. With secrets false only path rules apply.
func NewPolicy(secrets bool, redactPaths []string) *Policy {
	return &Policy{secrets: secrets, paths: glob.CompileAll(redactPaths)}
}

// PathRedacted reports whether every line of the file at path is withheld.
func (p *Policy) PathRedacted(path string) bool {
	for _, m := range p.paths {
		if m.Match(path) {
			return true
		}
	}
	return false
}

// File returns a copy of fd with secrets scrubbed from every change, context
// line and the full content. Files matching a path rule keep their counts
// and line numbers but lose all text.
func (p *Policy) File(fd diffparse.FileDiff) diffparse.FileDiff {
	out := fd
	whole := p.PathRedacted(fd.Path)
	if !whole && !p.secrets {
		return out
	}

	scrub := Secrets
	if whole {
		scrub = func(string) string { return placeholder }
	}

	out.Changes = make([]diffparse.ChangeRecord, len(fd.Changes))
	for i, r := range fd.Changes {
		r.Text = scrub(r.Text)
		if len(r.Context) > 0 {
			ctx := make([]string, len(r.Context))
			for j, c := range r.Context {
				ctx[j] = scrub(c)
			}
			r.Context = ctx
		}
		out.Changes[i] = r
	}

	if fd.FullContent != nil {
		var full string
		if whole {
			full = pathPlaceholder
		} else {
			full = Secrets(*fd.FullContent)
		}
		out.FullContent = &full
	}
	return out
}
