package output

import (
	"io"
	"strings"
	"time"

	"github.com/dshills/changelens/internal/analysis"
)

// MarkdownWriter renders the report as a Markdown document suitable for a
// file or a pull request comment.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *analysis.Report) error {
	_, err := io.WriteString(w, Assemble(report))
	return err
}

// Assemble renders report as Markdown. The layout is fixed: a header block,
// then one section per file in report order separated by horizontal rules.
// Key Changes and Suggestions are left out when empty.
func Assemble(report *analysis.Report) string {
	var b strings.Builder

	b.WriteString("# Code Analysis Report\n\n")
	b.WriteString("**Project:** " + orUnknown(report.Project.Name) + "\n")
	b.WriteString("**Type:** " + orUnknown(report.Project.Type) + "\n")
	b.WriteString("**Languages:** " + orUnknown(strings.Join(report.Project.Languages, ", ")) + "\n")
	b.WriteString("**Generated:** " + report.GeneratedAt.UTC().Format(time.RFC3339) + "\n")

	for _, f := range report.Files {
		b.WriteString("\n### " + f.Path + "\n\n")
		b.WriteString("**Language:** " + f.Language + "\n\n")
		b.WriteString("**Summary:** " + f.Summary + "\n\n")
		b.WriteString("**Purpose:** " + f.Purpose + "\n\n")
		writeList(&b, "Key Changes", f.KeyChanges)
		b.WriteString("**Impact:** " + f.Impact + "\n\n")
		writeList(&b, "Suggestions", f.Suggestions)
		b.WriteString("---\n")
	}

	if len(report.Skipped) > 0 {
		b.WriteString("\n**Skipped:**\n")
		for _, s := range report.Skipped {
			b.WriteString("- `" + s.Path + "`: " + s.Reason + "\n")
		}
	}

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("**" + title + ":**\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
