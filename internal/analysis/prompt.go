package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/changelens/internal/diffparse"
	"github.com/dshills/changelens/internal/project"
)

const diffPromptTemplate = `You are an expert software engineer explaining code changes to a reviewer.

Project: %s
Project type: %s
Framework: %s
Project purpose: %s
File language: %s

You will receive one changed file: its path, a change summary, optionally its full current content, and each added or deleted line with nearby context.

Explain the change. Answer with exactly these six labeled sections, each heading on its own line, in this order:

Summary: one or two sentences describing what changed.
Purpose: why the change was likely made.
Key Changes:
- one bullet per notable change
Impact: effects on behavior, performance, compatibility or risk.
Documentation: a short note suitable for a changelog or code documentation.
Suggestions:
- one bullet per concrete improvement, or "- None" if there are none

Do not add other headings. Do not repeat the diff.`

// BuildDiffPrompt returns the instruction text for analyzing one file.
// Unknown project fields render as "unknown".
func BuildDiffPrompt(p project.Context, language string) string {
	return fmt.Sprintf(diffPromptTemplate,
		valueOr(p.Name, "unknown"),
		valueOr(p.Type, project.TypeUnknown),
		valueOr(p.Framework, "none detected"),
		valueOr(p.Purpose, "not stated"),
		valueOr(language, "unknown"),
	)
}

// BuildInstruction is BuildDiffPrompt followed by the guidelines section.
func BuildInstruction(p project.Context, language string, g *Guidelines) string {
	return BuildDiffPrompt(p, language) + BuildGuidelinesSection(g)
}

// BuildFileContent renders fd as the content half of the prompt. Records
// keep diff order; each may be followed by an indented context line.
func BuildFileContent(fd diffparse.FileDiff) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", fd.Path)
	fmt.Fprintf(&b, "Changes: +%d -%d\n", fd.Additions, fd.Deletions)

	if fd.FullContent != nil {
		b.WriteString("\n--- BEGIN FULL CONTENT ---\n")
		b.WriteString(*fd.FullContent)
		if !strings.HasSuffix(*fd.FullContent, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("--- END FULL CONTENT ---\n")
	}

	if len(fd.Changes) > 0 {
		b.WriteString("\n")
	}
	for _, c := range fd.Changes {
		fmt.Fprintf(&b, "%s at line %d: %s\n", c.Kind, c.LineNumber, c.Text)
		if len(c.Context) > 0 {
			fmt.Fprintf(&b, "  Context: %s\n", strings.Join(c.Context, " | "))
		}
	}

	return b.String()
}

// truncateContent caps s at max bytes, backing off to a rune boundary. A
// non-positive max disables the cap.
func truncateContent(s *string, max int) *string {
	if s == nil || max <= 0 || len(*s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart((*s)[cut]) {
		cut--
	}
	t := (*s)[:cut] + "\n... (content truncated)\n"
	return &t
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
