package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/changelens/internal/analysis"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *analysis.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Change analysis: %s (%s) - %s mode\n",
		orUnknown(report.Project.Name), orUnknown(report.Project.Type), report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files: %d analyzed", len(report.Files))
	if len(report.Skipped) > 0 {
		ew.printf(", %d skipped", len(report.Skipped))
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if len(report.Files) == 0 && len(report.Skipped) == 0 {
		ew.println("\nNo changes to analyze.")
		return ew.err
	}

	for _, f := range report.Files {
		ew.printf("\n%s  [%s] +%d -%d\n", f.Path, f.Language, f.Additions, f.Deletions)
		ew.println(strings.Repeat("─", 40))
		block(ew, "Summary", f.Summary)
		block(ew, "Purpose", f.Purpose)
		bullets(ew, "Key changes", f.KeyChanges)
		block(ew, "Impact", f.Impact)
		bullets(ew, "Suggestions", f.Suggestions)
	}

	for _, s := range report.Skipped {
		ew.printf("\nSkipped %s: %s\n", s.Path, s.Reason)
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (git: %dms, LLM: %dms)\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.LLMMs)

	return ew.err
}

func block(ew *errWriter, label, text string) {
	ew.printf("  %s:\n", label)
	for _, line := range wrapText(text, 70) {
		ew.printf("    %s\n", line)
	}
}

func bullets(ew *errWriter, label string, items []string) {
	if len(items) == 0 {
		return
	}
	ew.printf("  %s:\n", label)
	for _, item := range items {
		for i, line := range wrapText(item, 68) {
			if i == 0 {
				ew.printf("    - %s\n", line)
			} else {
				ew.printf("      %s\n", line)
			}
		}
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
