package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_PlainHeadings(t *testing.T) {
	raw := "Summary: fixes bug\nPurpose: stability\nKey Changes:\n- fix A\n- fix B\nImpact: low risk"
	s := Extract(raw)

	assert.Equal(t, "fixes bug", s.Summary)
	assert.Equal(t, "stability", s.Purpose)
	assert.Equal(t, []string{"fix A", "fix B"}, s.KeyChanges)
	assert.Equal(t, "low risk", s.Impact)
	assert.False(t, s.Has(SectionDocumentation))
	assert.False(t, s.Has(SectionSuggestions))
	assert.Empty(t, s.Documentation)
	assert.Nil(t, s.Suggestions)

	fa := NewFileAnalysis("a.ts", "typescript", raw)
	assert.Equal(t, NoDocumentation, fa.Documentation)
	assert.Equal(t, []string{}, fa.Suggestions)
}

func TestExtract_AllSixInOrder(t *testing.T) {
	raw := strings.Join([]string{
		"Summary: adds caching",
		"Purpose: fewer backend calls",
		"Key Changes:",
		"1. new Store interface",
		"2. file backend",
		"Impact: faster repeat runs",
		"Documentation: cache is on by default",
		"Suggestions:",
		"* add eviction",
		"+ add metrics",
	}, "\n")

	s := Extract(raw)
	for sec := SectionSummary; sec < numSections; sec++ {
		assert.True(t, s.Has(sec), sec.String())
	}
	assert.Equal(t, "adds caching", s.Summary)
	assert.Equal(t, "fewer backend calls", s.Purpose)
	assert.Equal(t, []string{"new Store interface", "file backend"}, s.KeyChanges)
	assert.Equal(t, "faster repeat runs", s.Impact)
	assert.Equal(t, "cache is on by default", s.Documentation)
	assert.Equal(t, []string{"add eviction", "add metrics"}, s.Suggestions)

	// Re-extracting a rendering of the result gives the same sections.
	again := Extract(strings.Join([]string{
		"Summary: " + s.Summary,
		"Purpose: " + s.Purpose,
		"Key Changes:\n- " + strings.Join(s.KeyChanges, "\n- "),
		"Impact: " + s.Impact,
		"Documentation: " + s.Documentation,
		"Suggestions:\n- " + strings.Join(s.Suggestions, "\n- "),
	}, "\n"))
	assert.Equal(t, s, again)
}

func TestExtract_MarkdownDecorations(t *testing.T) {
	raw := "## Summary\nRefactors the parser.\n\n**Purpose:** readability\n\n" +
		"### 3. Key Changes\n- split classify\n\n**Impact**: none\n\n# SUGGESTIONS -\n- add fuzz test\n"
	s := Extract(raw)

	assert.Equal(t, "Refactors the parser.", s.Summary)
	assert.Equal(t, "readability", s.Purpose)
	assert.Equal(t, []string{"split classify"}, s.KeyChanges)
	assert.Equal(t, "none", s.Impact)
	assert.Equal(t, []string{"add fuzz test"}, s.Suggestions)
}

func TestExtract_OutOfOrderHeadings(t *testing.T) {
	s := Extract("Impact: high\nSummary: rewrite\nPurpose: speed")
	assert.Equal(t, "high", s.Impact)
	assert.Equal(t, "rewrite", s.Summary)
	assert.Equal(t, "speed", s.Purpose)
}

func TestExtract_NameMustBeWholeWord(t *testing.T) {
	s := Extract("Summary: summarized impacts of the purposeful rewrite")
	assert.Equal(t, "summarized impacts of the purposeful rewrite", s.Summary)
	assert.False(t, s.Has(SectionImpact))
	assert.False(t, s.Has(SectionPurpose))
}

func TestExtract_InlineHeadings(t *testing.T) {
	s := Extract("Summary: fixes bug. Purpose: stability. Impact: low risk")
	assert.Equal(t, "fixes bug.", s.Summary)
	assert.Equal(t, "stability.", s.Purpose)
	assert.Equal(t, "low risk", s.Impact)
	assert.True(t, s.Has(SectionPurpose))
}

func TestExtract_HeadingsWithoutSeparator(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		summary string
		purpose string
	}{
		{"line start", "Summary fixes bug\nPurpose stability", "fixes bug", "stability"},
		{"dash", "summary - fixes bug\nPURPOSE - stability", "fixes bug", "stability"},
		{"same line", "Summary fixes bug Purpose stability", "fixes bug", "stability"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Extract(tt.raw)
			assert.True(t, s.Has(SectionSummary))
			assert.Equal(t, tt.summary, s.Summary)
			assert.Equal(t, tt.purpose, s.Purpose)
		})
	}
}

func TestExtract_ListItemNamingASectionStaysInList(t *testing.T) {
	raw := "Summary: x\nKey Changes:\n1. Documentation: added docs\n2. Fixed y\n- Impact: on callers\nImpact: none"
	s := Extract(raw)

	assert.Equal(t, []string{"Documentation: added docs", "Fixed y", "Impact: on callers"}, s.KeyChanges)
	assert.False(t, s.Has(SectionDocumentation))
	assert.Equal(t, "none", s.Impact)
}

func TestExtract_NumberedHeadingAlone(t *testing.T) {
	s := Extract("1. Summary\nadds retries\n2. Key Changes\n- backoff\n3) Impact:\nnone")
	assert.Equal(t, "adds retries", s.Summary)
	assert.Equal(t, []string{"backoff"}, s.KeyChanges)
	assert.Equal(t, "none", s.Impact)
}

func TestExtract_BlankSectionIsPresent(t *testing.T) {
	s := Extract("Summary:\nPurpose: x")
	assert.True(t, s.Has(SectionSummary))
	assert.Empty(t, s.Summary)

	fa := NewFileAnalysis("f.go", "go", "Summary:\nPurpose: x")
	assert.Equal(t, NoSummary, fa.Summary)
	assert.Equal(t, "x", fa.Purpose)
}

func TestExtract_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"no headings at all",
		"Summary",
		"Summary:",
		"Summary: a\nSummary: b",
		"Key Changes:\n\n\n",
		"Suggestions:\n-\n*\n1.\n",
		"\x00\xff\xfeSummary: \xff",
		strings.Repeat("Impact: x\n", 1000),
		"Summ",
		"ary: x",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Extract(in) }, "%q", in)
	}

	assert.True(t, Extract("no headings at all").Empty())
	assert.Nil(t, Extract("Suggestions:\n-\n*\n1.\n").Suggestions)
}

func TestExtract_DuplicatedHeadingUsesFirst(t *testing.T) {
	s := Extract("Summary: a\nPurpose: p\nSummary: b")
	assert.Equal(t, "a", s.Summary)
	assert.Equal(t, "p", s.Purpose)
}

func TestNewFileAnalysis_NoHeadingsKeepsRaw(t *testing.T) {
	raw := "The model ignored the format and wrote prose."
	fa := NewFileAnalysis("x.py", "python", raw)

	assert.Equal(t, raw, fa.Documentation)
	assert.Equal(t, NoSummary, fa.Summary)
	assert.Equal(t, NoPurpose, fa.Purpose)
	assert.Equal(t, NoImpact, fa.Impact)
	assert.Equal(t, []string{}, fa.KeyChanges)
	assert.Equal(t, "python", fa.Language)
}

func TestSectionString(t *testing.T) {
	assert.Equal(t, "Key Changes", SectionKeyChanges.String())
	assert.Equal(t, "Unknown", Section(42).String())
}
