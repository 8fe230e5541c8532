package analysis

import (
	"regexp"
	"strings"
)

// Section names one of the six canonical headings.
type Section int

// The order of these constants is the tie-break order of the extractor.
const (
	SectionSummary Section = iota
	SectionPurpose
	SectionKeyChanges
	SectionImpact
	SectionDocumentation
	SectionSuggestions
	numSections
)

var sectionNames = [numSections]string{"Summary", "Purpose", "Key Changes", "Impact", "Documentation", "Suggestions"}

func (s Section) String() string {
	if s < 0 || s >= numSections {
		return "Unknown"
	}
	return sectionNames[s]
}

// headingPatterns recognizes a heading anywhere in the text. The name must
// stand as a whole word; Markdown hashes and bold markers may surround it and
// ":" or "-" may follow it.
var headingPatterns = func() [numSections]*regexp.Regexp {
	var out [numSections]*regexp.Regexp
	for i, name := range sectionNames {
		word := strings.ReplaceAll(regexp.QuoteMeta(name), " ", `[ \t]+`)
		out[i] = regexp.MustCompile(`(?i)(?:#{1,6}[ \t]*)?(?:\*\*|__)?\b` +
			word + `\b(?:\*\*|__)?(?:[ \t]*[:\-](?:\*\*|__)?)?`)
	}
	return out
}()

// listItemRe matches the start of a bulleted or numbered line, optionally
// behind Markdown hashes. listMarkerRe matches such a start and nothing else.
var (
	listItemRe   = regexp.MustCompile(`^[ \t]*(?:#{1,6}[ \t]*)?(?:[-*+]|\d+[.)])[ \t]`)
	listMarkerRe = regexp.MustCompile(`^[ \t]*(?:#{1,6}[ \t]*)?(?:[-*+]|\d+[.)])[ \t]*$`)
)

// headingStart decides whether the match at [start, end) is a heading and
// where it begins. On a list line the name is item text unless it follows
// the marker directly and ends the line; "1. Key Changes" alone is a heading
// that begins at its marker.
func headingStart(raw string, start, end int) (int, bool) {
	lineStart := strings.LastIndexByte(raw[:start], '\n') + 1
	prefix := raw[lineStart:start]
	if !listItemRe.MatchString(prefix) {
		return start, true
	}
	rest := raw[end:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	if strings.TrimSpace(rest) != "" || !listMarkerRe.MatchString(prefix) {
		return 0, false
	}
	return lineStart, true
}

var bulletRe = regexp.MustCompile(`^[-*+0-9]+\.?\s*`)

// Sections holds what Extract found. Scalar sections are empty strings and
// list sections nil when absent; Has tells absent from present-but-blank.
type Sections struct {
	Summary       string
	Purpose       string
	KeyChanges    []string
	Impact        string
	Documentation string
	Suggestions   []string

	found [numSections]bool
}

// Has reports whether s was located in the text.
func (s Sections) Has(sec Section) bool {
	if sec < 0 || sec >= numSections {
		return false
	}
	return s.found[sec]
}

// Empty reports whether no section was located.
func (s Sections) Empty() bool {
	for _, f := range s.found {
		if f {
			return false
		}
	}
	return true
}

type span struct{ start, end int }

// Extract splits raw model output into the canonical sections. Each section
// starts after the first occurrence of its heading and runs to the nearest
// following occurrence of any other heading, or the end of the text.
// Extract never fails.
func Extract(raw string) Sections {
	var all [numSections][]span
	for i, re := range headingPatterns {
		for _, loc := range re.FindAllStringIndex(raw, -1) {
			start, ok := headingStart(raw, loc[0], loc[1])
			if !ok {
				continue
			}
			all[i] = append(all[i], span{start, loc[1]})
		}
	}

	var out Sections
	for i := Section(0); i < numSections; i++ {
		if len(all[i]) == 0 {
			continue
		}
		first := all[i][0]
		end := len(raw)
		for j := Section(0); j < numSections; j++ {
			if j == i {
				continue
			}
			for _, sp := range all[j] {
				// Occurrences are sorted by position, so the first one past
				// this heading is the nearest for heading j. Scanning j in
				// canonical order makes the lower section win a tie.
				if sp.start >= first.end {
					if sp.start < end {
						end = sp.start
					}
					break
				}
			}
		}
		out.set(i, strings.TrimSpace(raw[first.end:end]))
	}
	return out
}

func (s *Sections) set(sec Section, body string) {
	s.found[sec] = true
	switch sec {
	case SectionSummary:
		s.Summary = body
	case SectionPurpose:
		s.Purpose = body
	case SectionKeyChanges:
		s.KeyChanges = splitList(body)
	case SectionImpact:
		s.Impact = body
	case SectionDocumentation:
		s.Documentation = body
	case SectionSuggestions:
		s.Suggestions = splitList(body)
	}
}

// splitList turns a bulleted or numbered block into trimmed items.
func splitList(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}
