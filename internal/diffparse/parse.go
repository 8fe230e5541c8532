package diffparse

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultWindow is the number of context lines kept on each side of a change.
const DefaultWindow = 3

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// lineClass is the result of classifying one raw diff line.
type lineClass int

const (
	classOther lineClass = iota
	classFileHeader
	classFileMarker
	classHunkHeader
	classAddition
	classDeletion
	classContext
)

// scanned is a classified line and the hunk it belongs to (-1 for none).
type scanned struct {
	class lineClass
	hunk  int
}

// Parse returns the change records of diff using DefaultWindow.
func Parse(diff string) []ChangeRecord {
	return ParseWithWindow(diff, DefaultWindow)
}

// ParseWithWindow returns the change records of diff in diff order, keeping
// up to window context lines on each side of every record. A negative window
// selects DefaultWindow.
func ParseWithWindow(diff string, window int) []ChangeRecord {
	var records []ChangeRecord
	for _, h := range ParseHunks(diff, window) {
		records = append(records, h.Changes...)
	}
	return records
}

// ParseHunks parses diff into hunks. Lines outside any hunk are ignored, as
// are malformed hunk headers; lines following a malformed header stay with
// the previous hunk.
func ParseHunks(diff string, window int) []Hunk {
	if window < 0 {
		window = DefaultWindow
	}
	lines := strings.Split(diff, "\n")
	hunks, scan := classify(lines)

	current := -1
	currentLine := 0
	for i, line := range lines {
		s := scan[i]
		if s.class == classHunkHeader {
			current = s.hunk
			currentLine = hunks[current].NewStart
			hunks[current].NextLine = currentLine
			continue
		}
		if s.hunk < 0 || s.hunk != current {
			continue
		}

		h := &hunks[current]
		switch s.class {
		case classAddition:
			h.Changes = append(h.Changes, ChangeRecord{
				Kind:       Addition,
				LineNumber: currentLine,
				Text:       line[1:],
				Context:    contextFor(lines, scan, i, window),
			})
			currentLine++
		case classDeletion:
			h.Changes = append(h.Changes, ChangeRecord{
				Kind:       Deletion,
				LineNumber: currentLine,
				Text:       line[1:],
				Context:    contextFor(lines, scan, i, window),
			})
		case classContext:
			currentLine++
		}
		h.NextLine = currentLine
	}
	return hunks
}

// classify assigns every line a class and owning hunk. File markers are
// recognized first: a "+++" or "---" line is a marker only outside a hunk or
// once the hunk's declared line counts are used up, so a deleted line whose
// text begins with "--" is still a deletion.
func classify(lines []string) ([]Hunk, []scanned) {
	var hunks []Hunk
	scan := make([]scanned, len(lines))
	current := -1
	remOld, remNew := 0, 0

	for i, line := range lines {
		exhausted := remOld <= 0 && remNew <= 0
		switch {
		case strings.HasPrefix(line, "diff --git "):
			scan[i] = scanned{class: classFileHeader, hunk: -1}
			current = -1
			continue
		case isFileMarker(line) && (current < 0 || exhausted):
			scan[i] = scanned{class: classFileMarker, hunk: -1}
			current = -1
			continue
		case strings.HasPrefix(line, "@@"):
			h, ok := parseHunkHeader(line)
			if !ok {
				scan[i] = scanned{class: classOther, hunk: -1}
				continue
			}
			hunks = append(hunks, h)
			current = len(hunks) - 1
			remOld, remNew = h.OldLines, h.NewLines
			scan[i] = scanned{class: classHunkHeader, hunk: current}
			continue
		}

		class := classOther
		switch {
		case strings.HasPrefix(line, "+"):
			class = classAddition
			remNew--
		case strings.HasPrefix(line, "-"):
			class = classDeletion
			remOld--
		case strings.HasPrefix(line, " "):
			class = classContext
			remOld--
			remNew--
		}
		scan[i] = scanned{class: class, hunk: current}
	}
	return hunks, scan
}

func isFileMarker(line string) bool {
	return strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---")
}

func parseHunkHeader(line string) (Hunk, bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}
	oldStart, err := strconv.Atoi(m[1])
	if err != nil {
		return Hunk{}, false
	}
	oldLines, ok := optionalCount(m[2])
	if !ok {
		return Hunk{}, false
	}
	newStart, err := strconv.Atoi(m[3])
	if err != nil {
		return Hunk{}, false
	}
	newLines, ok := optionalCount(m[4])
	if !ok {
		return Hunk{}, false
	}
	return Hunk{
		Header:   line,
		OldStart: oldStart,
		OldLines: oldLines,
		NewStart: newStart,
		NewLines: newLines,
	}, true
}

// optionalCount parses a hunk range length; an omitted length means 1.
func optionalCount(s string) (int, bool) {
	if s == "" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// contextFor collects the unmarked lines of the same hunk within window
// lines of index i, with the leading space removed.
func contextFor(lines []string, scan []scanned, i, window int) []string {
	start := i - window
	if start < 0 {
		start = 0
	}
	end := i + window
	if end >= len(lines) {
		end = len(lines) - 1
	}

	var ctx []string
	for j := start; j <= end; j++ {
		if j == i || scan[j].hunk != scan[i].hunk || scan[j].class != classContext {
			continue
		}
		ctx = append(ctx, lines[j][1:])
	}
	return ctx
}
