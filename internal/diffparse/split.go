package diffparse

import (
	"strings"
)

// FileSection is the slice of a multi-file diff belonging to one file.
type FileSection struct {
	Path    string
	OldPath string
	Diff    string
	// Additions and Deletions are counted from the section body. Callers
	// with numstat output should prefer those numbers.
	Additions int
	Deletions int
	Binary    bool
	New       bool
	Deleted   bool
}

// SplitFiles splits the output of "git diff" into per-file sections in diff
// order. Text without any "diff --git" line is treated as a single file
// whose path comes from its "+++"/"---" markers. Sections with no
// recognizable path are dropped.
func SplitFiles(text string) []FileSection {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var raw []string
	var current strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if strings.HasPrefix(line, "diff --git ") && current.Len() > 0 {
			raw = append(raw, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		raw = append(raw, current.String())
	}

	var sections []FileSection
	for _, body := range raw {
		s := describe(body)
		if s.Path == "" {
			continue
		}
		sections = append(sections, s)
	}
	return sections
}

func describe(body string) FileSection {
	s := FileSection{Diff: body}
	var gitA, gitB string

	lines := strings.Split(body, "\n")
	_, scan := classify(lines)
	for i, line := range lines {
		switch scan[i].class {
		case classFileHeader:
			gitA, gitB = parseGitHeader(line)
		case classFileMarker:
			name := markerPath(line)
			if strings.HasPrefix(line, "+++") {
				if name == "" {
					s.Deleted = true
				} else {
					s.Path = name
				}
			} else {
				if name == "" {
					s.New = true
				} else {
					s.OldPath = name
				}
			}
		case classAddition:
			if scan[i].hunk >= 0 {
				s.Additions++
			}
		case classDeletion:
			if scan[i].hunk >= 0 {
				s.Deletions++
			}
		case classOther:
			switch {
			case strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch"):
				s.Binary = true
			case strings.HasPrefix(line, "new file mode"):
				s.New = true
			case strings.HasPrefix(line, "deleted file mode"):
				s.Deleted = true
			case strings.HasPrefix(line, "rename from "):
				s.OldPath = strings.TrimPrefix(line, "rename from ")
			case strings.HasPrefix(line, "rename to ") && s.Path == "":
				s.Path = strings.TrimPrefix(line, "rename to ")
			}
		}
	}

	if s.Path == "" && s.OldPath != "" {
		s.Path = s.OldPath
	}
	if s.Path == "" {
		s.Path = gitB
	}
	if s.OldPath == "" && !s.New {
		s.OldPath = gitA
	}
	return s
}

// markerPath returns the path named by a "+++"/"---" line with its a/ or b/
// prefix removed, or "" for /dev/null.
func markerPath(line string) string {
	name := strings.TrimSpace(line[3:])
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		name = name[:i]
	}
	if name == "/dev/null" {
		return ""
	}
	return stripSide(name)
}

// parseGitHeader extracts both paths from "diff --git a/x b/x". Paths
// containing " b/" are ambiguous; the last occurrence wins.
func parseGitHeader(line string) (string, string) {
	rest := strings.TrimPrefix(line, "diff --git ")
	i := strings.LastIndex(rest, " b/")
	if i < 0 {
		return "", ""
	}
	return stripSide(rest[:i]), stripSide(rest[i+1:])
}

func stripSide(name string) string {
	name = strings.Trim(name, `"`)
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}
