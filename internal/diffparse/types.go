package diffparse

// Kind distinguishes added from deleted lines. A modified line appears as a
// deletion followed by an addition; there is no third kind.
type Kind int

const (
	Addition Kind = iota
	Deletion
)

func (k Kind) String() string {
	switch k {
	case Addition:
		return "Addition"
	case Deletion:
		return "Deletion"
	default:
		return "Unknown"
	}
}

// MarshalText renders the kind by name so JSON and YAML output stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ChangeRecord is one added or deleted line.
type ChangeRecord struct {
	Kind       Kind     `json:"kind" yaml:"kind"`
	LineNumber int      `json:"lineNumber" yaml:"lineNumber"`
	Text       string   `json:"text" yaml:"text"`
	Context    []string `json:"context,omitempty" yaml:"context,omitempty"`
}

// Hunk is one "@@ -a,b +c,d @@" block and the records parsed from it.
type Hunk struct {
	Header   string
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Changes  []ChangeRecord
	// NextLine is the cursor after the hunk's last line. For a complete hunk
	// it equals NewStart+NewLines.
	NextLine int
}

// FileDiff is one changed file of a diff request.
type FileDiff struct {
	Path string `json:"path" yaml:"path"`
	// Additions and Deletions come from the diff summary and are
	// authoritative; they can differ from len(Changes) for binary or
	// truncated bodies.
	Additions int            `json:"additions" yaml:"additions"`
	Deletions int            `json:"deletions" yaml:"deletions"`
	Changes   []ChangeRecord `json:"changes" yaml:"changes"`
	// FullContent is nil when the file was deleted or could not be read.
	FullContent *string `json:"fullContent,omitempty" yaml:"fullContent,omitempty"`
}

// NewFileDiff parses raw into change records and bundles them with the
// summary counts supplied by the git client.
func NewFileDiff(path, raw string, additions, deletions int, fullContent *string, window int) FileDiff {
	return FileDiff{
		Path:        path,
		Additions:   additions,
		Deletions:   deletions,
		Changes:     ParseWithWindow(raw, window),
		FullContent: fullContent,
	}
}
