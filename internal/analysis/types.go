package analysis

import (
	"time"

	"github.com/dshills/changelens/internal/project"
)

// Placeholders for scalar sections the backend did not supply.
const (
	NoSummary       = "No summary provided"
	NoPurpose       = "No purpose provided"
	NoImpact        = "No impact analysis provided"
	NoDocumentation = "No documentation provided"
)

// FileAnalysis is the explanation of one changed file.
type FileAnalysis struct {
	Path          string   `json:"path" yaml:"path"`
	Language      string   `json:"language" yaml:"language"`
	Summary       string   `json:"summary" yaml:"summary"`
	Purpose       string   `json:"purpose" yaml:"purpose"`
	KeyChanges    []string `json:"keyChanges" yaml:"keyChanges"`
	Impact        string   `json:"impact" yaml:"impact"`
	Documentation string   `json:"documentation" yaml:"documentation"`
	Suggestions   []string `json:"suggestions" yaml:"suggestions"`
	Additions     int      `json:"additions" yaml:"additions"`
	Deletions     int      `json:"deletions" yaml:"deletions"`
	Cached        bool     `json:"cached,omitempty" yaml:"cached,omitempty"`
}

// NewFileAnalysis extracts the sections of raw and fills placeholders for
// the missing ones. When raw has no recognizable heading it is kept as the
// documentation.
func NewFileAnalysis(path, language, raw string) FileAnalysis {
	s := Extract(raw)
	fa := FileAnalysis{
		Path:          path,
		Language:      language,
		Summary:       orDefault(s.Summary, NoSummary),
		Purpose:       orDefault(s.Purpose, NoPurpose),
		KeyChanges:    nonNil(s.KeyChanges),
		Impact:        orDefault(s.Impact, NoImpact),
		Documentation: orDefault(s.Documentation, NoDocumentation),
		Suggestions:   nonNil(s.Suggestions),
	}
	if s.Empty() && raw != "" {
		fa.Documentation = raw
	}
	return fa
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// SkippedFile records a file left out of the report and why.
type SkippedFile struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root,omitempty" yaml:"root,omitempty"`
	Head   string `json:"head,omitempty" yaml:"head,omitempty"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// CommitInfo is one commit covered by a range analysis.
type CommitInfo struct {
	SHA     string `json:"sha" yaml:"sha"`
	Subject string `json:"subject" yaml:"subject"`
}

// InputInfo describes what was analyzed.
type InputInfo struct {
	Mode     string       `json:"mode" yaml:"mode"`
	Range    string       `json:"range,omitempty" yaml:"range,omitempty"`
	Commits  []CommitInfo `json:"commits,omitempty" yaml:"commits,omitempty"`
	Filtered []string     `json:"filtered,omitempty" yaml:"filtered,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs   int64 `json:"gitMs" yaml:"gitMs"`
	LLMMs   int64 `json:"llmMs" yaml:"llmMs"`
	TotalMs int64 `json:"totalMs" yaml:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool        string          `json:"tool" yaml:"tool"`
	Version     string          `json:"version" yaml:"version"`
	RunID       string          `json:"runId" yaml:"runId"`
	Project     project.Context `json:"project" yaml:"project"`
	Repo        RepoInfo        `json:"repo" yaml:"repo"`
	Inputs      InputInfo       `json:"inputs" yaml:"inputs"`
	Provider    string          `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string          `json:"model,omitempty" yaml:"model,omitempty"`
	Files       []FileAnalysis  `json:"files" yaml:"files"`
	Skipped     []SkippedFile   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt" yaml:"generatedAt"`
	Timing      Timing          `json:"timing" yaml:"timing"`
}
