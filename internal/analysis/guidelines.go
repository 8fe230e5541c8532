package analysis

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Guidelines is a team policy file loaded from --guidelines.
type Guidelines struct {
	Focus    []string        `json:"focus,omitempty" yaml:"focus,omitempty"`
	Required []RequiredCheck `json:"required,omitempty" yaml:"required,omitempty"`
	Notes    string          `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// RequiredCheck is something every explanation should address.
type RequiredCheck struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// LoadGuidelines reads a YAML or JSON guidelines file. JSON parses as YAML.
// It returns nil and no error when path is empty.
func LoadGuidelines(path string) (*Guidelines, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading guidelines file")
	}
	var g Guidelines
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrapf(err, "parsing guidelines file %s", path)
	}
	return &g, nil
}

// BuildGuidelinesSection returns extra instruction text derived from g.
func BuildGuidelinesSection(g *Guidelines) string {
	if g == nil {
		return ""
	}

	var b strings.Builder

	if len(g.Focus) > 0 {
		fmt.Fprintf(&b, "\n\nFocus areas: %s. Mention them under Impact or Suggestions when relevant.",
			strings.Join(g.Focus, ", "))
	}

	if len(g.Required) > 0 {
		b.WriteString("\n\nRequired checks (address each under Suggestions):")
		for _, req := range g.Required {
			fmt.Fprintf(&b, "\n- [%s] %s", req.ID, req.Text)
		}
	}

	if notes := strings.TrimSpace(g.Notes); notes != "" {
		b.WriteString("\n\nTeam notes:\n")
		b.WriteString(notes)
	}

	return b.String()
}
