package output

import (
	"io"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/dshills/changelens/internal/analysis"
)

// YAMLWriter outputs the full report as YAML.
type YAMLWriter struct{}

func (y *YAMLWriter) Write(w io.Writer, report *analysis.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "encoding YAML")
	}
	return errors.Wrap(enc.Close(), "closing YAML encoder")
}
