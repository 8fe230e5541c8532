package output

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dshills/changelens/internal/analysis"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *analysis.Report) error
}

// Formats lists the accepted format names.
func Formats() []string {
	return []string{"markdown", "text", "json", "yaml"}
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return &MarkdownWriter{}, nil
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "yaml", "yml":
		return &YAMLWriter{}, nil
	default:
		return nil, errors.WithHintf(
			errors.Newf("unsupported output format: %s", format),
			"use one of: %s", strings.Join(Formats(), ", "))
	}
}

// WriteReport writes the report to outPath, or to stdout when outPath is
// empty.
func WriteReport(report *analysis.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
