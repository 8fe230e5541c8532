// Package output renders analysis reports.
//
// Four formats are supported:
//   - markdown: the fixed "Code Analysis Report" document (default)
//   - text: terminal output with wrapped paragraphs
//   - json: the full structured report
//   - yaml: the same structure as json, in YAML
//
// Use [GetWriter] to obtain a [Writer] for a format name, or [WriteReport]
// to write straight to a file or stdout. [Assemble] returns the Markdown
// document as a string, which is what gets posted to pull requests.
package output
