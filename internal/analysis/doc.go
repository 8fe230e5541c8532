// Package analysis turns per-file diffs into explained changes.
//
// The engine filters the changed paths, parses each surviving file's diff
// into change records, builds an instruction/content prompt pair, sends it
// to an AI backend and splits the free-text answer into six labeled
// sections: Summary, Purpose, Key Changes, Impact, Documentation and
// Suggestions.
//
// Section extraction (sections.go) is a best-effort heuristic. It never
// fails; headings the model left out fall back to fixed placeholders, and a
// response with no recognizable heading at all is kept verbatim as the
// documentation.
//
// Guidelines files (guidelines.go) add focus areas and required checks to
// every instruction.
package analysis
