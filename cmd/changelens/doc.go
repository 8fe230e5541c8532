// Changelens explains code changes with an AI model.
//
// It splits a unified diff into per-file change records, asks the configured
// provider to describe each file, and assembles the answers into a Markdown,
// text, JSON or YAML report. Files that fail are skipped with a notice and
// exit code 1.
//
// Usage:
//
//	changelens analyze unstaged              # working tree changes
//	changelens analyze staged                # staged changes
//	changelens analyze commit [rev]          # one commit (default HEAD)
//	changelens analyze range origin/main..HEAD
//	changelens analyze diff change.diff      # a diff file, or - for stdin
//	changelens analyze pr 42                 # a GitHub PR, posted as a comment
//	changelens hook install                  # analyze every commit
package main
