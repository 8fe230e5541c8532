// Package project detects the name, kind, framework and stated purpose of
// the repository being analyzed, for use in prompts and report headers.
package project
