// Package logging builds the zap logger shared by the CLI, the analysis
// engine and the backend dispatcher. Logs go to stderr so they never mix
// with a report written to stdout.
package logging
