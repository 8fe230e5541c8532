// Package cli wires together the Cobra command tree for the changelens binary.
//
// It defines the root command and all subcommands (analyze, config, models,
// cache, hook, version), binds flags through the config package, runs the
// analysis engine, and returns deterministic exit codes for CI and hooks.
package cli
