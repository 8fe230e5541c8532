// Package filter decides which changed files go on to analysis using
// include/exclude glob rules. Exclusion always wins.
package filter
