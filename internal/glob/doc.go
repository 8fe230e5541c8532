// Package glob compiles the small wildcard dialect used by include/exclude
// rules into whole-path matchers.
//
// Supported syntax is deliberately narrow: "**" crosses directory
// separators, "*" and "?" do not. Everything else is literal. There are no
// character classes, brace alternatives, or negations; a pattern using them
// simply matches those characters literally.
package glob
