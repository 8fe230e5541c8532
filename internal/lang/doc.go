// Package lang maps file paths to canonical language tags by extension.
//
// Classification is a pure table lookup on the lower-cased extension; file
// contents are never inspected.
package lang
