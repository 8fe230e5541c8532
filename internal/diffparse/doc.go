// Package diffparse turns unified diff text into line-level change records.
//
// A hunk header resets a cursor to the hunk's new-file start line. Additions
// are recorded at the cursor and advance it, deletions are recorded at the
// cursor without advancing it, and context lines advance it silently. Each
// record carries up to 2W+1 surrounding context lines from the same hunk.
//
// Because deletions never move the cursor, a run of deletions reports the
// same line number: the position in the surviving file where the removed
// text used to be. Consumers must not expect deletion line numbers to be
// strictly increasing.
//
// The parser is best-effort. Malformed hunk headers and lines it cannot
// classify are skipped; parsing never fails.
package diffparse
