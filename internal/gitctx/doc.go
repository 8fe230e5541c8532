// Package gitctx extracts per-file diffs and repository metadata.
//
// Diffs come from the git command line in four modes (unstaged, staged,
// commit, range) or from raw diff text ([FromDiffText]). Each changed file
// is returned as a [FileChange] with its own diff body, authoritative
// addition/deletion counts from `git diff --numstat`, and the file's current
// content when it still exists.
//
// Repository metadata (root, HEAD, branch) is read with go-git. [ListCommits]
// returns the commits covered by a range, oldest first, and the hook helpers
// manage a marked section of the post-commit hook.
package gitctx
