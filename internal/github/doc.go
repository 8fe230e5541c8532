// Package github is a small GitHub REST client for pull request analysis.
//
// It fetches a PR's unified diff and posts the Markdown report as an issue
// comment. The comment carries [CommentMarker], so re-running on the same PR
// edits the earlier comment instead of adding another. Credentials come from
// GITHUB_TOKEN; GITHUB_API_URL points the client at GitHub Enterprise.
package github
