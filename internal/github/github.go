package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
)

const defaultAPIURL = "https://api.github.com"

// CommentMarker tags the report comment so later runs update it in place.
const CommentMarker = "<!-- changelens-report -->"

// ErrUnauthorized marks errors caused by a missing or rejected token.
var ErrUnauthorized = errors.New("github: unauthorized")

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a client from GITHUB_TOKEN and, when set,
// GITHUB_API_URL.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.New("GITHUB_TOKEN environment variable is not set"), ErrUnauthorized),
			"create a token with pull request read/write access and export GITHUB_TOKEN")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	return &Client{
		token:   token,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// GetPRDiff fetches the unified diff of a pull request.
func (c *Client) GetPRDiff(ctx context.Context, owner, repo string, prNumber int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.apiURL, owner, repo, prNumber)
	status, body, err := c.do(ctx, http.MethodGet, url, "application/vnd.github.v3.diff", nil)
	if err != nil {
		return "", errors.Wrap(err, "fetching PR diff")
	}
	if status == http.StatusNotFound {
		return "", errors.Newf("PR #%d not found in %s/%s", prNumber, owner, repo)
	}
	if err := checkStatus(status, body); err != nil {
		return "", err
	}
	return string(body), nil
}

// Comment is an issue comment on a pull request.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// FindComment returns the first comment on the PR whose body contains
// marker, or nil when there is none.
func (c *Client) FindComment(ctx context.Context, owner, repo string, prNumber int, marker string) (*Comment, error) {
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=100&page=%d",
			c.apiURL, owner, repo, prNumber, page)
		status, body, err := c.do(ctx, http.MethodGet, url, "application/vnd.github.v3+json", nil)
		if err != nil {
			return nil, errors.Wrap(err, "listing PR comments")
		}
		if err := checkStatus(status, body); err != nil {
			return nil, err
		}

		var comments []Comment
		if err := json.Unmarshal(body, &comments); err != nil {
			return nil, errors.Wrap(err, "parsing response")
		}
		for i := range comments {
			if strings.Contains(comments[i].Body, marker) {
				return &comments[i], nil
			}
		}
		if len(comments) < 100 {
			return nil, nil
		}
	}
}

// PostComment adds a new comment to the PR.
func (c *Client) PostComment(ctx context.Context, owner, repo string, prNumber int, text string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.apiURL, owner, repo, prNumber)
	return c.sendComment(ctx, http.MethodPost, url, text)
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, id int64, text string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.apiURL, owner, repo, id)
	return c.sendComment(ctx, http.MethodPatch, url, text)
}

// UpsertReport posts report as a marked comment, editing the previous
// marked comment when one exists. It reports whether an edit happened.
func (c *Client) UpsertReport(ctx context.Context, owner, repo string, prNumber int, report string) (bool, error) {
	body := CommentBody(report)
	existing, err := c.FindComment(ctx, owner, repo, prNumber, CommentMarker)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return true, c.UpdateComment(ctx, owner, repo, existing.ID, body)
	}
	return false, c.PostComment(ctx, owner, repo, prNumber, body)
}

// CommentBody prefixes report with CommentMarker.
func CommentBody(report string) string {
	return CommentMarker + "\n" + report
}

func (c *Client) sendComment(ctx context.Context, method, url, text string) error {
	payload, err := json.Marshal(map[string]string{"body": text})
	if err != nil {
		return errors.Wrap(err, "marshaling comment")
	}
	status, body, err := c.do(ctx, method, url, "application/vnd.github.v3+json", payload)
	if err != nil {
		return errors.Wrap(err, "posting comment")
	}
	if status == http.StatusUnprocessableEntity {
		return errors.Newf("GitHub rejected comment (422): %s", string(body))
	}
	return checkStatus(status, body)
}

func (c *Client) do(ctx context.Context, method, url, accept string, payload []byte) (int, []byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return 0, nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "reading response")
	}
	return resp.StatusCode, body, nil
}

func checkStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Mark(errors.Newf("authentication failed: %s", string(body)), ErrUnauthorized)
	case status < 200 || status >= 300:
		return errors.Newf("GitHub API error (status %d): %s", status, string(body))
	}
	return nil
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the origin remote of the repository
// containing dir.
func DetectRepo(dir string) (owner, repo string, err error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", errors.Wrap(err, "cannot detect repo: opening git repository")
	}
	remote, err := r.Remote("origin")
	if err != nil {
		return "", "", errors.Wrap(err, "cannot detect repo: no origin remote")
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", errors.New("cannot detect repo: origin has no URL")
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", errors.Newf("cannot parse owner/repo from remote URL: %s", url)
}

// ParseRepoSlug splits "owner/repo".
func ParseRepoSlug(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", errors.Newf("invalid repository %q, want owner/repo", slug)
	}
	return owner, repo, nil
}
