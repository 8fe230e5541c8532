package gitctx

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/dshills/changelens/internal/diffparse"
)

// Modes recorded in DiffResult.Mode.
const (
	ModeUnstaged = "unstaged"
	ModeStaged   = "staged"
	ModeCommit   = "commit"
	ModeRange    = "range"
	ModeDiff     = "diff"
	ModePR       = "pr"
)

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	// ContextLines is passed to git as -U<n> when positive.
	ContextLines int
	// MaxDiffBytes caps each file's diff body; longer bodies are cut at a
	// line boundary and marked Truncated. 0 disables the cap.
	MaxDiffBytes int
	// SkipContent leaves FullContent nil for every file.
	SkipContent bool
}

// FileChange is one changed file of a diff.
type FileChange struct {
	Path      string
	OldPath   string
	Diff      string
	Additions int
	Deletions int
	Binary    bool
	New       bool
	Deleted   bool
	Truncated bool
	// FullContent is the file after the change; nil when deleted, binary or
	// unreadable.
	FullContent *string
}

// DiffResult holds the changed files and where they came from.
type DiffResult struct {
	Files   []FileChange
	Mode    string
	Range   string
	Commits []CommitInfo
	Repo    RepoMeta
	// Elapsed is the time spent collecting the diff.
	Elapsed time.Duration
}

// Paths returns the changed paths in diff order.
func (d DiffResult) Paths() []string {
	out := make([]string, len(d.Files))
	for i, f := range d.Files {
		out[i] = f.Path
	}
	return out
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// CommitInfo holds a commit SHA and its subject line.
type CommitInfo struct {
	SHA     string
	Subject string
}

// Client runs git in one repository.
type Client struct {
	dir string
	log *zap.Logger
}

// New returns a client for the repository containing dir. An empty dir
// means the working directory.
func New(dir string, log *zap.Logger) *Client {
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{dir: dir, log: log}
}

// RepoMeta reads repository metadata with go-git. A repository without
// commits has an empty Head.
func (c *Client) RepoMeta() (RepoMeta, error) {
	repo, err := git.PlainOpenWithOptions(c.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return RepoMeta{}, errors.WithHint(errors.Wrap(err, "not a git repository"),
			"run changelens inside a git work tree, or use `analyze diff` with a diff file")
	}

	var meta RepoMeta
	if wt, err := repo.Worktree(); err == nil {
		meta.Root = wt.Filesystem.Root()
	}

	head, err := repo.Head()
	switch {
	case err == nil:
		meta.Head = head.Hash().String()
		if head.Name().IsBranch() {
			meta.Branch = head.Name().Short()
		} else {
			meta.Branch = "HEAD"
		}
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch: HEAD is symbolic but points nowhere yet.
		if ref, rerr := repo.Reference(plumbing.HEAD, false); rerr == nil && ref.Type() == plumbing.SymbolicReference {
			meta.Branch = ref.Target().Short()
		}
	default:
		return RepoMeta{}, errors.Wrap(err, "reading HEAD")
	}
	return meta, nil
}

// Unstaged returns the diff of working tree vs index.
func (c *Client) Unstaged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	return c.collect(ctx, ModeUnstaged, "", nil, worktreeSource, opts)
}

// Staged returns the diff of index vs HEAD.
func (c *Client) Staged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	return c.collect(ctx, ModeStaged, "", []string{"--cached"}, ":", opts)
}

// Commit returns the diff a commit introduced. Root commits are diffed
// against the empty tree.
func (c *Client) Commit(ctx context.Context, rev string, opts DiffOptions) (DiffResult, error) {
	sha, err := c.git(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return DiffResult{}, errors.Wrapf(err, "resolving commit %s", rev)
	}
	sha = strings.TrimSpace(sha)

	base := sha + "^"
	if _, err := c.git(ctx, "rev-parse", "--verify", "--quiet", base); err != nil {
		base = emptyTree
	}
	res, err := c.collect(ctx, ModeCommit, rev, []string{base, sha}, sha+":", opts)
	if err != nil {
		return DiffResult{}, err
	}
	if subject, err := c.git(ctx, "log", "-1", "--format=%s", sha); err == nil {
		res.Commits = []CommitInfo{{SHA: sha, Subject: strings.TrimSpace(subject)}}
	}
	return res, nil
}

// Range returns the combined diff for a revision range. With mergeBase, "a..b"
// is diffed as "a...b" (changes on b since it forked from a).
func (c *Client) Range(ctx context.Context, revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	diffRange := rangeSpec(revRange, mergeBase)
	res, err := c.collect(ctx, ModeRange, revRange, []string{diffRange}, rangeContentSource(diffRange), opts)
	if err != nil {
		return DiffResult{}, err
	}
	commits, err := c.ListCommits(ctx, revRange, mergeBase)
	if err != nil {
		c.log.Warn("Could not list commits in range", zap.String("range", revRange), zap.Error(err))
	}
	res.Commits = commits
	return res, nil
}

// ListCommits returns commits in a revision range, oldest first.
func (c *Client) ListCommits(ctx context.Context, revRange string, mergeBase bool) ([]CommitInfo, error) {
	out, err := c.git(ctx, "rev-list", "--reverse", "--format=%s", rangeSpec(revRange, mergeBase))
	if err != nil {
		return nil, errors.Wrapf(err, "git rev-list %s", revRange)
	}
	return parseRevList(out), nil
}

// parseRevList parses "commit <sha>\n<subject>\n" pairs.
func parseRevList(out string) []CommitInfo {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	var commits []CommitInfo
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "commit ") {
			continue
		}
		ci := CommitInfo{SHA: strings.TrimPrefix(line, "commit ")}
		if i+1 < len(lines) && !strings.HasPrefix(lines[i+1], "commit ") {
			ci.Subject = strings.TrimSpace(lines[i+1])
			i++
		}
		commits = append(commits, ci)
	}
	return commits
}

// rangeContentSource returns where post-change content lives for a diff
// range: the tip revision of "a..b", HEAD when the tip is omitted, and the
// working tree for a single revision.
func rangeContentSource(diffRange string) string {
	i := strings.LastIndex(diffRange, "..")
	if i < 0 {
		return worktreeSource
	}
	if tip := strings.TrimLeft(diffRange[i+2:], "."); tip != "" {
		return tip + ":"
	}
	return "HEAD:"
}

func rangeSpec(revRange string, mergeBase bool) string {
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		return strings.Replace(revRange, "..", "...", 1)
	}
	return revRange
}

// emptyTree is git's well-known empty tree object.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// worktreeSource marks that full content comes from the working tree rather
// than from `git show <prefix><path>`.
const worktreeSource = ""

func (c *Client) collect(ctx context.Context, mode, rangeStr string, revArgs []string, contentPrefix string, opts DiffOptions) (DiffResult, error) {
	start := time.Now()

	meta, err := c.RepoMeta()
	if err != nil {
		return DiffResult{}, err
	}

	diffArgs := []string{"diff", "--no-color", "--no-ext-diff"}
	if opts.ContextLines > 0 {
		diffArgs = append(diffArgs, "-U"+strconv.Itoa(opts.ContextLines))
	}
	diffArgs = append(diffArgs, revArgs...)

	text, err := c.git(ctx, append(diffArgs, "--")...)
	if err != nil {
		return DiffResult{}, errors.Wrapf(err, "git %s", strings.Join(diffArgs, " "))
	}
	numArgs := append([]string{"diff", "--numstat", "--no-color"}, revArgs...)
	numstat, err := c.git(ctx, append(numArgs, "--")...)
	if err != nil {
		c.log.Warn("git diff --numstat failed; counting from diff text", zap.Error(err))
		numstat = ""
	}

	res := buildResult(text, parseNumstat(numstat), opts)
	res.Mode = mode
	res.Range = rangeStr
	res.Repo = meta

	if !opts.SkipContent {
		for i := range res.Files {
			fc := &res.Files[i]
			if fc.Deleted || fc.Binary {
				continue
			}
			fc.FullContent = c.content(ctx, meta.Root, contentPrefix, fc.Path)
		}
	}

	res.Elapsed = time.Since(start)
	c.log.Debug("Collected diff",
		zap.String("mode", mode),
		zap.Int("files", len(res.Files)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (c *Client) content(ctx context.Context, root, prefix, path string) *string {
	if prefix == worktreeSource {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
		if err != nil {
			return nil
		}
		s := string(data)
		return &s
	}
	out, err := c.git(ctx, "show", prefix+path)
	if err != nil {
		return nil
	}
	return &out
}

// FromDiffText splits raw multi-file diff text into a DiffResult without
// touching a repository. Counts come from the diff bodies.
func FromDiffText(text, mode string) DiffResult {
	res := buildResult(text, nil, DiffOptions{SkipContent: true})
	res.Mode = mode
	return res
}

type counts struct {
	additions, deletions int
	binary               bool
}

func buildResult(text string, stats map[string]counts, opts DiffOptions) DiffResult {
	sections := diffparse.SplitFiles(text)
	files := make([]FileChange, 0, len(sections))
	for _, s := range sections {
		fc := FileChange{
			Path:      s.Path,
			OldPath:   s.OldPath,
			Diff:      s.Diff,
			Additions: s.Additions,
			Deletions: s.Deletions,
			Binary:    s.Binary,
			New:       s.New,
			Deleted:   s.Deleted,
		}
		if st, ok := stats[s.Path]; ok {
			fc.Additions, fc.Deletions = st.additions, st.deletions
			fc.Binary = fc.Binary || st.binary
		}
		if opts.MaxDiffBytes > 0 && len(fc.Diff) > opts.MaxDiffBytes {
			cut := fc.Diff[:opts.MaxDiffBytes]
			if nl := strings.LastIndexByte(cut, '\n'); nl > 0 {
				cut = cut[:nl+1]
			}
			fc.Diff = cut
			fc.Truncated = true
		}
		files = append(files, fc)
	}
	return DiffResult{Files: files}
}

// parseNumstat reads `git diff --numstat` output keyed by post-change path.
// Binary files report "-" for both counts.
func parseNumstat(out string) map[string]counts {
	stats := make(map[string]counts)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		var st counts
		if parts[0] == "-" && parts[1] == "-" {
			st.binary = true
		} else {
			a, errA := strconv.Atoi(parts[0])
			d, errD := strconv.Atoi(parts[1])
			if errA != nil || errD != nil {
				continue
			}
			st.additions, st.deletions = a, d
		}
		stats[renameTarget(parts[2])] = st
	}
	return stats
}

// renameTarget resolves numstat rename notation ("old => new" or
// "dir/{old => new}/file") to the new path.
func renameTarget(p string) string {
	open := strings.Index(p, "{")
	closing := strings.Index(p, "}")
	if open >= 0 && closing > open {
		inner := p[open+1 : closing]
		if i := strings.Index(inner, " => "); i >= 0 {
			joined := p[:open] + inner[i+4:] + p[closing+1:]
			return strings.ReplaceAll(joined, "//", "/")
		}
	}
	if i := strings.Index(p, " => "); i >= 0 {
		return p[i+4:]
	}
	return p
}

func (c *Client) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return string(out), errors.Wrapf(err, "git %s: %s", args[0], msg)
		}
		return string(out), errors.Wrap(err, "running git")
	}
	return string(out), nil
}
