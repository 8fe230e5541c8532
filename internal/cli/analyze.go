package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/changelens/internal/analysis"
	"github.com/dshills/changelens/internal/cache"
	"github.com/dshills/changelens/internal/config"
	"github.com/dshills/changelens/internal/filter"
	"github.com/dshills/changelens/internal/github"
	"github.com/dshills/changelens/internal/gitctx"
	"github.com/dshills/changelens/internal/logging"
	"github.com/dshills/changelens/internal/output"
	"github.com/dshills/changelens/internal/project"
	"github.com/dshills/changelens/internal/providers"
	"github.com/dshills/changelens/internal/redact"
)

// openBackend builds the backend for cfg. Tests replace it.
var openBackend = func(cfg config.Config, log *zap.Logger) (providers.Backend, error) {
	b, err := providers.New(cfg.Provider, providers.Settings{Model: cfg.Model, BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	return providers.NewDispatcher(b, providers.DispatchOptions{
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            log,
	}), nil
}

// diffSource produces the diff an analyze subcommand works on.
type diffSource func(ctx context.Context, git *gitctx.Client, opts gitctx.DiffOptions) (gitctx.DiffResult, error)

// Flags named like config keys are bound by config.Load.
func addAnalyzeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("provider", "", "AI provider (anthropic, openai, local, ollama, lmstudio)")
	f.String("model", "", "Model name")
	f.String("base-url", "", "Override the provider endpoint")
	f.String("format", "", "Output format (markdown, text, json, yaml)")
	f.String("out", "", "Output file path (default: stdout)")
	f.Int("context-window", 0, "Lines of context kept around each change")
	f.Int("context-lines", 0, "Context lines requested from git diff")
	f.Int("max-diff-bytes", 0, "Maximum diff bytes per file")
	f.Int("max-content-bytes", 0, "Maximum full-file bytes sent per file")
	f.StringSlice("include", nil, "Include file path globs (comma-separated)")
	f.StringSlice("exclude", nil, "Exclude file path globs (comma-separated)")
	f.String("guidelines-file", "", "Team guidelines file (YAML or JSON)")
	f.String("project-purpose", "", "Describe the project instead of reading the README")
	f.Int("concurrency", 0, "Files analyzed at once")
	f.Bool("fail-fast", false, "Abort on the first failed file instead of skipping it")
	f.Int("requests-per-minute", 0, "Cap backend requests per minute (0 = unlimited)")
	f.String("cache-redis-addr", "", "Share the response cache through Redis (host:port or redis:// URL)")
	f.Bool("no-cache", false, "Bypass the response cache")
	f.Bool("no-redact", false, "Disable secret redaction (use with caution)")
}

// runAnalysis loads config, collects the diff from src, analyzes it and
// writes the report. It returns nil after recording an exit code when any
// step fails.
func runAnalysis(cmd *cobra.Command, src diffSource) *analysis.Report {
	stderr := cmd.ErrOrStderr()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		fail(stderr, err, ExitUsageError)
		return nil
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if noRedact, _ := cmd.Flags().GetBool("no-redact"); noRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(stderr, "WARNING: secret redaction is disabled")
	}

	log, err := logging.NewWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fail(stderr, err, ExitUsageError)
		return nil
	}
	defer log.Sync() //nolint:errcheck

	ctx := cmd.Context()
	git := gitctx.New("", log)
	diff, err := src(ctx, git, gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
	})
	if err != nil {
		fail(stderr, err, exitCodeFor(err))
		return nil
	}

	analyzer, closeCache, err := newAnalyzer(cfg, diff.Repo.Root, log)
	if err != nil {
		fail(stderr, err, exitCodeFor(err))
		return nil
	}
	defer closeCache()

	report, err := analyzer.Run(ctx, diff)
	if err != nil {
		fail(stderr, err, exitCodeFor(err))
		return nil
	}

	out, _ := cmd.Flags().GetString("out")
	if err := output.WriteReport(report, cfg.Format, out); err != nil {
		fail(stderr, errors.Wrap(err, "writing output"), ExitRuntimeError)
		return nil
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(stderr, "%d file(s) skipped; see the report for reasons.\n", len(report.Skipped))
		exitCode = ExitSkipped
	}
	return report
}

// newAnalyzer wires the backend, cache, redaction policy, guidelines and
// project context for one run. The returned func releases the cache.
func newAnalyzer(cfg config.Config, root string, log *zap.Logger) (*analysis.Analyzer, func(), error) {
	backend, err := openBackend(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	guidelines, err := analysis.LoadGuidelines(cfg.GuidelinesFile)
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.Open(cache.Options{
		Enabled:    cfg.Cache.Enabled,
		Dir:        cfg.Cache.Dir,
		TTLSeconds: cfg.Cache.TTLSeconds,
		RedisAddr:  cfg.Cache.RedisAddr,
	})
	if err != nil {
		log.Warn("Cache unavailable, continuing without it", zap.Error(err))
		store = cache.Disabled{}
	}
	closeCache := func() { closeStore(store) }

	if root == "" {
		root = "."
	}
	model := cfg.Model
	if canon, err := providers.Canonical(cfg.Provider); err == nil && model == "" {
		model = providers.DefaultModel(canon)
	}

	analyzer, err := analysis.New(analysis.Options{
		Backend:         backend,
		Provider:        backend.Name(),
		Model:           model,
		Cache:           store,
		Redact:          redact.NewPolicy(cfg.Privacy.RedactSecrets, cfg.Privacy.RedactPaths),
		Rules:           filter.Rules{Include: cfg.Include, Exclude: cfg.Exclude},
		Guidelines:      guidelines,
		Project:         project.Detect(root, cfg.Project.Purpose),
		Window:          cfg.ContextWindow,
		MaxContentBytes: cfg.MaxContentBytes,
		Concurrency:     cfg.Concurrency,
		FailFast:        cfg.FailFast,
		Version:         version,
		Logger:          log,
	})
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	return analyzer, closeCache, nil
}

var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Aliases: []string{"a"},
	Short:   "Explain code changes",
	Long:    "Explain code changes file by file. Use subcommands to choose which changes.",
}

var analyzeUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Analyze unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runAnalysis(cmd, func(ctx context.Context, git *gitctx.Client, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			return git.Unstaged(ctx, opts)
		})
		return nil
	},
}

var analyzeStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Analyze staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runAnalysis(cmd, func(ctx context.Context, git *gitctx.Client, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			return git.Staged(ctx, opts)
		})
		return nil
	},
}

var analyzeCommitCmd = &cobra.Command{
	Use:   "commit [rev]",
	Short: "Analyze the changes a commit introduced (default HEAD)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rev := "HEAD"
		if len(args) == 1 {
			rev = args[0]
		}
		runAnalysis(cmd, func(ctx context.Context, git *gitctx.Client, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			return git.Commit(ctx, rev, opts)
		})
		return nil
	},
}

var analyzeRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Analyze a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mergeBase, _ := cmd.Flags().GetBool("merge-base")
		runAnalysis(cmd, func(ctx context.Context, git *gitctx.Client, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			return git.Range(ctx, args[0], mergeBase, opts)
		})
		return nil
	},
}

var analyzeDiffCmd = &cobra.Command{
	Use:   "diff [file|-]",
	Short: "Analyze a unified diff from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "-"
		if len(args) == 1 {
			name = args[0]
		}
		runAnalysis(cmd, func(ctx context.Context, git *gitctx.Client, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			text, err := readDiffInput(name, cmd.InOrStdin())
			if err != nil {
				return gitctx.DiffResult{}, err
			}
			res := gitctx.FromDiffText(text, gitctx.ModeDiff)
			if name != "-" {
				res.Range = name
			}
			return res, nil
		})
		return nil
	},
}

var analyzePRCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Analyze a GitHub pull request and post the report as a comment",
	Long: "Fetch a pull request diff from GitHub, analyze it, and post the Markdown report as a PR comment. " +
		"A later run on the same PR edits that comment. Requires GITHUB_TOKEN.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stderr := cmd.ErrOrStderr()
		prNumber, err := strconv.Atoi(args[0])
		if err != nil || prNumber <= 0 {
			fail(stderr, errors.Newf("invalid PR number %q", args[0]), ExitUsageError)
			return nil
		}

		owner, repo, err := prRepository(cmd)
		if err != nil {
			fail(stderr, errors.WithHint(err, "use --repo owner/name to specify the repository"), ExitUsageError)
			return nil
		}

		gh, err := github.NewClient()
		if err != nil {
			fail(stderr, err, ExitAuthError)
			return nil
		}

		report := runAnalysis(cmd, func(ctx context.Context, _ *gitctx.Client, _ gitctx.DiffOptions) (gitctx.DiffResult, error) {
			fmt.Fprintf(stderr, "Fetching PR #%d from %s/%s...\n", prNumber, owner, repo)
			text, err := gh.GetPRDiff(ctx, owner, repo, prNumber)
			if err != nil {
				return gitctx.DiffResult{}, err
			}
			res := gitctx.FromDiffText(text, gitctx.ModePR)
			res.Range = fmt.Sprintf("%s/%s#%d", owner, repo, prNumber)
			return res, nil
		})
		if report == nil {
			return nil
		}

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			fmt.Fprintf(stderr, "Dry run: %d file(s) analyzed, not posting to GitHub.\n", len(report.Files))
			return nil
		}

		updated, err := gh.UpsertReport(cmd.Context(), owner, repo, prNumber, output.Assemble(report))
		if err != nil {
			fail(stderr, errors.Wrap(err, "posting report"), exitCodeFor(err))
			return nil
		}
		if updated {
			fmt.Fprintf(stderr, "Updated report comment on PR #%d.\n", prNumber)
		} else {
			fmt.Fprintf(stderr, "Posted report comment to PR #%d.\n", prNumber)
		}
		return nil
	},
}

// prRepository resolves owner/repo from --repo or the origin remote.
func prRepository(cmd *cobra.Command) (string, string, error) {
	if slug, _ := cmd.Flags().GetString("repo"); slug != "" {
		return github.ParseRepoSlug(slug)
	}
	return github.DetectRepo(".")
}

// readDiffInput reads the diff named by name, or stdin when name is "-".
func readDiffInput(name string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading diff %s", name)
	}
	return string(data), nil
}

func init() {
	for _, cmd := range []*cobra.Command{
		analyzeUnstagedCmd,
		analyzeStagedCmd,
		analyzeCommitCmd,
		analyzeRangeCmd,
		analyzeDiffCmd,
		analyzePRCmd,
	} {
		analyzeCmd.AddCommand(cmd)
		addAnalyzeFlags(cmd)
	}

	analyzeRangeCmd.Flags().Bool("merge-base", true, "Diff against the merge base for a..b ranges")

	analyzePRCmd.Flags().String("repo", "", "GitHub repository as owner/name (auto-detected if omitted)")
	analyzePRCmd.Flags().Bool("dry-run", false, "Analyze but don't post to GitHub")
}
