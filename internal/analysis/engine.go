package analysis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/changelens/internal/cache"
	"github.com/dshills/changelens/internal/diffparse"
	"github.com/dshills/changelens/internal/filter"
	"github.com/dshills/changelens/internal/gitctx"
	"github.com/dshills/changelens/internal/lang"
	"github.com/dshills/changelens/internal/project"
	"github.com/dshills/changelens/internal/providers"
	"github.com/dshills/changelens/internal/redact"
)

// Tool is the name recorded in every report.
const Tool = "changelens"

// Options configures an Analyzer. Only Backend is required.
type Options struct {
	Backend providers.Backend
	// Provider and Model identify the backend in cache keys and the report.
	Provider string
	Model    string

	Cache      cache.Store
	Redact     *redact.Policy
	Rules      filter.Rules
	Guidelines *Guidelines
	Project    project.Context

	// Window is the context radius around each change record; negative
	// selects diffparse.DefaultWindow.
	Window int
	// MaxContentBytes caps the full file content sent per file; 0 disables
	// the cap.
	MaxContentBytes int
	// Concurrency is the number of files analyzed at once; values below 2
	// analyze sequentially.
	Concurrency int
	// FailFast aborts the run on the first failed file instead of skipping it.
	FailFast bool

	Version string
	Logger  *zap.Logger
}

// Analyzer explains the files of a diff. It holds no per-run state and may
// be reused.
type Analyzer struct {
	opts   Options
	filter *filter.Filter
	log    *zap.Logger
}

// New validates opts and returns an Analyzer.
func New(opts Options) (*Analyzer, error) {
	if opts.Backend == nil {
		return nil, errors.New("analysis: backend is required")
	}
	if opts.Cache == nil {
		opts.Cache = cache.Disabled{}
	}
	if opts.Redact == nil {
		opts.Redact = redact.NewPolicy(false, nil)
	}
	if opts.Provider == "" {
		opts.Provider = opts.Backend.Name()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{opts: opts, filter: filter.Compile(opts.Rules), log: log}, nil
}

// Run analyzes every file of diff that passes the filter and assembles a
// report in diff order. A file whose analysis fails is left out and
// recorded in Report.Skipped, unless FailFast is set or the failure is an
// authentication error; those abort the run.
func (a *Analyzer) Run(ctx context.Context, diff gitctx.DiffResult) (*Report, error) {
	start := time.Now()

	report := &Report{
		Tool:        Tool,
		Version:     a.opts.Version,
		RunID:       uuid.NewString(),
		Project:     a.opts.Project,
		Repo:        RepoInfo{Root: diff.Repo.Root, Head: diff.Repo.Head, Branch: diff.Repo.Branch},
		Inputs:      InputInfo{Mode: diff.Mode, Range: diff.Range},
		Provider:    a.opts.Provider,
		Model:       a.opts.Model,
		Files:       []FileAnalysis{},
		GeneratedAt: start.UTC(),
	}
	for _, c := range diff.Commits {
		report.Inputs.Commits = append(report.Inputs.Commits, CommitInfo{SHA: c.SHA, Subject: c.Subject})
	}

	var work []gitctx.FileChange
	for _, fc := range diff.Files {
		switch {
		case !a.filter.Allows(fc.Path):
			report.Inputs.Filtered = append(report.Inputs.Filtered, fc.Path)
		case fc.Binary:
			a.log.Warn("Skipping binary file", zap.String("path", fc.Path))
			report.Skipped = append(report.Skipped, SkippedFile{Path: fc.Path, Reason: "binary file"})
		default:
			work = append(work, fc)
		}
	}

	paths := make([]string, len(work))
	for i, fc := range work {
		paths[i] = fc.Path
	}
	report.Project.Languages = lang.Distinct(paths)

	a.log.Info("Analyzing changes",
		zap.String("mode", diff.Mode),
		zap.Int("files", len(work)),
		zap.Int("filtered", len(report.Inputs.Filtered)))

	var llm atomic.Int64
	results, failures, err := a.analyzeAll(ctx, work, report.Project, &llm)
	if err != nil {
		return nil, err
	}

	for i, fc := range work {
		if failures[i] != nil {
			a.log.Warn("Skipping file after failed analysis",
				zap.String("path", fc.Path), zap.Error(failures[i]))
			report.Skipped = append(report.Skipped, SkippedFile{Path: fc.Path, Reason: failures[i].Error()})
			continue
		}
		report.Files = append(report.Files, results[i])
	}

	report.Timing = Timing{
		GitMs:   diff.Elapsed.Milliseconds(),
		LLMMs:   llm.Load(),
		TotalMs: time.Since(start).Milliseconds() + diff.Elapsed.Milliseconds(),
	}

	a.log.Info("Analysis complete",
		zap.Int("analyzed", len(report.Files)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int64("llm_ms", report.Timing.LLMMs))
	return report, nil
}

// analyzeAll runs analyzeFile over files and returns results and per-file
// failures indexed like files. The error is non-nil only when the run must
// abort.
func (a *Analyzer) analyzeAll(ctx context.Context, files []gitctx.FileChange, proj project.Context, llm *atomic.Int64) ([]FileAnalysis, []error, error) {
	results := make([]FileAnalysis, len(files))
	failures := make([]error, len(files))

	if a.opts.Concurrency < 2 {
		for i, fc := range files {
			fa, err := a.analyzeFile(ctx, fc, proj, llm)
			if err != nil {
				if a.fatal(ctx, err) {
					return nil, nil, errors.Wrapf(err, "analyzing %s", fc.Path)
				}
				failures[i] = err
				continue
			}
			results[i] = fa
		}
		return results, failures, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i, fc := range files {
		g.Go(func() error {
			fa, err := a.analyzeFile(gctx, fc, proj, llm)
			if err != nil {
				if a.fatal(ctx, err) {
					return errors.Wrapf(err, "analyzing %s", fc.Path)
				}
				failures[i] = err
				return nil
			}
			results[i] = fa
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, failures, nil
}

func (a *Analyzer) fatal(ctx context.Context, err error) bool {
	return a.opts.FailFast || providers.IsAuthError(err) || ctx.Err() != nil
}

// analyzeFile runs one file through parse, redact, prompt, cache, dispatch
// and extract.
func (a *Analyzer) analyzeFile(ctx context.Context, fc gitctx.FileChange, proj project.Context, llm *atomic.Int64) (FileAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return FileAnalysis{}, err
	}

	language := lang.Classify(fc.Path)
	fd := diffparse.NewFileDiff(fc.Path, fc.Diff, fc.Additions, fc.Deletions,
		truncateContent(fc.FullContent, a.opts.MaxContentBytes), a.opts.Window)
	fd = a.opts.Redact.File(fd)

	instruction := BuildInstruction(proj, language, a.opts.Guidelines)
	content := BuildFileContent(fd)
	key := cache.BuildKey(a.opts.Provider, a.opts.Model, instruction, content)

	raw, hit := a.opts.Cache.Get(ctx, key)
	if !hit {
		a.log.Debug("Sending file to backend",
			zap.String("path", fc.Path),
			zap.String("language", language),
			zap.Int("records", len(fd.Changes)))

		start := time.Now()
		var err error
		raw, err = a.opts.Backend.Respond(ctx, instruction, content)
		llm.Add(time.Since(start).Milliseconds())
		if err != nil {
			return FileAnalysis{}, err
		}
		if err := a.opts.Cache.Put(ctx, key, raw); err != nil {
			a.log.Warn("Failed to cache response", zap.String("path", fc.Path), zap.Error(err))
		}
	} else {
		a.log.Debug("Using cached response", zap.String("path", fc.Path))
	}

	fa := NewFileAnalysis(fc.Path, language, raw)
	fa.Additions = fd.Additions
	fa.Deletions = fd.Deletions
	fa.Cached = hit
	return fa, nil
}
