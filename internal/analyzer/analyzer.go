// Package analyzer wires discovery, classification, extraction and
// aggregation into the operations the CLI exposes.
package analyzer

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/dotneet/claude-code-marketplace/internal/aggregate"
	"github.com/dotneet/claude-code-marketplace/internal/config"
	"github.com/dotneet/claude-code-marketplace/internal/extract"
	"github.com/dotneet/claude-code-marketplace/internal/logger"
	"github.com/dotneet/claude-code-marketplace/internal/parse"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

var (
	// ErrNotFound is returned when a session file does not exist.
	ErrNotFound = errors.New("session file not found")
	// ErrNoSessions is returned when pattern extraction has no candidates.
	ErrNoSessions = errors.New("No sessions found")
)

// patternProjections are the projections multi-file extraction needs.
const patternProjections = extract.ToolUsage | extract.Errors | extract.Preferences

var modes = map[string]extract.Projection{
	"summary":       extract.Summary,
	"user-messages": extract.UserMessages,
	"tools":         extract.ToolUsage,
	"errors":        extract.Errors,
	"preferences":   extract.Preferences,
	"all":           extract.All,
}

// ModeNames lists the analyze-session modes in display order.
var ModeNames = []string{"summary", "user-messages", "tools", "errors", "preferences", "all"}

// ParseMode maps an analyze-session mode name to the projections it extracts.
func ParseMode(name string) (extract.Projection, error) {
	if p, ok := modes[name]; ok {
		return p, nil
	}
	return 0, errors.Errorf("unknown mode %q (want one of %s)", name, strings.Join(ModeNames, ", "))
}

// Analyzer runs analyses under one configuration.
type Analyzer struct {
	cfg      *config.Config
	roots    scan.Roots
	keywords extract.Keywords
}

// New returns an Analyzer for cfg.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		roots:    scan.RootsFromConfig(cfg),
		keywords: extract.NewKeywords(cfg.ErrorKeywords, cfg.PreferenceKeywords),
	}
}

// WithDeadline bounds ctx by the configured invocation deadline.
func (a *Analyzer) WithDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.DeadlineDuration())
}

// Locate lists session logs, newest first.
func (a *Analyzer) Locate(ctx context.Context, opts scan.Options) ([]scan.LogFile, error) {
	files, err := scan.Locate(ctx, a.roots, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate sessions")
	}
	return files, nil
}

// AnalyzeSession extracts the projections in mode from one log file.
func (a *Analyzer) AnalyzeSession(ctx context.Context, path string, mode extract.Projection) (*aggregate.SessionReport, error) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return nil, errors.Wrap(ErrNotFound, path)
	case err != nil:
		return nil, errors.Wrapf(err, "cannot read %s", path)
	case info.IsDir():
		return nil, errors.Wrapf(ErrNotFound, "%s is a directory", path)
	}

	res, err := a.extract(ctx, path, mode)
	if err != nil {
		return nil, err
	}
	return aggregate.Session(res), nil
}

// ExtractPatterns aggregates tool usage, file access, preferences and errors
// across the most recent session logs. Files that cannot be analyzed are
// skipped; an empty candidate list is an error.
func (a *Analyzer) ExtractPatterns(ctx context.Context, opts scan.Options) (*aggregate.PatternReport, error) {
	files, err := a.Locate(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoSessions
	}

	outcomes, err := a.extractAll(ctx, files)
	if err != nil {
		return nil, err
	}

	agg := aggregate.NewContext()
	var skipped *multierror.Error
	for _, o := range outcomes {
		if o.err != nil {
			skipped = multierror.Append(skipped, o.err)
			agg.Skip()
			continue
		}
		agg.Add(o.res)
	}
	if err := skipped.ErrorOrNil(); err != nil {
		logger.G(ctx).WithError(err).WithField("skipped", skipped.Len()).Warn("some session logs could not be analyzed")
	}
	return agg.Patterns(), nil
}

type outcome struct {
	res *extract.Result
	err error
}

// extractAll extracts every file on a bounded pool of workers. Outcomes are
// stored by discovery index so merging stays in discovery order.
func (a *Analyzer) extractAll(ctx context.Context, files []scan.LogFile) ([]outcome, error) {
	outcomes := make([]outcome, len(files))

	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < min(a.cfg.Workers, len(files)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				res, err := a.extract(ctx, files[i].Path, patternProjections)
				outcomes[i] = outcome{res: res, err: err}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "pattern extraction aborted")
	}
	return outcomes, nil
}

func (a *Analyzer) extract(ctx context.Context, path string, proj extract.Projection) (*extract.Result, error) {
	dialect, err := parse.Classify(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	if dialect == parse.DialectUnknown {
		return nil, errors.Wrap(parse.ErrUnknownDialect, path)
	}

	logger.G(ctx).WithField("file", path).WithField("dialect", dialect).Debug("extracting session log")

	res, err := extract.File(ctx, path, dialect, proj, a.keywords)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to analyze %s", path)
	}
	return res, nil
}
