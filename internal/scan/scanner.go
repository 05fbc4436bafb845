package scan

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/dotneet/claude-code-marketplace/internal/config"
	"github.com/dotneet/claude-code-marketplace/internal/logger"
	"github.com/dotneet/claude-code-marketplace/internal/parse"
)

// headLines is how many leading lines are inspected for the session timestamp.
const headLines = 10

// LogFile describes one discovered session log.
type LogFile struct {
	Path       string
	Source     parse.Dialect // dialect implied by the discovery root
	Project    string        // decoded project path (claude) or session cwd (codex)
	ProjectDir string        // encoded project directory name, claude only

	// Timestamp is zero when RawTimestamp could not be parsed.
	Timestamp    time.Time
	RawTimestamp string
	ModTime      time.Time
	Size         int64
}

// Roots are the per-dialect discovery roots and their glob patterns.
type Roots struct {
	ClaudeRoot    string
	ClaudePattern string
	CodexRoot     string
	CodexPattern  string
}

// RootsFromConfig returns the roots configured in cfg.
func RootsFromConfig(cfg *config.Config) Roots {
	return Roots{
		ClaudeRoot:    cfg.ClaudeRoot,
		ClaudePattern: cfg.ClaudePattern,
		CodexRoot:     cfg.CodexRoot,
		CodexPattern:  cfg.CodexPattern,
	}
}

// Options control Locate.
type Options struct {
	Project   string // substring filter on the project path, empty = all
	Limit     int    // maximum number of results; <= 0 yields nothing
	AllAgents bool   // include codex sessions
}

// Locate discovers session logs, filters them by project, orders them newest
// first and truncates the result to opts.Limit.
func Locate(ctx context.Context, roots Roots, opts Options) ([]LogFile, error) {
	if opts.Limit <= 0 {
		return []LogFile{}, nil
	}

	files, err := Discover(ctx, roots, opts.AllAgents)
	if err != nil {
		return nil, err
	}

	matched := files[:0]
	for _, f := range files {
		if MatchProject(f, opts.Project) {
			matched = append(matched, f)
		}
	}

	SortNewestFirst(matched)
	if len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// Discover enumerates every top-level session log under the roots. Codex
// logs are included only when allAgents is set. Missing roots yield nothing.
func Discover(ctx context.Context, roots Roots, allAgents bool) ([]LogFile, error) {
	files := []LogFile{}

	if roots.ClaudeRoot != "" {
		cf, err := scanRoot(ctx, roots.ClaudeRoot, roots.ClaudePattern, parse.DialectClaude)
		if err != nil {
			return nil, err
		}
		files = append(files, cf...)
	}

	if allAgents && roots.CodexRoot != "" {
		cf, err := scanRoot(ctx, roots.CodexRoot, roots.CodexPattern, parse.DialectCodex)
		if err != nil {
			return nil, err
		}
		files = append(files, cf...)
	}

	return files, nil
}

func scanRoot(ctx context.Context, root, pattern string, source parse.Dialect) ([]LogFile, error) {
	log := logger.G(ctx).WithField("root", root)

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		log.Debug("discovery root not found")
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s in %s", pattern, root)
	}

	var files []LogFile
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if IsSidechain(rel) {
			continue
		}

		p := filepath.Join(root, filepath.FromSlash(rel))
		fi, err := os.Stat(p)
		if err != nil || fi.IsDir() {
			continue
		}

		lf := LogFile{
			Path:    p,
			Source:  source,
			ModTime: fi.ModTime(),
			Size:    fi.Size(),
		}
		if source == parse.DialectClaude {
			lf.ProjectDir = firstSegment(rel)
			lf.Project = DecodeProjectDir(lf.ProjectDir)
		}
		if err := describe(&lf); err != nil {
			// unreadable files are left out of discovery
			log.WithError(err).WithField("file", p).Debug("skipping unreadable log")
			continue
		}
		files = append(files, lf)
	}
	return files, nil
}

// describe fills in the session timestamp (and codex project) from the
// first lines of the file, falling back to the modification time.
func describe(lf *LogFile) error {
	f, err := os.Open(lf.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	decode := parse.Decoder(lf.Source)
	lines := parse.NewLineReader(f)
	for lines.Next() && lines.Line() <= headLines {
		if lines.Oversized() {
			continue
		}
		rec, ok := decode(lines.Bytes(), lines.Line())
		if !ok {
			continue
		}
		if rec.Kind == parse.KindSessionMeta && lf.Project == "" {
			lf.Project = rec.Cwd
		}
		if lf.RawTimestamp == "" && rec.Timestamp != "" && (rec.IsUser() || rec.Kind == parse.KindSessionMeta) {
			lf.RawTimestamp = rec.Timestamp
		}
	}
	if err := lines.Err(); err != nil {
		return err
	}

	if lf.RawTimestamp == "" {
		lf.Timestamp = lf.ModTime
		lf.RawTimestamp = lf.ModTime.UTC().Format(time.RFC3339)
		return nil
	}
	lf.Timestamp, _ = parse.ParseTimestamp(lf.RawTimestamp)
	return nil
}

// IsSidechain reports whether a slash-separated path relative to a root
// names a sub-agent transcript.
func IsSidechain(rel string) bool {
	if strings.HasPrefix(path.Base(rel), "agent-") {
		return true
	}
	for _, seg := range strings.Split(path.Dir(rel), "/") {
		if seg == "subagents" {
			return true
		}
	}
	return false
}

// SortNewestFirst orders files by session timestamp, newest first. Files
// whose timestamp could not be parsed go last. Equal instants fall back to
// reverse lexicographic order of "timestamp|dialect|project|filename".
func SortNewestFirst(files []LogFile) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		az, bz := a.Timestamp.IsZero(), b.Timestamp.IsZero()
		if az != bz {
			return bz
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.sortKey() > b.sortKey()
	})
}

func (f LogFile) sortKey() string {
	return strings.Join([]string{f.RawTimestamp, string(f.Source), f.Project, filepath.Base(f.Path)}, "|")
}

func firstSegment(rel string) string {
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}
