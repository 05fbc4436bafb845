package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotneet/claude-code-marketplace/internal/aggregate"
	"github.com/dotneet/claude-code-marketplace/internal/config"
	"github.com/dotneet/claude-code-marketplace/internal/extract"
	"github.com/dotneet/claude-code-marketplace/internal/parse"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

type fixture struct {
	cfg  *config.Config
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	home := t.TempDir()
	cfg := config.Default(home)
	cfg.Workers = 2
	return &fixture{cfg: cfg, root: cfg.ClaudeRoot}
}

func (f *fixture) write(t *testing.T, rel string, lines ...string) string {
	t.Helper()
	p := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func user(ts, text string) string {
	return fmt.Sprintf(`{"type":"user","timestamp":%q,"message":{"role":"user","content":%q}}`, ts, text)
}

func read(ts, path string) string {
	return fmt.Sprintf(`{"type":"assistant","timestamp":%q,"message":{"role":"assistant","content":[{"type":"tool_use","id":"x","name":"Read","input":{"file_path":%q}}]}}`, ts, path)
}

func TestParseMode(t *testing.T) {
	for _, name := range ModeNames {
		_, err := ParseMode(name)
		assert.NoError(t, err, name)
	}
	p, err := ParseMode("all")
	require.NoError(t, err)
	assert.Equal(t, extract.All, p)

	_, err = ParseMode("everything")
	assert.Error(t, err)
}

func TestAnalyzeSessionSummary(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "-work-app/s.jsonl",
		user("2025-01-01T00:00:01Z", "hello"),
		read("2025-01-01T00:00:02Z", "/a.go"),
		user("2025-01-01T00:00:03Z", "thanks"),
	)

	r, err := New(f.cfg).AnalyzeSession(context.Background(), path, extract.Summary)
	require.NoError(t, err)
	require.NotNil(t, r.Summary)
	assert.Equal(t, "claude", r.Dialect)
	assert.Equal(t, 3, r.Summary.TotalLines)
	assert.Equal(t, 2, r.Summary.UserMessages)
	assert.Equal(t, 1, r.Summary.AssistantMessages)
	assert.Nil(t, r.Tools)
}

func TestAnalyzeSessionNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := New(f.cfg).AnalyzeSession(context.Background(), filepath.Join(f.root, "missing.jsonl"), extract.Summary)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = New(f.cfg).AnalyzeSession(context.Background(), t.TempDir(), extract.Summary)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAnalyzeSessionUnknownDialect(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "x/other.jsonl", `{"type":"telemetry","value":1}`, `{"type":"event"}`)

	_, err := New(f.cfg).AnalyzeSession(context.Background(), path, extract.All)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parse.ErrUnknownDialect))
}

func TestExtractPatterns(t *testing.T) {
	f := newFixture(t)
	f.write(t, "-work-app/s1.jsonl", user("2025-01-01T00:00:00Z", "always run tests"), read("2025-01-01T00:00:01Z", "/x.go"))
	f.write(t, "-work-app/s2.jsonl", user("2025-01-02T00:00:00Z", "go"), read("2025-01-02T00:00:01Z", "/x.go"), read("2025-01-02T00:00:02Z", "/y.go"))
	f.write(t, "-work-app/s3.jsonl", user("2025-01-03T00:00:00Z", "go"), read("2025-01-03T00:00:01Z", "/x.go"))
	f.write(t, "-work-other/s4.jsonl", user("2025-01-04T00:00:00Z", "go"), read("2025-01-04T00:00:01Z", "/z.go"))

	r, err := New(f.cfg).ExtractPatterns(context.Background(), scan.Options{Project: "app", Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, 3, r.FilesAnalyzed)
	assert.Equal(t, 0, r.FilesSkipped)
	require.NotEmpty(t, r.ReadFiles)
	assert.Equal(t, aggregate.Entry{Label: "/x.go", Count: 3}, r.ReadFiles[0])
	assert.Equal(t, []aggregate.Entry{{Label: "Read", Count: 4}}, r.ToolUsage)
	assert.Equal(t, 1, r.Preferences.Total)
	assert.Equal(t, "always run tests", r.Preferences.Items[0].Text)

	// newest first
	assert.Equal(t, filepath.Join(f.root, "-work-app", "s3.jsonl"), r.Files[0])
}

func TestExtractPatternsSkipsUnreadable(t *testing.T) {
	f := newFixture(t)
	f.write(t, "-work-app/good.jsonl", user("2025-01-01T00:00:00Z", "hi"), read("2025-01-01T00:00:01Z", "/x.go"))
	bad := f.write(t, "-work-app/bad.jsonl", `{"type":"telemetry"}`)
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(bad, old, old))

	r, err := New(f.cfg).ExtractPatterns(context.Background(), scan.Options{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, r.FilesAnalyzed)
	assert.Equal(t, 1, r.FilesSkipped)
}

func TestExtractPatternsNoSessions(t *testing.T) {
	f := newFixture(t)
	_, err := New(f.cfg).ExtractPatterns(context.Background(), scan.Options{Limit: 5})
	assert.ErrorIs(t, err, ErrNoSessions)
	assert.Equal(t, "No sessions found", ErrNoSessions.Error())

	f.write(t, "-work-app/s.jsonl", user("2025-01-01T00:00:00Z", "hi"))
	_, err = New(f.cfg).ExtractPatterns(context.Background(), scan.Options{Project: "nomatch", Limit: 5})
	assert.ErrorIs(t, err, ErrNoSessions)
}

func TestExtractPatternsDeterministic(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 8; i++ {
		ts := fmt.Sprintf("2025-01-0%dT00:00:00Z", i+1)
		f.write(t, fmt.Sprintf("-p/s%d.jsonl", i), user(ts, "go"), read(ts, fmt.Sprintf("/f%d.go", i%3)), read(ts, "/shared.go"))
	}

	a := New(f.cfg)
	first, err := a.ExtractPatterns(context.Background(), scan.Options{Limit: 8})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := a.ExtractPatterns(context.Background(), scan.Options{Limit: 8})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractPatternsCancelled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "-p/s.jsonl", user("2025-01-01T00:00:00Z", "hi"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(f.cfg).ExtractPatterns(ctx, scan.Options{Limit: 5})
	assert.ErrorIs(t, err, context.Canceled)
}
