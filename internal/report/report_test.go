package report

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-json-experiment/json"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dotneet/claude-code-marketplace/internal/aggregate"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in       string
		jsonFlag bool
		want     Format
		wantErr  bool
	}{
		{"", false, FormatText, false},
		{"text", false, FormatText, false},
		{"yaml", false, FormatYAML, false},
		{"json", false, FormatJSON, false},
		{"yaml", true, FormatJSON, false},
		{"xml", false, "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in, tt.jsonFlag)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestTruncateMultibyte(t *testing.T) {
	s := strings.Repeat("日本語テキスト", 40)
	got := Truncate(s, 160)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, runewidth.StringWidth(got), 160)
	assert.True(t, strings.HasSuffix(got, ellipsis))

	assert.Equal(t, "short", Truncate("short", 160))
}

func TestLines(t *testing.T) {
	text := "1\n2\n3\n4\n5\n6\n7"
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "... (2 more lines)"}, Lines(text, MessageLines, 160))
	assert.Equal(t, []string{"a", "b"}, Lines("a\nb\n", PreferenceLines, 160))
	assert.Equal(t, []string{"abcd..."}, Lines("abcdefghij", 3, 7))
}

func sessionReport() *aggregate.SessionReport {
	return &aggregate.SessionReport{
		File:    "/logs/s.jsonl",
		Dialect: "claude",
		Summary: &aggregate.Summary{TotalLines: 3, UserMessages: 2, Cwd: "/work"},
		UserMessages: &aggregate.Samples{Total: 1, Items: []aggregate.Snippet{
			{Line: 1, Timestamp: "t1", Text: "say \"hi\"\nand\tthen\nleave"},
		}},
	}
}

func TestSessionJSONIsValid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatJSON, 0).Session(sessionReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	um := decoded["user_messages"].(map[string]any)
	item := um["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "say \"hi\"\nand\tthen\nleave", item["text"])
	assert.NotContains(t, decoded, "tools")
	assert.NotContains(t, decoded, "errors")
}

func TestPatternsJSONMetricNames(t *testing.T) {
	ctx := aggregate.NewContext()
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatJSON, 0).Patterns(ctx.Patterns()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"files_analyzed", "files_skipped", "tool_usage_count", "read_files", "edited_files", "user_preferences", "errors"} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, []any{}, decoded["tool_usage_count"])
}

func TestSessionYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatYAML, 0).Session(sessionReport()))

	var decoded aggregate.SessionReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sessionReport(), &decoded)
}

func TestSessionText(t *testing.T) {
	r := sessionReport()
	r.UserMessages.Items[0].Text = "1\n2\n3\n4\n5\n6"
	r.Tools = &aggregate.ToolReport{
		TotalCalls: 3,
		ToolUsage:  []aggregate.Entry{{Label: "Read", Count: 3}},
		ReadFiles:  []aggregate.Entry{{Label: "/x.go", Count: 3}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatText, 0).Session(r))
	out := buf.String()

	assert.Contains(t, out, "Session /logs/s.jsonl (claude)")
	assert.Contains(t, out, "Total lines:")
	assert.Contains(t, out, "... (1 more lines)")
	assert.Contains(t, out, "/x.go")
	assert.Contains(t, out, "Edited files")
	assert.NotContains(t, out, "\x1b[", "no styling when output is not a terminal")
}

func TestSamplesTextShowsTotals(t *testing.T) {
	ctx := aggregate.NewContext()
	var buf bytes.Buffer
	r := ctx.Patterns()
	r.Errors = aggregate.Samples{Total: 12, Items: []aggregate.Snippet{{File: "/a/s1.jsonl", Line: 4, Text: "boom"}}}

	require.NoError(t, NewWriter(&buf, FormatText, 0).Patterns(r))
	assert.Contains(t, buf.String(), "Errors (12 total, showing 1)")
	assert.Contains(t, buf.String(), "[s1.jsonl:4]")
}

func TestSessionsText(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	files := []scan.LogFile{
		{Path: "/p/a.jsonl", Source: "claude", Project: "/work/app", Timestamp: now.Add(-2 * time.Hour), Size: 2048},
		{Path: "/p/b.jsonl", Source: "claude", Project: "/work/app"},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf, FormatText, 0)
	require.NoError(t, w.sessionsText(files, now))
	out := buf.String()
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "/p/b.jsonl")

	buf.Reset()
	require.NoError(t, w.Sessions(nil))
	assert.Equal(t, "No sessions found\n", buf.String())
}

func TestSessionsJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatJSON, 0).Sessions([]scan.LogFile{}))

	var decoded map[string][]SessionEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []SessionEntry{}, decoded["sessions"])
}
