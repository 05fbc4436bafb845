package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotneet/claude-code-marketplace/internal/config"
	"github.com/dotneet/claude-code-marketplace/internal/parse"
)

var defaultKeywords = NewKeywords(config.DefaultErrorKeywords, config.DefaultPreferenceKeywords)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func userLine(ts, text string) string {
	return fmt.Sprintf(`{"type":"user","timestamp":%q,"cwd":"/work/app","gitBranch":"main","message":{"role":"user","content":%q}}`, ts, text)
}

func assistantLine(ts string, blocks ...string) string {
	if len(blocks) == 0 {
		blocks = []string{`{"type":"text","text":"done"}`}
	}
	return fmt.Sprintf(`{"type":"assistant","timestamp":%q,"message":{"role":"assistant","content":[%s]}}`, ts, strings.Join(blocks, ","))
}

func toolUse(name, filePath string) string {
	return fmt.Sprintf(`{"type":"tool_use","id":"t","name":%q,"input":{"file_path":%q}}`, name, filePath)
}

func toolResultLine(ts, content string, isError bool) string {
	return fmt.Sprintf(`{"type":"user","timestamp":%q,"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t","content":%q,"is_error":%t}]}}`, ts, content, isError)
}

func TestSummaryCounts(t *testing.T) {
	path := writeLog(t,
		userLine("2025-01-01T00:00:01Z", "one"),
		assistantLine("2025-01-01T00:00:02Z", toolUse("Read", "/a.go")),
		userLine("2025-01-01T00:00:03Z", "two"),
		assistantLine("2025-01-01T00:00:04Z"),
		userLine("2025-01-01T00:00:05Z", "three"),
	)

	res, err := File(context.Background(), path, parse.DialectClaude, Summary, defaultKeywords)
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, 5, s.TotalLines)
	assert.Equal(t, 3, s.UserMessages)
	assert.Equal(t, 2, s.AssistantMessages)
	assert.Equal(t, 1, s.ToolUses)
	assert.Equal(t, "2025-01-01T00:00:01Z", s.FirstTimestamp)
	assert.Equal(t, "2025-01-01T00:00:05Z", s.LastTimestamp)
	assert.Equal(t, "/work/app", s.Cwd)
	assert.Equal(t, "main", s.GitBranch)
	assert.Nil(t, res.UserMessages, "projection not requested")
}

func TestMalformedLinesDoNotAffectCounts(t *testing.T) {
	good := []string{
		userLine("2025-01-01T00:00:01Z", "one"),
		assistantLine("2025-01-01T00:00:02Z", toolUse("Edit", "/a.go")),
		userLine("2025-01-01T00:00:03Z", "two"),
	}
	clean, err := File(context.Background(), writeLog(t, good...), parse.DialectClaude, All, defaultKeywords)
	require.NoError(t, err)

	garbage := []string{`{"type":"user"`, `not json at all`, `{"type":"assistant","message":`}
	var mixed []string
	for i, l := range good {
		mixed = append(mixed, garbage[i], l)
	}
	mixed = append(mixed, `{"type":"user","timestamp":"2025-01-01T00:00:09Z","message":{"ro`) // partial trailing write

	dirty, err := File(context.Background(), writeLog(t, mixed...), parse.DialectClaude, All, defaultKeywords)
	require.NoError(t, err)

	assert.Equal(t, clean.Summary.UserMessages, dirty.Summary.UserMessages)
	assert.Equal(t, clean.Summary.AssistantMessages, dirty.Summary.AssistantMessages)
	assert.Equal(t, clean.Summary.ToolUses, dirty.Summary.ToolUses)
	assert.Equal(t, clean.Summary.LastTimestamp, dirty.Summary.LastTimestamp)
	assert.Equal(t, clean.ToolCalls, shiftLines(dirty.ToolCalls))
	assert.Equal(t, 4, dirty.MalformedLines)
	assert.Equal(t, 7, dirty.Summary.TotalLines)
}

func TestMistypedBlockKeepsSiblingToolCalls(t *testing.T) {
	path := writeLog(t,
		assistantLine("2025-01-01T00:00:01Z", toolUse("Read", "/x"), `{"type":"tool_result","is_error":"yes"}`),
	)

	res, err := File(context.Background(), path, parse.DialectClaude, All, defaultKeywords)
	require.NoError(t, err)

	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "Read", res.ToolCalls[0].Name)
	assert.Equal(t, "/x", res.ToolCalls[0].FilePath)
	assert.Equal(t, 1, res.Summary.ToolUses)
	assert.Equal(t, 0, res.MalformedLines)
	assert.Equal(t, 1, res.DroppedBlocks)
}

// shiftLines maps line numbers of the interleaved file back to the clean one.
func shiftLines(calls []ToolCall) []ToolCall {
	out := make([]ToolCall, len(calls))
	for i, c := range calls {
		c.Line /= 2
		out[i] = c
	}
	return out
}

func TestUserMessages(t *testing.T) {
	path := writeLog(t,
		userLine("t1", "first\nsecond"),
		toolResultLine("t2", "ok", false),
		`{"type":"user","isMeta":true,"timestamp":"t3","message":{"role":"user","content":"caveat"}}`,
		userLine("t4", "last"),
	)

	res, err := File(context.Background(), path, parse.DialectClaude, UserMessages, defaultKeywords)
	require.NoError(t, err)

	require.Len(t, res.UserMessages, 2)
	assert.Equal(t, Message{Line: 1, Timestamp: "t1", Text: "first\nsecond"}, res.UserMessages[0])
	assert.Equal(t, Message{Line: 4, Timestamp: "t4", Text: "last"}, res.UserMessages[1])
}

func TestToolUsage(t *testing.T) {
	path := writeLog(t,
		assistantLine("t1", toolUse("Read", "/a.go"), toolUse("message", ""), toolUse("Bash", "")),
		assistantLine("t2", toolUse("Write", "/b.go"), toolUse("Edit", "/a.go")),
	)

	res, err := File(context.Background(), path, parse.DialectClaude, ToolUsage, defaultKeywords)
	require.NoError(t, err)

	var names []string
	for _, c := range res.ToolCalls {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Read", "Bash", "Write", "Edit"}, names)
	assert.True(t, res.ToolCalls[0].Reads())
	assert.False(t, res.ToolCalls[1].Reads())
	assert.True(t, res.ToolCalls[2].Edits())
	assert.True(t, res.ToolCalls[3].Edits())
}

func TestErrors(t *testing.T) {
	path := writeLog(t,
		toolResultLine("t1", "all good", false),
		toolResultLine("t2", "Permission DENIED for /etc", false),
		toolResultLine("t3", "exit status 2", true),
		userLine("t4", "there was an error earlier"),
	)

	res, err := File(context.Background(), path, parse.DialectClaude, Errors, defaultKeywords)
	require.NoError(t, err)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, "Permission DENIED for /etc", res.Errors[0].Text)
	assert.Equal(t, 2, res.Errors[0].Line)
	assert.Equal(t, "exit status 2", res.Errors[1].Text)
}

func TestPreferences(t *testing.T) {
	path := writeLog(t,
		userLine("t1", "常に differ from main"),
		userLine("t2", "hello"),
		userLine("t3", "Please ALWAYS use tabs\nline2\nline3\nline4"),
	)

	res, err := File(context.Background(), path, parse.DialectClaude, Preferences, defaultKeywords)
	require.NoError(t, err)

	require.Len(t, res.Preferences, 2)
	assert.Equal(t, "常に differ from main", res.Preferences[0].Text)
	assert.Equal(t, "t1", res.Preferences[0].Timestamp)
	assert.Equal(t, "Please ALWAYS use tabs\nline2\nline3", res.Preferences[1].Text)
}

func TestCodexDialect(t *testing.T) {
	path := writeLog(t,
		`{"timestamp":"2025-02-01T08:00:00Z","type":"session_meta","payload":{"cwd":"/work/cli","cli_version":"0.40.0","git":{"branch":"dev"}}}`,
		`{"timestamp":"2025-02-01T08:00:01Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"never use sudo"}]}}`,
		`{"timestamp":"2025-02-01T08:00:02Z","type":"response_item","payload":{"type":"function_call","name":"shell","arguments":"{}","call_id":"c1"}}`,
		`{"timestamp":"2025-02-01T08:00:03Z","type":"response_item","payload":{"type":"function_call_output","call_id":"c1","output":"command failed"}}`,
		`{"timestamp":"2025-02-01T08:00:04Z","type":"response_item","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"sorry"}]}}`,
	)

	res, err := File(context.Background(), path, parse.DialectCodex, All, defaultKeywords)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.UserMessages)
	assert.Equal(t, 1, res.Summary.AssistantMessages)
	assert.Equal(t, 1, res.Summary.ToolUses)
	assert.Equal(t, "/work/cli", res.Summary.Cwd)
	assert.Equal(t, "dev", res.Summary.GitBranch)
	assert.Equal(t, "0.40.0", res.Summary.Version)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "shell", res.ToolCalls[0].Name)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "command failed", res.Errors[0].Text)
	require.Len(t, res.Preferences, 1)
	assert.Equal(t, "never use sudo", res.Preferences[0].Text)
}

func TestInvalidUTF8IsSanitized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	line := []byte(`{"type":"user","message":{"role":"user","content":"bad ` + "\xff" + ` byte"}}` + "\n")
	require.NoError(t, os.WriteFile(path, line, 0o644))

	res, err := File(context.Background(), path, parse.DialectClaude, UserMessages, defaultKeywords)
	require.NoError(t, err)
	require.Len(t, res.UserMessages, 1)
	assert.Equal(t, "bad � byte", res.UserMessages[0].Text)
}

func TestFirstLines(t *testing.T) {
	assert.Equal(t, "a\nb", FirstLines("a\nb\nc", 2))
	assert.Equal(t, "a", FirstLines("a", 3))
	assert.Equal(t, "", FirstLines("", 3))
}

func TestNewKeywords(t *testing.T) {
	kw := NewKeywords([]string{" Error ", ""}, []string{"ALWAYS"})
	assert.Equal(t, []string{"error"}, kw.Errors)
	assert.Equal(t, []string{"always"}, kw.Preferences)
}
