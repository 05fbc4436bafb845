package extract

import (
	"strings"

	"github.com/dotneet/claude-code-marketplace/internal/parse"
)

// framingToolName is emitted by some log writers for message envelopes and
// is never a real tool.
const framingToolName = "message"

// Keywords are the lower-cased keyword sets the errors and preferences
// projections match against.
type Keywords struct {
	Errors      []string
	Preferences []string
}

// NewKeywords lower-cases and de-blanks the given keyword lists.
func NewKeywords(errorWords, preferenceWords []string) Keywords {
	return Keywords{Errors: normalize(errorWords), Preferences: normalize(preferenceWords)}
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// userText returns the text a user typed in rec. Meta records and records
// that only carry tool results have none.
func userText(rec parse.Record) (string, bool) {
	if !rec.IsUser() || rec.IsMeta {
		return "", false
	}
	text := rec.Text()
	return text, text != ""
}

// toolCalls returns the tool invocations in rec, minus framing artifacts.
func toolCalls(rec parse.Record) []ToolCall {
	var calls []ToolCall
	for _, b := range rec.ToolUses() {
		if b.Name == "" || b.Name == framingToolName {
			continue
		}
		calls = append(calls, ToolCall{
			Line:     rec.Line,
			Name:     b.Name,
			FilePath: b.StringInput("file_path"),
		})
	}
	return calls
}

// errorResults returns the payloads of tool results in rec that report a
// failure, either flagged by the tool or containing an error keyword.
func errorResults(rec parse.Record, kw Keywords) []string {
	var out []string
	for _, b := range rec.ToolResults() {
		serialized := b.RawResult
		if serialized == "" {
			serialized = b.Result
		}
		if b.IsError || containsAny(strings.ToLower(serialized), kw.Errors) {
			out = append(out, b.Result)
		}
	}
	return out
}

// preference returns the first lines of a user message stating a rule or
// preference.
func preference(rec parse.Record, kw Keywords) (string, bool) {
	text, ok := userText(rec)
	if !ok || !containsAny(strings.ToLower(text), kw.Preferences) {
		return "", false
	}
	return FirstLines(text, preferenceLines), true
}

// FirstLines returns at most n leading lines of s.
func FirstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
