// Package extract pulls typed fields out of a classified session log in a
// single lazy pass. Each projection is a predicate over parsed records;
// malformed lines contribute nothing and never stop the scan.
package extract

import (
	"context"
	"strings"

	"github.com/dotneet/claude-code-marketplace/internal/logger"
	"github.com/dotneet/claude-code-marketplace/internal/parse"
)

const (
	// metadataLines bounds where cwd and branch are looked up.
	metadataLines   = 10
	preferenceLines = 3
)

// Projection selects what File extracts. Values combine as a bit set.
type Projection uint8

const (
	Summary Projection = 1 << iota
	UserMessages
	ToolUsage
	Errors
	Preferences

	All = Summary | UserMessages | ToolUsage | Errors | Preferences
)

// Has reports whether p includes q.
func (p Projection) Has(q Projection) bool { return p&q != 0 }

// Stats is the summary projection.
type Stats struct {
	TotalLines        int
	UserMessages      int
	AssistantMessages int
	ToolUses          int
	FirstTimestamp    string
	LastTimestamp     string
	Cwd               string
	GitBranch         string
	Version           string
}

// Message is a text excerpt tied to its position in the log.
type Message struct {
	Line      int
	Timestamp string
	Text      string
}

// ToolCall is one tool invocation.
type ToolCall struct {
	Line     int
	Name     string
	FilePath string
}

// Reads reports whether the call read FilePath.
func (c ToolCall) Reads() bool { return c.FilePath != "" && c.Name == "Read" }

// Edits reports whether the call modified FilePath.
func (c ToolCall) Edits() bool {
	return c.FilePath != "" && (c.Name == "Edit" || c.Name == "Write")
}

// Result holds the projections extracted from one file, in line order.
type Result struct {
	Path        string
	Dialect     parse.Dialect
	Projections Projection

	Summary      Stats
	UserMessages []Message
	ToolCalls    []ToolCall
	Errors       []Message
	Preferences  []Message

	MalformedLines int
	// DroppedBlocks counts content blocks skipped on otherwise valid lines.
	DroppedBlocks int
}

// File extracts the requested projections from the log at path.
func File(ctx context.Context, path string, dialect parse.Dialect, proj Projection, kw Keywords) (*Result, error) {
	res := &Result{Path: path, Dialect: dialect, Projections: proj}

	err := parse.Visit(ctx, path, dialect, func(rec parse.Record, ok bool) error {
		res.add(rec, ok, kw)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.MalformedLines > 0 {
		logger.G(ctx).WithField("file", path).
			WithField("lines", res.MalformedLines).
			Debug("skipped malformed lines")
	}
	if res.DroppedBlocks > 0 {
		logger.G(ctx).WithField("file", path).
			WithField("blocks", res.DroppedBlocks).
			Debug("skipped mistyped content blocks")
	}
	return res, nil
}

func (r *Result) add(rec parse.Record, ok bool, kw Keywords) {
	r.Summary.TotalLines++
	if !ok {
		r.MalformedLines++
		return
	}
	r.DroppedBlocks += rec.DroppedBlocks

	if r.Projections.Has(Summary) {
		r.addSummary(rec)
	}

	if r.Projections.Has(UserMessages) {
		if text, ok := userText(rec); ok {
			r.UserMessages = append(r.UserMessages, Message{Line: rec.Line, Timestamp: rec.Timestamp, Text: clean(text)})
		}
	}

	if r.Projections.Has(ToolUsage) {
		for _, c := range toolCalls(rec) {
			c.FilePath = clean(c.FilePath)
			r.ToolCalls = append(r.ToolCalls, c)
		}
	}

	if r.Projections.Has(Errors) {
		for _, payload := range errorResults(rec, kw) {
			r.Errors = append(r.Errors, Message{Line: rec.Line, Timestamp: rec.Timestamp, Text: clean(payload)})
		}
	}

	if r.Projections.Has(Preferences) {
		if text, ok := preference(rec, kw); ok {
			r.Preferences = append(r.Preferences, Message{Line: rec.Line, Timestamp: rec.Timestamp, Text: clean(text)})
		}
	}
}

func (r *Result) addSummary(rec parse.Record) {
	s := &r.Summary
	switch {
	case rec.IsUser():
		s.UserMessages++
	case rec.IsAssistant():
		s.AssistantMessages++
	}
	s.ToolUses += len(rec.ToolUses())

	if rec.Timestamp != "" {
		if s.FirstTimestamp == "" {
			s.FirstTimestamp = rec.Timestamp
		}
		s.LastTimestamp = rec.Timestamp
	}

	if rec.Line <= metadataLines {
		if s.Cwd == "" {
			s.Cwd = rec.Cwd
		}
		if s.GitBranch == "" {
			s.GitBranch = rec.GitBranch
		}
		if s.Version == "" {
			s.Version = rec.Version
		}
	}
}

// clean replaces invalid UTF-8 so downstream encoders never reject a value.
func clean(s string) string {
	return strings.ToValidUTF8(s, "�")
}
