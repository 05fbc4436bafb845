// Package aggregate turns extracted projections into frequency tables and
// capped sample lists. An aggregation Context is owned by one invocation:
// create it, merge every file's extraction in discovery order, build the
// report, drop it.
package aggregate

import (
	"github.com/dotneet/claude-code-marketplace/internal/extract"
)

// Report section caps.
const (
	TopTools   = 20
	TopFiles   = 10
	MaxSamples = 10
)

// Summary is the single-file overview section.
type Summary struct {
	TotalLines        int    `json:"total_lines" yaml:"total_lines"`
	UserMessages      int    `json:"user_messages" yaml:"user_messages"`
	AssistantMessages int    `json:"assistant_messages" yaml:"assistant_messages"`
	ToolUses          int    `json:"tool_uses" yaml:"tool_uses"`
	FirstTimestamp    string `json:"first_timestamp" yaml:"first_timestamp"`
	LastTimestamp     string `json:"last_timestamp" yaml:"last_timestamp"`
	Cwd               string `json:"cwd" yaml:"cwd"`
	GitBranch         string `json:"git_branch" yaml:"git_branch"`
	Version           string `json:"version,omitzero" yaml:"version,omitempty"`
	MalformedLines    int    `json:"malformed_lines" yaml:"malformed_lines"`
}

// Snippet is a sampled piece of text and where it came from.
type Snippet struct {
	File      string `json:"file,omitzero" yaml:"file,omitempty"`
	Line      int    `json:"line" yaml:"line"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Text      string `json:"text" yaml:"text"`
}

// Samples is a capped list of snippets with the uncapped total.
type Samples struct {
	Total int       `json:"total" yaml:"total"`
	Items []Snippet `json:"items" yaml:"items"`
}

// ToolReport holds the tool frequency tables.
type ToolReport struct {
	TotalCalls  int     `json:"total_calls" yaml:"total_calls"`
	ToolUsage   []Entry `json:"tool_usage_count" yaml:"tool_usage_count"`
	ReadFiles   []Entry `json:"read_files" yaml:"read_files"`
	EditedFiles []Entry `json:"edited_files" yaml:"edited_files"`
}

// SessionReport is the result of analyzing one file. Sections that were not
// requested are nil.
type SessionReport struct {
	File         string      `json:"file" yaml:"file"`
	Dialect      string      `json:"dialect" yaml:"dialect"`
	Summary      *Summary    `json:"summary,omitzero" yaml:"summary,omitempty"`
	UserMessages *Samples    `json:"user_messages,omitzero" yaml:"user_messages,omitempty"`
	Tools        *ToolReport `json:"tools,omitzero" yaml:"tools,omitempty"`
	Errors       *Samples    `json:"errors,omitzero" yaml:"errors,omitempty"`
	Preferences  *Samples    `json:"user_preferences,omitzero" yaml:"user_preferences,omitempty"`
}

// PatternReport is the result of analyzing many files together.
type PatternReport struct {
	FilesAnalyzed int      `json:"files_analyzed" yaml:"files_analyzed"`
	FilesSkipped  int      `json:"files_skipped" yaml:"files_skipped"`
	Files         []string `json:"files" yaml:"files"`
	ToolUsage     []Entry  `json:"tool_usage_count" yaml:"tool_usage_count"`
	ReadFiles     []Entry  `json:"read_files" yaml:"read_files"`
	EditedFiles   []Entry  `json:"edited_files" yaml:"edited_files"`
	Preferences   Samples  `json:"user_preferences" yaml:"user_preferences"`
	Errors        Samples  `json:"errors" yaml:"errors"`
}

// Context accumulates extractions across files.
type Context struct {
	files   []string
	skipped int

	tools *Counter
	reads *Counter
	edits *Counter

	userMessages sampler
	errors       sampler
	preferences  sampler
}

// NewContext returns an empty aggregation context.
func NewContext() *Context {
	return &Context{
		tools:        NewCounter(),
		reads:        NewCounter(),
		edits:        NewCounter(),
		userMessages: sampler{},
		errors:       sampler{max: MaxSamples},
		preferences:  sampler{max: MaxSamples},
	}
}

// Add merges one file's extraction. Calling Add in discovery order is what
// makes frequency ties resolve by first-seen order across files.
func (c *Context) Add(res *extract.Result) {
	c.files = append(c.files, res.Path)

	for _, call := range res.ToolCalls {
		c.tools.Add(call.Name)
		if call.Reads() {
			c.reads.Add(call.FilePath)
		}
		if call.Edits() {
			c.edits.Add(call.FilePath)
		}
	}
	for _, m := range res.UserMessages {
		c.userMessages.add(res.Path, m)
	}
	for _, m := range res.Errors {
		c.errors.add(res.Path, m)
	}
	for _, m := range res.Preferences {
		c.preferences.add(res.Path, m)
	}
}

// Skip records a candidate file that could not be analyzed.
func (c *Context) Skip() { c.skipped++ }

// Patterns builds the multi-file report.
func (c *Context) Patterns() *PatternReport {
	return &PatternReport{
		FilesAnalyzed: len(c.files),
		FilesSkipped:  c.skipped,
		Files:         append([]string{}, c.files...),
		ToolUsage:     c.tools.Top(TopTools),
		ReadFiles:     c.reads.Top(TopFiles),
		EditedFiles:   c.edits.Top(TopFiles),
		Preferences:   c.preferences.samples(true),
		Errors:        c.errors.samples(true),
	}
}

// Session builds the single-file report for res, including only the
// sections res was extracted for.
func Session(res *extract.Result) *SessionReport {
	c := NewContext()
	c.Add(res)

	r := &SessionReport{File: res.Path, Dialect: string(res.Dialect)}
	p := res.Projections
	if p.Has(extract.Summary) {
		s := res.Summary
		r.Summary = &Summary{
			TotalLines:        s.TotalLines,
			UserMessages:      s.UserMessages,
			AssistantMessages: s.AssistantMessages,
			ToolUses:          s.ToolUses,
			FirstTimestamp:    s.FirstTimestamp,
			LastTimestamp:     s.LastTimestamp,
			Cwd:               s.Cwd,
			GitBranch:         s.GitBranch,
			Version:           s.Version,
			MalformedLines:    res.MalformedLines,
		}
	}
	if p.Has(extract.UserMessages) {
		um := c.userMessages.samples(false)
		r.UserMessages = &um
	}
	if p.Has(extract.ToolUsage) {
		r.Tools = &ToolReport{
			TotalCalls:  c.tools.Total(),
			ToolUsage:   c.tools.Top(TopTools),
			ReadFiles:   c.reads.Top(TopFiles),
			EditedFiles: c.edits.Top(TopFiles),
		}
	}
	if p.Has(extract.Errors) {
		e := c.errors.samples(false)
		r.Errors = &e
	}
	if p.Has(extract.Preferences) {
		pr := c.preferences.samples(false)
		r.Preferences = &pr
	}
	return r
}

type sampler struct {
	max   int // 0 = unlimited
	total int
	items []Snippet
}

func (s *sampler) add(file string, m extract.Message) {
	s.total++
	if s.max > 0 && len(s.items) >= s.max {
		return
	}
	s.items = append(s.items, Snippet{File: file, Line: m.Line, Timestamp: m.Timestamp, Text: m.Text})
}

func (s *sampler) samples(withFile bool) Samples {
	items := make([]Snippet, len(s.items))
	copy(items, s.items)
	if !withFile {
		for i := range items {
			items[i].File = ""
		}
	}
	return Samples{Total: s.total, Items: items}
}
