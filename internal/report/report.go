// Package report writes session listings and analysis reports as text,
// JSON or YAML.
package report

import (
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dotneet/claude-code-marketplace/internal/aggregate"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultWidth is the display-width budget for a single text value.
const DefaultWidth = 160

// ParseFormat resolves the --format value, with --json taking precedence.
func ParseFormat(s string, jsonFlag bool) (Format, error) {
	if jsonFlag {
		return FormatJSON, nil
	}
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", errors.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Writer renders reports to an output stream.
type Writer struct {
	out    io.Writer
	format Format
	width  int
	styles styles
}

// NewWriter returns a Writer for out. Text styling is only applied when out
// is a terminal.
func NewWriter(out io.Writer, format Format, width int) *Writer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Writer{
		out:    out,
		format: format,
		width:  width,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// SessionEntry is the serialized form of a located session log.
type SessionEntry struct {
	Path      string `json:"path" yaml:"path"`
	Source    string `json:"source" yaml:"source"`
	Project   string `json:"project" yaml:"project"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Modified  string `json:"modified" yaml:"modified"`
	Size      int64  `json:"size" yaml:"size"`
}

func sessionEntries(files []scan.LogFile) []SessionEntry {
	out := make([]SessionEntry, 0, len(files))
	for _, f := range files {
		out = append(out, SessionEntry{
			Path:      f.Path,
			Source:    string(f.Source),
			Project:   f.Project,
			Timestamp: f.RawTimestamp,
			Modified:  f.ModTime.UTC().Format(time.RFC3339),
			Size:      f.Size,
		})
	}
	return out
}

// Sessions writes a located session list.
func (w *Writer) Sessions(files []scan.LogFile) error {
	switch w.format {
	case FormatJSON:
		return w.json(map[string]any{"sessions": sessionEntries(files)})
	case FormatYAML:
		return w.yaml(map[string]any{"sessions": sessionEntries(files)})
	}
	return w.sessionsText(files, time.Now())
}

// Session writes a single-file analysis report.
func (w *Writer) Session(r *aggregate.SessionReport) error {
	switch w.format {
	case FormatJSON:
		return w.json(r)
	case FormatYAML:
		return w.yaml(r)
	}
	return w.sessionText(r)
}

// Patterns writes a multi-file pattern report.
func (w *Writer) Patterns(r *aggregate.PatternReport) error {
	switch w.format {
	case FormatJSON:
		return w.json(r)
	case FormatYAML:
		return w.yaml(r)
	}
	return w.patternsText(r)
}

func (w *Writer) json(v any) error {
	if err := json.MarshalWrite(w.out, v, jsontext.WithIndent("  "), jsontext.AllowInvalidUTF8(true)); err != nil {
		return errors.Wrap(err, "failed to encode JSON report")
	}
	_, err := io.WriteString(w.out, "\n")
	return err
}

func (w *Writer) yaml(v any) error {
	enc := yaml.NewEncoder(w.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode YAML report")
	}
	return enc.Close()
}
