package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"

	"github.com/dotneet/claude-code-marketplace/internal/aggregate"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

// Line limits for multi-line values in text output.
const (
	MessageLines    = 5
	PreferenceLines = 3
	ErrorLines      = 3
)

const ellipsis = "..."

type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		heading: r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("10")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Truncate shortens s to at most width display cells. Multi-byte runes are
// never split.
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, ellipsis)
}

// Lines returns at most n lines of s, each truncated to width, followed by a
// "... (N more lines)" marker when lines were dropped.
func Lines(s string, n, width int) []string {
	all := strings.Split(strings.TrimRight(s, "\n"), "\n")
	shown := all
	if n > 0 && len(all) > n {
		shown = all[:n]
	}
	out := make([]string, 0, len(shown)+1)
	for _, l := range shown {
		out = append(out, Truncate(l, width))
	}
	if rest := len(all) - len(shown); rest > 0 {
		out = append(out, fmt.Sprintf("... (%d more lines)", rest))
	}
	return out
}

func (w *Writer) heading(title string) {
	fmt.Fprintf(w.out, "\n%s\n", w.styles.heading.Render(title))
}

func (w *Writer) field(name, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(w.out, "  %s %s\n", w.styles.label.Render(fmt.Sprintf("%-19s", name+":")), Truncate(value, w.width))
}

func (w *Writer) table(headers []string, rows [][]string) {
	table := tablewriter.NewTable(w.out)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

func (w *Writer) entries(title, column string, entries []aggregate.Entry) {
	w.heading(title)
	if len(entries) == 0 {
		fmt.Fprintln(w.out, w.styles.dim.Render("  (none)"))
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{Truncate(e.Label, w.width), strconv.Itoa(e.Count)})
	}
	w.table([]string{column, "Count"}, rows)
}

func (w *Writer) samples(title string, s *aggregate.Samples, maxLines int) {
	if len(s.Items) < s.Total {
		title = fmt.Sprintf("%s (%d total, showing %d)", title, s.Total, len(s.Items))
	} else {
		title = fmt.Sprintf("%s (%d)", title, s.Total)
	}
	w.heading(title)
	if len(s.Items) == 0 {
		fmt.Fprintln(w.out, w.styles.dim.Render("  (none)"))
		return
	}
	for _, item := range s.Items {
		where := "line " + strconv.Itoa(item.Line)
		if item.File != "" {
			where = filepath.Base(item.File) + ":" + strconv.Itoa(item.Line)
		}
		fmt.Fprintf(w.out, "  %s %s\n", w.styles.label.Render("["+where+"]"), w.styles.dim.Render(item.Timestamp))
		for _, l := range Lines(item.Text, maxLines, w.width) {
			fmt.Fprintf(w.out, "    %s\n", l)
		}
	}
}

func (w *Writer) sessionText(r *aggregate.SessionReport) error {
	fmt.Fprintf(w.out, "%s %s (%s)\n", w.styles.heading.Render("Session"), Truncate(r.File, w.width), r.Dialect)

	if s := r.Summary; s != nil {
		w.heading("Summary")
		w.field("Total lines", strconv.Itoa(s.TotalLines))
		w.field("User messages", strconv.Itoa(s.UserMessages))
		w.field("Assistant messages", strconv.Itoa(s.AssistantMessages))
		w.field("Tool uses", strconv.Itoa(s.ToolUses))
		w.field("First timestamp", s.FirstTimestamp)
		w.field("Last timestamp", s.LastTimestamp)
		w.field("Working directory", s.Cwd)
		w.field("Git branch", s.GitBranch)
		if s.Version != "" {
			w.field("Version", s.Version)
		}
		if s.MalformedLines > 0 {
			w.field("Malformed lines", strconv.Itoa(s.MalformedLines))
		}
	}
	if r.UserMessages != nil {
		w.samples("User messages", r.UserMessages, MessageLines)
	}
	if t := r.Tools; t != nil {
		w.entries(fmt.Sprintf("Tool usage (%d calls)", t.TotalCalls), "Tool", t.ToolUsage)
		w.entries("Read files", "File", t.ReadFiles)
		w.entries("Edited files", "File", t.EditedFiles)
	}
	if r.Errors != nil {
		w.samples("Errors", r.Errors, ErrorLines)
	}
	if r.Preferences != nil {
		w.samples("User preferences", r.Preferences, PreferenceLines)
	}
	return nil
}

func (w *Writer) patternsText(r *aggregate.PatternReport) error {
	fmt.Fprintf(w.out, "%s %d analyzed, %d skipped\n", w.styles.heading.Render("Sessions:"), r.FilesAnalyzed, r.FilesSkipped)
	for _, f := range r.Files {
		fmt.Fprintf(w.out, "  %s\n", w.styles.dim.Render(Truncate(f, w.width)))
	}

	w.entries("Tool usage", "Tool", r.ToolUsage)
	w.entries("Frequently read files", "File", r.ReadFiles)
	w.entries("Frequently edited files", "File", r.EditedFiles)
	w.samples("User preferences", &r.Preferences, PreferenceLines)
	w.samples("Errors", &r.Errors, ErrorLines)
	return nil
}

func (w *Writer) sessionsText(files []scan.LogFile, now time.Time) error {
	if len(files) == 0 {
		_, err := fmt.Fprintln(w.out, "No sessions found")
		return err
	}
	rows := make([][]string, 0, len(files))
	for i, f := range files {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			relTime(f.Timestamp, now),
			string(f.Source),
			Truncate(f.Project, 60),
			humanize.Bytes(uint64(f.Size)),
			Truncate(f.Path, w.width),
		})
	}
	w.table([]string{"#", "When", "Source", "Project", "Size", "Path"}, rows)
	return nil
}

func relTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
