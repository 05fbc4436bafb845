package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

// linesPerItem is the number of terminal lines each session occupies.
const linesPerItem = 2

// renderList renders the left panel: the session list with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		msg := "No sessions"
		if m.loadErr != nil {
			msg = "Failed to load sessions"
		}
		return styleMuted.
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(msg)
	}

	var lines []string
	for i, f := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatSessionLine(f, width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatSessionLine formats a single session as two lines:
//
//	line 1: [>] source  date  project
//	line 2:    file name  size (dimmed)
func formatSessionLine(f scan.LogFile, width int, selected bool) []string {
	src := sourceBadge(f.Source)

	date := "--/-- --:--"
	if !f.Timestamp.IsZero() {
		date = f.Timestamp.Local().Format("01/02 15:04")
	}

	// prefix + source + date + padding
	projectMax := max(width-2-7-12-1, 0)
	project := f.Project
	if runewidth.StringWidth(project) > projectMax {
		// keep the tail, it carries the repository name
		project = reverse(runewidth.Truncate(reverse(project), projectMax, ""))
	}

	line1 := fmt.Sprintf("%s %s %s", src, date, project)
	if selected {
		line1 = styleCursor.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	detail := fmt.Sprintf("%s  %s", filepath.Base(f.Path), humanize.Bytes(uint64(f.Size)))
	detail = runewidth.Truncate(detail, max(width-4, 0), "")
	line2 := "    " + styleMuted.Render(detail)

	return []string{line1, line2}
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := max(listHeight/linesPerItem, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
