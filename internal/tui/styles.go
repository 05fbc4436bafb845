package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotneet/claude-code-marketplace/internal/parse"
)

// ANSI 256 palette, readable on dark and light terminals.
var (
	colorClaude = lipgloss.Color("12")
	colorCodex  = lipgloss.Color("10")
	colorCursor = lipgloss.Color("11")
	colorMuted  = lipgloss.Color("240")
	colorFrame  = lipgloss.Color("238")
)

var (
	styleFilter  = lipgloss.NewStyle().Foreground(colorClaude).Bold(true)
	styleCursor  = lipgloss.NewStyle().Foreground(colorCursor).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleHelpKey = lipgloss.NewStyle().Foreground(colorCursor)

	styleStatusBar = styleMuted.Padding(0, 1)

	styleListPanel    = framed(colorFrame)
	stylePreviewPanel = framed(colorClaude)
)

func framed(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
}

// sourceBadge renders the fixed-width dialect column of the session list.
func sourceBadge(d parse.Dialect) string {
	switch d {
	case parse.DialectClaude:
		return lipgloss.NewStyle().Foreground(colorClaude).Render("claude")
	case parse.DialectCodex:
		return lipgloss.NewStyle().Foreground(colorCodex).Render("codex ")
	}
	return styleMuted.Render(fmt.Sprintf("%-6.6s", string(d)))
}
