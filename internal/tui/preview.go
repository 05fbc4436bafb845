package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dotneet/claude-code-marketplace/internal/extract"
	"github.com/dotneet/claude-code-marketplace/internal/report"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

// previewProjections are what the preview panel shows for a session.
const previewProjections = extract.Summary | extract.UserMessages | extract.ToolUsage

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	path    string
	content string
	err     error
}

// loadPreviewCmd returns a tea.Cmd that analyzes and renders a session async.
func loadPreviewCmd(ctx context.Context, a Analyzer, f scan.LogFile, width int) tea.Cmd {
	return func() tea.Msg {
		r, err := a.AnalyzeSession(ctx, f.Path, previewProjections)
		if err != nil {
			return previewRenderedMsg{path: f.Path, err: err}
		}
		var b strings.Builder
		err = report.NewWriter(&b, report.FormatText, width).Session(r)
		return previewRenderedMsg{path: f.Path, content: b.String(), err: err}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePreviewPanel
	return vp
}
