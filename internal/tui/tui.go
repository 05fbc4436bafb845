package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/dotneet/claude-code-marketplace/internal/aggregate"
	"github.com/dotneet/claude-code-marketplace/internal/extract"
	"github.com/dotneet/claude-code-marketplace/internal/parse"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

const debounceDelay = 200 * time.Millisecond

// Analyzer is what the browser needs to list and preview sessions.
type Analyzer interface {
	Locate(ctx context.Context, opts scan.Options) ([]scan.LogFile, error)
	AnalyzeSession(ctx context.Context, path string, mode extract.Projection) (*aggregate.SessionReport, error)
}

// message types

type filesLoadedMsg struct {
	files []scan.LogFile
	err   error
}

type debounceTickMsg struct {
	filter string
}

// model

type model struct {
	ctx         context.Context
	analyzer    Analyzer
	opts        scan.Options
	all         []scan.LogFile
	filter      string
	results     []scan.LogFile
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // path of the rendered preview, avoids duplicate renders
	loadErr     error
	width       int
	height      int
	ready       bool
	quitting    bool
	selected    *scan.LogFile
}

func initialModel(ctx context.Context, a Analyzer, opts scan.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Filter by project or path..."
	ti.Focus()
	ti.Prompt = "> "
	ti.PromptStyle = styleFilter
	ti.TextStyle = styleFilter
	ti.CharLimit = 256

	return model{
		ctx:         ctx,
		analyzer:    a,
		opts:        opts,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Run starts the session browser and blocks until it exits. If the user
// selects a session, its resume command is copied to the clipboard.
func Run(ctx context.Context, a Analyzer, opts scan.Options) error {
	m := initialModel(ctx, a, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return errors.Wrap(err, "tui")
	}

	fm := finalModel.(model)
	if fm.selected != nil {
		return copyResumeCommand(*fm.selected)
	}
	return nil
}

// ResumeCommand returns the shell command that resumes the session in f.
func ResumeCommand(f scan.LogFile) string {
	// session ID is the file name without the .jsonl extension
	sessionID := strings.TrimSuffix(filepath.Base(f.Path), ".jsonl")

	var resumeCmd string
	switch f.Source {
	case parse.DialectClaude:
		resumeCmd = fmt.Sprintf("claude --resume %s", sessionID)
	case parse.DialectCodex:
		// Codex expects UUID only, extract from filename like
		// rollout-2026-01-26T17-30-22-019bf9a3-d433-7fc1-8214-b82613804964
		resumeCmd = fmt.Sprintf("codex resume %s", extractUUID(sessionID))
	default:
		resumeCmd = sessionID
	}

	if f.Project != "" {
		return fmt.Sprintf("cd %s && %s", shellQuote(f.Project), resumeCmd)
	}
	return resumeCmd
}

// shellQuote single-quotes s for POSIX shells unless it only holds
// characters that need no quoting.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("/._-+:@%,=", r)
}

func copyResumeCommand(f scan.LogFile) error {
	fullCmd := ResumeCommand(f)
	if err := clipboard.WriteAll(fullCmd); err != nil {
		fmt.Printf("%s\n", fullCmd)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", fullCmd)
	return nil
}

// uuidRe matches a standard UUID (8-4-4-4-12 hex pattern).
var uuidRe = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// extractUUID extracts a UUID from a string, returning the original if none found.
func extractUUID(s string) string {
	if m := uuidRe.FindString(s); m != "" {
		return m
	}
	return s
}

// filterFiles keeps files whose project or path contains filter, case-insensitively.
func filterFiles(files []scan.LogFile, filter string) []scan.LogFile {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return files
	}
	var out []scan.LogFile
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Project), filter) || strings.Contains(strings.ToLower(f.Path), filter) {
			out = append(out, f)
		}
	}
	return out
}

// Init triggers the initial session load.
func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadFiles())
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		cmds = append(cmds, m.loadCurrentPreview())
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if n, ok := keys.scrollLines(msg, m.panelHeight()); ok {
			if n < 0 {
				m.preview.LineUp(-n)
			} else {
				m.preview.LineDown(n)
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Resume):
			if len(m.results) > 0 && m.cursor < len(m.results) {
				f := m.results[m.cursor]
				m.selected = &f
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Prev):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Next):
			if m.cursor < len(m.results)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.ClearFilter):
			if m.filter == "" {
				return m, nil
			}
			m.filterInput.SetValue("")
			m.filter = ""
			m.applyFilter()
			return m, m.loadCurrentPreview()

		case key.Matches(msg, keys.Reload):
			// sessions may have grown since the last scan
			m.previewKey = ""
			return m, m.loadFiles()
		}

		// Pass remaining keys to text input
		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if v := m.filterInput.Value(); v != m.filter {
			m.filter = v
			cmds = append(cmds, scheduleDebouncedFilter(v))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready || len(m.results) == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			visibleItems := m.panelHeight() / linesPerItem
			maxOffset := max(len(m.results)-visibleItems, 0)
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.results) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			if vpCmd != nil {
				cmds = append(cmds, vpCmd)
			}
			return m, tea.Batch(cmds...)
		}

		return m, nil

	case debounceTickMsg:
		// only apply if the filter hasn't changed since the tick was scheduled
		if msg.filter == m.filter {
			m.applyFilter()
			cmds = append(cmds, m.loadCurrentPreview())
		}
		return m, tea.Batch(cmds...)

	case filesLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			m.all = nil
			m.applyFilter()
			m.preview.SetContent("Error: " + msg.err.Error())
			return m, nil
		}
		m.all = msg.files
		m.applyFilter()
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		if msg.path == m.previewKey {
			return m, nil
		}
		if len(m.results) == 0 || m.cursor >= len(m.results) || m.results[m.cursor].Path != msg.path {
			return m, nil // stale preview
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			m.preview.GotoTop()
		}
		m.previewKey = msg.path
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m *model) applyFilter() {
	m.results = filterFiles(m.all, m.filter)
	m.cursor = 0
	m.listOffset = 0
	if len(m.results) == 0 {
		m.preview.SetContent("")
		m.previewKey = ""
	}
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	inputRow := m.filterInput.View()

	listContent := m.renderList(listW, panelH)
	listPanel := styleListPanel.
		Width(listW).
		Height(panelH).
		Render(listContent)

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := stylePreviewPanel.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	// 40% for list, minus border padding
	return max(m.width*40/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	// 60% for preview, minus border padding
	return max(m.width*60/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row (1) + status bar (1) + borders (4)
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1 // col 0=border, 1..lw=content, lw+1=border

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + (relY / linesPerItem)
	}
	if x > listBoxRight+1 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	count := fmt.Sprintf("%d/%d sessions", len(m.results), len(m.all))
	return styleStatusBar.Render(count + " | " + keys.helpLine())
}

func (m model) loadFiles() tea.Cmd {
	ctx, a, opts := m.ctx, m.analyzer, m.opts
	return func() tea.Msg {
		files, err := a.Locate(ctx, opts)
		return filesLoadedMsg{files: files, err: err}
	}
}

func scheduleDebouncedFilter(filter string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{filter: filter}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	if !m.ready || len(m.results) == 0 || m.cursor >= len(m.results) {
		return nil
	}
	f := m.results[m.cursor]
	if f.Path == m.previewKey {
		return nil // already showing this preview
	}
	return loadPreviewCmd(m.ctx, m.analyzer, f, m.previewWidth())
}
