package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// browserKeys holds the session browser bindings. Printable keys are left
// to the filter input, so every binding here uses a control or named key.
type browserKeys struct {
	// session list
	Prev key.Binding
	Next key.Binding

	// preview scrolling, by half or full panel
	HalfUp   key.Binding
	HalfDown key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Resume      key.Binding
	ClearFilter key.Binding
	Reload      key.Binding
	Quit        key.Binding
}

func newBrowserKeys() browserKeys {
	return browserKeys{
		Prev:        key.NewBinding(key.WithKeys("up", "ctrl+k", "ctrl+p"), key.WithHelp("up", "prev")),
		Next:        key.NewBinding(key.WithKeys("down", "ctrl+j", "ctrl+n"), key.WithHelp("dn", "next")),
		HalfUp:      key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("C-u", "preview up")),
		HalfDown:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("C-d", "preview down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown")),
		Resume:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "copy resume cmd")),
		ClearFilter: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("C-l", "clear filter")),
		Reload:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("C-r", "rescan")),
		Quit:        key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

var keys = newBrowserKeys()

// ShortHelp lists the bindings shown in the status bar.
func (k browserKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.HalfUp, k.HalfDown, k.Resume, k.ClearFilter, k.Reload, k.Quit}
}

// scrollLines returns how far msg scrolls the preview: negative is up.
// ok is false when msg is not a preview binding.
func (k browserKeys) scrollLines(msg tea.KeyMsg, panelHeight int) (n int, ok bool) {
	switch {
	case key.Matches(msg, k.HalfUp):
		return -panelHeight / 2, true
	case key.Matches(msg, k.HalfDown):
		return panelHeight / 2, true
	case key.Matches(msg, k.PageUp):
		return -panelHeight, true
	case key.Matches(msg, k.PageDown):
		return panelHeight, true
	}
	return 0, false
}

// helpLine renders the short help as "key desc" pairs.
func (k browserKeys) helpLine() string {
	var parts []string
	for _, b := range k.ShortHelp() {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, styleHelpKey.Render(h.Key)+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
