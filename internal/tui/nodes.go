package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/refclone/internal/scene"
)

var (
	nodeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	nodeCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3E5158")).Bold(true)
	nodeSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#07888C")).Bold(true)
)

// nodeItem implements list.Item for one scene entry
type nodeItem struct {
	entry scene.Entry
}

func (i nodeItem) FilterValue() string { return i.entry.Name }

// nodeDelegate renders a checkbox, the type icon and the node name. The
// selection set is shared with the App.
type nodeDelegate struct {
	selected map[string]bool
}

func (d nodeDelegate) Height() int                             { return 1 }
func (d nodeDelegate) Spacing() int                            { return 0 }
func (d nodeDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d nodeDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(nodeItem)
	if !ok {
		return
	}
	check := "[ ]"
	style := nodeStyle
	if d.selected[it.entry.Name] {
		check = "[x]"
		style = nodeSelectedStyle
	}
	if index == m.Index() {
		style = nodeCursorStyle
	}
	fmt.Fprint(w, style.Render(fmt.Sprintf("%s %s %s", check, it.entry.Icon(), it.entry.Name)))
}

func newNodeList(selected map[string]bool) list.Model {
	l := list.New(nil, nodeDelegate{selected: selected}, 0, 0)
	l.Title = "Scene nodes"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)
	return l
}

// matchesSearch is a case-insensitive substring match; empty matches all.
func matchesSearch(name, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), query)
}

// searchRuneAllowed mirrors the host's name alphabet.
func searchRuneAllowed(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func searchKeyAllowed(msg tea.KeyMsg) bool {
	if msg.Type != tea.KeyRunes {
		return true
	}
	for _, r := range msg.Runes {
		if !searchRuneAllowed(r) {
			return false
		}
	}
	return true
}

// applySearch rebuilds the visible rows from the full enumeration.
func (a *App) applySearch() {
	query := a.search.Value()
	items := make([]list.Item, 0, len(a.entries))
	for _, e := range a.entries {
		if matchesSearch(e.Name, query) {
			items = append(items, nodeItem{entry: e})
		}
	}
	a.nodes.SetItems(items)
	if len(items) > 0 && a.nodes.Index() >= len(items) {
		a.nodes.Select(len(items) - 1)
	}
}

// reloadNodes re-enumerates the scene with the current filters and clears
// the selection.
func (a *App) reloadNodes() {
	a.entries = a.scene.Nodes(a.filters)
	a.selectNone()
	a.applySearch()
}

// adoptHostSelection replaces the list with the host's current selection,
// all of it selected.
func (a *App) adoptHostSelection() bool {
	names := a.scene.Selection()
	if len(names) == 0 {
		return false
	}
	a.entries = a.scene.Entries(names)
	a.selectNone()
	for _, e := range a.entries {
		a.selected[e.Name] = true
	}
	a.applySearch()
	return true
}

func (a *App) selectAll() {
	for _, e := range a.entries {
		a.selected[e.Name] = true
	}
}

// selectNone empties the shared map in place so the delegate keeps seeing it.
func (a *App) selectNone() {
	for name := range a.selected {
		delete(a.selected, name)
	}
}

func (a *App) toggleCurrent() {
	item, ok := a.nodes.SelectedItem().(nodeItem)
	if !ok {
		return
	}
	name := item.entry.Name
	if a.selected[name] {
		delete(a.selected, name)
	} else {
		a.selected[name] = true
	}
}

// selectedNames returns the selection in enumeration order.
func (a *App) selectedNames() []string {
	var names []string
	for _, e := range a.entries {
		if a.selected[e.Name] {
			names = append(names, e.Name)
		}
	}
	return names
}
