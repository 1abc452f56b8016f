package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/kingrea/refclone/internal/clone"
	"github.com/kingrea/refclone/internal/config"
)

// focusArea is the widget receiving key input
type focusArea int

const (
	focusSearch focusArea = iota
	focusList
	focusCustomNamespace
	focusOffsetX
	focusOffsetY
	focusOffsetZ
	focusCopies
	focusGroupName
)

func newInput(placeholder, value string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 16
	ti.SetValue(value)
	return ti
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// focusOrder lists the focusable widgets; hidden inputs are skipped.
func (a *App) focusOrder() []focusArea {
	order := []focusArea{focusSearch, focusList}
	if a.namespaceKind == clone.NamespaceCustom {
		order = append(order, focusCustomNamespace)
	}
	order = append(order, focusOffsetX, focusOffsetY, focusOffsetZ, focusCopies)
	if a.grouping {
		order = append(order, focusGroupName)
	}
	return order
}

func (a *App) cycleFocus(step int) {
	order := a.focusOrder()
	idx := 0
	for i, f := range order {
		if f == a.focus {
			idx = i
			break
		}
	}
	idx = (idx + step + len(order)) % len(order)
	a.setFocus(order[idx])
}

func (a *App) setFocus(f focusArea) {
	a.focus = f
	for area, input := range a.inputs() {
		if area == f {
			input.Focus()
		} else {
			input.Blur()
		}
	}
}

// inputs maps focus areas to their text inputs.
func (a *App) inputs() map[focusArea]*textinput.Model {
	return map[focusArea]*textinput.Model{
		focusSearch:          &a.search,
		focusCustomNamespace: &a.customNamespace,
		focusOffsetX:         &a.offset[0],
		focusOffsetY:         &a.offset[1],
		focusOffsetZ:         &a.offset[2],
		focusCopies:          &a.copies,
		focusGroupName:       &a.groupName,
	}
}

func (a *App) toggleNamespaceMode() {
	if a.namespaceKind == clone.NamespaceCustom {
		a.namespaceKind = clone.NamespaceFromSelection
		if a.focus == focusCustomNamespace {
			a.setFocus(focusList)
		}
		return
	}
	a.namespaceKind = clone.NamespaceCustom
}

func (a *App) toggleGrouping() {
	a.grouping = !a.grouping
	if !a.grouping && a.focus == focusGroupName {
		a.setFocus(focusList)
	}
}

func parseOffset(label, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("offset %s must be a number", label)
	}
	if v < 0 {
		return 0, fmt.Errorf("offset %s must be >= 0", label)
	}
	return v, nil
}

// buildRequest snapshots the controls into one immutable clone request.
func (a *App) buildRequest() (clone.CloneRequest, error) {
	names := a.selectedNames()
	if len(names) == 0 {
		return clone.CloneRequest{}, clone.ErrEmptySelection
	}
	copies, err := strconv.Atoi(strings.TrimSpace(a.copies.Value()))
	if err != nil || copies < 1 {
		return clone.CloneRequest{}, fmt.Errorf("copies must be a whole number >= 1")
	}
	var offset [3]float64
	for i, label := range []string{"X", "Y", "Z"} {
		v, err := parseOffset(label, a.offset[i].Value())
		if err != nil {
			return clone.CloneRequest{}, err
		}
		offset[i] = v
	}
	namespace := clone.FromSelection()
	if a.namespaceKind == clone.NamespaceCustom {
		custom := strings.TrimSpace(a.customNamespace.Value())
		if custom == "" {
			return clone.CloneRequest{}, fmt.Errorf("custom namespace is empty")
		}
		namespace = clone.CustomNamespace(custom)
	}
	grouping := clone.NoGrouping()
	if a.grouping {
		name := strings.TrimSpace(a.groupName.Value())
		if name == "" {
			return clone.CloneRequest{}, fmt.Errorf("group name is empty")
		}
		grouping = clone.Grouped(name)
	}
	defaults := a.config.CloneDefaults()
	sortKey, err := defaults.SortKeyFunc()
	if err != nil {
		return clone.CloneRequest{}, err
	}
	sources := make([]clone.SourceReference, len(names))
	for i, name := range names {
		sources[i] = clone.SourceReference{Identifier: name}
	}
	return clone.CloneRequest{
		Sources:         sources,
		CopiesPerSource: copies,
		Offset:          clone.V3(offset[0], offset[1], offset[2]),
		Namespace:       namespace,
		Grouping:        grouping,
		Suffix:          defaults.Suffix,
		SortKey:         sortKey,
	}, nil
}

// controlDefaults captures the controls for persisting as next defaults.
func (a *App) controlDefaults(req clone.CloneRequest) (config.CloneDefaults, config.FilterConfig) {
	d := a.config.CloneDefaults()
	d.Copies = req.CopiesPerSource
	d.Offset = req.Offset
	d.Namespace.Mode = config.NamespaceFromSelection
	if req.Namespace.Kind == clone.NamespaceCustom {
		d.Namespace.Mode = config.NamespaceCustom
		d.Namespace.Custom = req.Namespace.Name
	}
	d.Grouping.Enabled = req.Grouping.Enabled
	if req.Grouping.Enabled {
		d.Grouping.Name = req.Grouping.Name
	}
	filters := config.FilterConfig{
		VisibleOnly:    a.filters.VisibleOnly,
		TopNodesOnly:   a.filters.TopOnly,
		ReferencesOnly: a.filters.ReferencesOnly,
	}
	return d, filters
}
