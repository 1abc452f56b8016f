package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/refclone/internal/clone"
)

const aboutText = `Reference Cloner

Duplicates referenced assets and lays the copies out along an offset.
Each copy gets a fresh namespace (<base>_c0001 by default), is matched to
its source transform, then moved to anchor + offset × (k + 1).
New nodes can be grouped in chunks of the selection size.`

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	activeLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

func (a *App) widths() (int, int) {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(36, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
	}
	if leftWidth < 20 {
		leftWidth = width
		rightWidth = 0
	}
	return leftWidth, rightWidth
}

func (a *App) leftWidth() int {
	left, _ := a.widths()
	return left
}

// View renders the current state to a string.
func (a *App) View() string {
	leftWidth, rightWidth := a.widths()
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#07888C")).
		MarginBottom(1).
		Render(fmt.Sprintf("◆ REFCLONE v%s · %s", Version, filepath.Base(a.scene.Path())))

	if a.showAbout {
		about := panelBorder.Width(max(20, leftWidth)).Render(aboutText + "\n\n" + hintStyle.Render("any key to close"))
		return strings.Join([]string{header, about}, "\n")
	}

	leftBox := panelBorder.Width(max(20, leftWidth)).Render(a.renderNodePanel())
	body := leftBox
	if rightWidth > 0 {
		rightBox := panelBorder.Width(max(20, rightWidth)).Render(a.renderControls(rightWidth - 4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, leftBox, a.renderControls(leftWidth-4))
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderStatus())
	return strings.Join(sections, "\n")
}

func (a *App) renderNodePanel() string {
	search := labelFor(a.focus == focusSearch, "Search") + " " + a.search.View()
	flags := hintStyle.Render(fmt.Sprintf("[v]isible %s  [t]op %s  re[f]erences %s",
		onOff(a.filters.VisibleOnly), onOff(a.filters.TopOnly), onOff(a.filters.ReferencesOnly)))
	count := hintStyle.Render(fmt.Sprintf("%d of %d selected", len(a.selectedNames()), len(a.entries)))
	hint := hintStyle.Render("space toggle · a all · n none · g get selected · r reload · / search")
	return lipgloss.JoinVertical(lipgloss.Left, search, flags, "", a.nodes.View(), count, hint)
}

func (a *App) renderControls(width int) string {
	lines := []string{headingStyle.Render("Clone")}

	mode := "from selection"
	if a.namespaceKind == clone.NamespaceCustom {
		mode = "custom"
	}
	lines = append(lines, labelStyle.Render("[m] Namespace: ")+mode)
	if a.namespaceKind == clone.NamespaceCustom {
		lines = append(lines, "  "+labelFor(a.focus == focusCustomNamespace, "Name")+" "+a.customNamespace.View())
	}

	lines = append(lines, "", labelStyle.Render("Offset"))
	for i, axis := range []string{"X", "Y", "Z"} {
		lines = append(lines, "  "+labelFor(a.focus == focusOffsetX+focusArea(i), axis)+" "+a.offset[i].View())
	}
	lines = append(lines, "", labelFor(a.focus == focusCopies, "Copies")+" "+a.copies.View())

	lines = append(lines, "", labelStyle.Render("[G] Group: ")+onOff(a.grouping))
	if a.grouping {
		lines = append(lines, "  "+labelFor(a.focus == focusGroupName, "Name")+" "+a.groupName.View())
	}

	button := "[c] Clone"
	if a.cloning {
		button = "Cloning..."
	}
	lines = append(lines, "", activeLabel.Render(button), hintStyle.Render("tab next field · ctrl+s clone · ? about · q quit"))
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := headingStyle.Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	body := hintStyle.Render(strings.Join(lines, "\n"))
	return panelBorder.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderStatus() string {
	if a.statusMsg == "" {
		return ""
	}
	bg := infoColor
	switch a.statusKind {
	case statusSuccess:
		bg = successColor
	case statusFailure:
		bg = failureColor
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(bg).
		Padding(0, 1).
		MarginTop(1).
		Render(a.statusMsg)
}

func labelFor(active bool, text string) string {
	if active {
		return activeLabel.Render(text + ":")
	}
	return labelStyle.Render(text + ":")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
