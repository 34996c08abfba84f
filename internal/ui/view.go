package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, right := m.paneWidths()

	bodyHeight := m.height - 2
	if bodyHeight < 12 {
		bodyHeight = 12
	}

	if left > 0 {
		m.list.SetSize(left-4, bodyHeight-2)
	}
	m.input.SetWidth(right - 4)
	m.viewport.Width = right - 4
	m.viewport.Height = bodyHeight - inputHeight - 6
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	status := m.statusLine()
	left, right := m.paneWidths()
	bodyHeight := m.height - 2

	output := panelStyle(m.focus == focusOutput).Width(right - 2).Render(m.viewport.View())
	input := panelStyle(m.focus == focusInput).Width(right - 2).Render(m.input.View())
	main := lipgloss.JoinVertical(lipgloss.Left, output, input, m.actionLine(right-2))

	body := main
	if left > 0 {
		sidePane := panelStyle(m.focus == focusHistory).Width(left - 2).Height(bodyHeight - 2).Render(m.list.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidePane, main)
	}

	if m.app.ClearPending() {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.confirmView())
	}

	helpView := m.help.View(m.keys)
	if m.findMode {
		helpView = m.find.View() + "  " + helpView
	} else if m.findQuery != "" {
		helpView = "find: " + m.findQuery + "  " + helpView
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		body,
		helpView,
	)
}

func (m Model) confirmView() string {
	n := m.app.HistoryLen()
	msg := fmt.Sprintf("Clear all %d saved %s?\nThis cannot be undone.\n\n[y] clear   [n] keep", n, pluralize(n, "answer", "answers"))
	return modalStyle.Render(msg)
}

func (m Model) actionLine(width int) string {
	var button string
	if m.app.InputEnabled() {
		button = buttonStyle.Render("ctrl+s  Get guidance")
	} else {
		button = buttonBusyStyle.Render(m.spinner.View() + " Synthesizing...")
	}

	labels := make([]string, 0, 4)
	for i, s := range m.app.Starters() {
		labels = append(labels, fmt.Sprintf("alt+%d %s", i+1, s.Label))
	}
	starters := starterStyle.Render(strings.Join(labels, "  "))
	line := lipgloss.JoinHorizontal(lipgloss.Top, button, " ", starters)
	return ansi.Truncate(line, width, "")
}

func (m Model) statusLine() string {
	status := fmt.Sprintf("state=%s  history=%d", m.app.SessionState(), m.app.HistoryLen())
	d := m.app.Display()
	if q := strings.TrimSpace(d.Query); q != "" {
		status += "  q=" + shorten(oneLine(q), 40)
	}
	if m.findQuery != "" || m.findMode {
		status += "  [find]"
		if strings.TrimSpace(m.findQuery) != "" {
			if m.matchCount > 0 {
				cur := m.matchIndex + 1
				if cur < 1 {
					cur = 1
				}
				status += fmt.Sprintf("  [match %d/%d]", cur, m.matchCount)
			} else {
				status += "  [match 0]"
			}
		}
	}
	if m.rendering {
		status += "  [rendering]"
	}
	if strings.TrimSpace(m.status) != "" {
		status += "  " + shorten(m.status, 80)
	}
	return statusStyle.Width(m.width).Render(ansi.Truncate(status, m.width-2, "..."))
}

// paneWidths returns 0 for the sidebar when it is collapsed.
func (m *Model) paneWidths() (int, int) {
	if !m.app.SidebarOpen() {
		right := m.width
		if right < 30 {
			right = 30
		}
		return 0, right
	}
	left := m.width / 3
	if left < 28 {
		left = 28
	}
	if left > 48 {
		left = 48
	}
	if left > m.width-40 {
		left = m.width - 40
	}
	if left < 20 {
		left = 20
	}
	right := m.width - left
	if right < 30 {
		right = 30
	}
	return left, right
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}
	return ansi.Truncate(s, n, "...")
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	findMatchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("220"))
	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("25")).
			Padding(0, 1)
	buttonBusyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)
	starterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("203")).
			Padding(1, 3)
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	PrevMatch     key.Binding
	NextMatch     key.Binding
	Tab           key.Binding
	Compose       key.Binding
	Submit        key.Binding
	Select        key.Binding
	ToggleSidebar key.Binding
	Find          key.Binding
	Copy          key.Binding
	Export        key.Binding
	ClearHistory  key.Binding
	Confirm       key.Binding
	Cancel        key.Binding
	Quit          key.Binding
	ForceQuit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev match"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle focus"),
		),
		Compose: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "edit question"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "get guidance"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open entry"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "history"),
		),
		Find: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "find"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export html"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear history"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Tab, k.ToggleSidebar, k.Select, k.Find, k.Copy, k.Export, k.ClearHistory, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Tab, k.Compose},
		{k.Submit, k.Select, k.ToggleSidebar, k.Find, k.NextMatch, k.PrevMatch},
		{k.Copy, k.Export, k.ClearHistory, k.Quit},
	}
}
