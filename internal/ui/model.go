package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"policy-guide/internal/assistant"
	"policy-guide/internal/clipboard"
	"policy-guide/internal/config"
	"policy-guide/internal/export"
	"policy-guide/internal/guidance"
	"policy-guide/internal/highlight"
	"policy-guide/internal/history"
	"policy-guide/internal/logger"
	"policy-guide/internal/render"
	"policy-guide/internal/session"
	"policy-guide/internal/sidebar"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusOutput
	focusHistory
)

const inputHeight = 4

type Model struct {
	cfg      config.AppConfig
	app      *assistant.App
	terminal *render.Terminal
	exporter *export.Exporter
	copier   *clipboard.Copier
	log      *slog.Logger

	list     list.Model
	viewport viewport.Model
	input    textarea.Model
	find     textinput.Model
	help     help.Model
	spinner  spinner.Model
	keys     keyMap

	width  int
	height int
	sized  bool

	focus       focusArea
	findMode    bool
	findQuery   string
	rendering   bool
	renderNonce int

	rendered    map[string]string
	current     string
	currentKey  string
	highlighted map[string]highlight.Result
	matchLines  []int
	matchNotes  []string
	matchCount  int
	matchIndex  int

	status string
	err    error
}

type Deps struct {
	App      *assistant.App
	Terminal *render.Terminal
	Exporter *export.Exporter
	Copier   *clipboard.Copier
	Logger   *slog.Logger
}

type guidanceMsg struct{ result guidance.Result }
type renderMsg struct {
	cacheKey string
	rendered string
	nonce    int
}
type exportMsg struct {
	path string
	err  error
}
type copyMsg struct {
	err error
}

type historyItem struct {
	index int
	item  history.Item
}

func (i historyItem) Title() string {
	return strconv.Itoa(i.index+1) + ". " + oneLine(i.item.Query)
}

func (i historyItem) Description() string {
	text := render.Text(i.item.Response)
	if first, _, ok := strings.Cut(text, "\n"); ok {
		text = first
	}
	return oneLine(text)
}

func (i historyItem) FilterValue() string {
	return strings.ToLower(i.item.Query)
}

func NewModel(cfg config.AppConfig, deps Deps) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 32, 20)
	l.Title = "History"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)

	ta := textarea.New()
	ta.Placeholder = "Ask about K-12 AI policy, e.g. How should we handle AI in student assessments?"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(inputHeight)
	ta.Focus()

	fi := textinput.New()
	fi.Placeholder = "Find in guidance..."
	fi.Prompt = "/ "
	fi.CharLimit = 256

	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Points

	terminal := deps.Terminal
	if terminal == nil {
		terminal = render.NewTerminal(cfg.GlamourStyle)
	}

	m := Model{
		cfg:      cfg,
		app:      deps.App,
		terminal: terminal,
		exporter: deps.Exporter,
		copier:   deps.Copier,
		log:      logger.OrDiscard(deps.Logger),

		list:     l,
		viewport: vp,
		input:    ta,
		find:     fi,
		help:     h,
		spinner:  sp,
		keys:     defaultKeys(),

		focus:       focusInput,
		rendered:    make(map[string]string),
		highlighted: make(map[string]highlight.Result),
		matchIndex:  -1,
	}
	m.applyHistory()
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) guidanceCmd(call *guidance.Call) tea.Cmd {
	timeout := m.cfg.Timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return guidanceMsg{result: call.Run(ctx)}
	}
}

func (m Model) exportCmd() tea.Cmd {
	items := m.app.History()
	exp := m.exporter
	return func() tea.Msg {
		if exp == nil {
			return exportMsg{err: errors.New("export not configured")}
		}
		path, err := exp.Export(items)
		return exportMsg{path: path, err: err}
	}
}

func (m Model) copyCmd() tea.Cmd {
	d := m.app.Display()
	text := d.Markdown
	if text == "" {
		text = render.Text(d.Output)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	copier := m.copier
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return copyMsg{err: copier.Copy(ctx, text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.sized {
			m.sized = true
			sb := sidebar.New(msg.Width, m.cfg.SidebarBreakpoint)
			m.app.SetSidebar(sb)
			m.log.Debug("initial layout",
				"width", msg.Width,
				"breakpoint", sb.Breakpoint(),
				"narrow", sb.Narrow(),
				"sidebar_open", sb.Open(),
			)
		}
		m.resize()
		cmds = append(cmds, m.renderDisplay())

	case guidanceMsg:
		applied := msg.result.CallID != "" && msg.result.CallID == m.app.InFlight()
		m.app.Dispatch(context.Background(), assistant.Completed{Result: msg.result})
		if !applied {
			break
		}
		m.applyHistory()
		if m.app.SessionState() == session.Success {
			m.list.Select(0)
		}
		m.status = statusForResult(msg.result)
		cmds = append(cmds, m.renderDisplay())

	case renderMsg:
		if msg.nonce != m.renderNonce {
			break
		}
		m.rendering = false
		m.rendered[msg.cacheKey] = msg.rendered
		if msg.cacheKey == m.displayCacheKey() {
			m.setViewport(msg.cacheKey, msg.rendered, true)
		}

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed: " + msg.err.Error()
			m.log.Error("history export failed", "err", msg.err)
		} else {
			m.err = nil
			m.status = "Exported: " + msg.path
			m.log.Info("history exported", "path", msg.path)
		}

	case copyMsg:
		if msg.err != nil {
			m.err = msg.err
			if errors.Is(msg.err, clipboard.ErrUnavailable) {
				m.status = "Could not copy: clipboard not available"
			} else {
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.err = nil
			m.status = "Copied guidance to clipboard"
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if !m.app.InputEnabled() {
		var spin tea.Cmd
		m.spinner, spin = m.spinner.Update(msg)
		cmds = append(cmds, spin)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	if m.app.ClearPending() {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			n := m.app.HistoryLen()
			m.app.Dispatch(ctx, assistant.ConfirmClear{})
			m.applyHistory()
			if m.app.HistoryLen() == 0 {
				m.status = fmt.Sprintf("Cleared %d history %s", n, pluralize(n, "entry", "entries"))
			} else {
				m.status = "History could not be cleared"
			}
		case key.Matches(msg, m.keys.Cancel), msg.String() == "esc":
			m.app.Dispatch(ctx, assistant.CancelClear{})
			m.status = "Clear cancelled"
		}
		return m, nil
	}

	if m.findMode {
		switch msg.String() {
		case "esc":
			m.findMode = false
			m.findQuery = ""
			m.find.SetValue("")
			m.find.Blur()
			m.refreshViewportFromCache()
			return m, nil
		case "enter":
			m.findMode = false
			m.find.Blur()
			m.findQuery = strings.TrimSpace(m.find.Value())
			m.refreshViewportFromCache()
			return m, nil
		}
		before := strings.TrimSpace(m.find.Value())
		var cmd tea.Cmd
		m.find, cmd = m.find.Update(msg)
		if after := strings.TrimSpace(m.find.Value()); after != before {
			m.findQuery = after
			m.refreshViewportFromCache()
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		cmd := m.submit(assistant.Submit{Query: m.input.Value()})
		return m, cmd
	case key.Matches(msg, m.keys.ToggleSidebar):
		m.app.Dispatch(ctx, assistant.ToggleSidebar{})
		if !m.app.SidebarOpen() && m.focus == focusHistory {
			m.focus = focusOutput
		}
		m.resize()
		cmd := m.renderDisplay()
		return m, cmd
	case key.Matches(msg, m.keys.Tab):
		cmd := m.cycleFocus()
		return m, cmd
	}

	if idx, ok := m.starterIndex(msg); ok {
		starters := m.app.Starters()
		if idx < len(starters) && m.app.InputEnabled() {
			m.input.SetValue(starters[idx].Prompt)
			cmd := m.submit(assistant.UseStarter{Index: idx})
			return m, cmd
		}
		return m, nil
	}

	if m.focus == focusInput {
		if msg.String() == "esc" {
			cmd := m.setFocus(focusOutput)
			return m, cmd
		}
		if !m.app.InputEnabled() {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Compose):
		cmd := m.setFocus(focusInput)
		return m, cmd
	case key.Matches(msg, m.keys.ClearHistory):
		if m.app.HistoryLen() > 0 {
			m.app.Dispatch(ctx, assistant.RequestClear{})
		} else {
			m.status = "History is already empty"
		}
		return m, nil
	case key.Matches(msg, m.keys.Export):
		if m.app.HistoryLen() == 0 {
			m.status = "Nothing to export"
			return m, nil
		}
		cmd := m.exportCmd()
		return m, cmd
	}

	if m.focus == focusHistory {
		if msg.String() == "esc" {
			m.app.Dispatch(ctx, assistant.SetSidebar{Open: false})
			m.focus = focusOutput
			m.resize()
			cmd := m.renderDisplay()
			return m, cmd
		}
		if key.Matches(msg, m.keys.Select) {
			m.selectHistory(m.list.Index())
			cmd := m.renderDisplay()
			return m, cmd
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Find):
		m.findMode = true
		m.find.SetValue(m.findQuery)
		m.find.CursorEnd()
		cmd := m.find.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Copy):
		if cmd := m.copyCmd(); cmd != nil {
			return m, cmd
		}
		m.status = "Nothing to copy"
		return m, nil
	case key.Matches(msg, m.keys.PrevMatch):
		if m.findQuery != "" && len(m.matchLines) > 0 {
			m.jumpToMatch(-1)
		} else {
			m.viewport.HalfViewUp()
		}
	case key.Matches(msg, m.keys.NextMatch):
		if m.findQuery != "" && len(m.matchLines) > 0 {
			m.jumpToMatch(1)
		} else {
			m.viewport.HalfViewDown()
		}
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
	}
	return m, nil
}

func (m *Model) submit(ev assistant.Event) tea.Cmd {
	if !m.app.InputEnabled() {
		return nil
	}
	call := m.app.Dispatch(context.Background(), ev)
	if call == nil {
		return nil
	}
	m.err = nil
	m.status = ""
	return tea.Batch(m.guidanceCmd(call), m.renderDisplay(), m.spinner.Tick)
}

func (m *Model) selectHistory(i int) {
	m.app.Dispatch(context.Background(), assistant.SelectHistory{Index: i})
	d := m.app.Display()
	if d.Kind == guidance.DisplayHistory {
		m.input.SetValue(d.Query)
	}
	if !m.app.SidebarOpen() {
		m.focus = focusOutput
		m.resize()
	}
}

func (m *Model) starterIndex(msg tea.KeyMsg) (int, bool) {
	s := msg.String()
	if m.focus != focusInput {
		s = "alt+" + s
	}
	digit, ok := strings.CutPrefix(s, "alt+")
	if !ok || len(digit) != 1 || digit[0] < '1' || digit[0] > '9' {
		return 0, false
	}
	return int(digit[0] - '1'), true
}

func (m *Model) cycleFocus() tea.Cmd {
	next := m.focus
	for {
		next = (next + 1) % 3
		if next != focusHistory || m.app.SidebarOpen() {
			break
		}
	}
	return m.setFocus(next)
}

func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	if f == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) applyHistory() {
	entries := m.app.History()
	items := make([]list.Item, 0, len(entries))
	for i, e := range entries {
		items = append(items, historyItem{index: i, item: e})
	}
	m.list.SetItems(items)
	if len(items) > 0 && m.list.Index() >= len(items) {
		m.list.Select(0)
	}
}

// renderDisplay puts the current display into the viewport. Markdown is
// rendered off the event loop; everything else is set directly.
func (m *Model) renderDisplay() tea.Cmd {
	d := m.app.Display()
	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 20
	}

	switch d.Kind {
	case guidance.DisplayEmpty:
		m.setPlain(m.welcomeText())
		return nil
	case guidance.DisplayPending, guidance.DisplayNotice:
		m.setPlain(render.Plain("<p>"+d.Output+"</p>", wrap))
		return nil
	}
	if d.Markdown == "" {
		m.setPlain(render.Plain(d.Output, wrap))
		return nil
	}

	cacheKey := m.displayCacheKey()
	if rendered, ok := m.rendered[cacheKey]; ok {
		m.setViewport(cacheKey, rendered, cacheKey != m.currentKey)
		return nil
	}

	m.rendering = true
	m.renderNonce++
	nonce := m.renderNonce
	terminal := m.terminal
	md := d.Markdown
	return func() tea.Msg {
		return renderMsg{cacheKey: cacheKey, rendered: terminal.Render(md, wrap), nonce: nonce}
	}
}

func (m Model) displayCacheKey() string {
	d := m.app.Display()
	return fmt.Sprintf("w=%d|%s", m.viewport.Width, d.Markdown)
}

func (m *Model) setPlain(text string) {
	m.rendering = false
	m.renderNonce++
	m.setViewport("plain|"+text, text, true)
}

func (m Model) welcomeText() string {
	var b strings.Builder
	b.WriteString("K-12 AI policy guidance\n\n")
	b.WriteString("Type a question below and press ctrl+s, or start from a preset:\n\n")
	for i, s := range m.app.Starters() {
		b.WriteString(fmt.Sprintf("  alt+%d  %s\n", i+1, s.Label))
	}
	if n := m.app.HistoryLen(); n > 0 {
		b.WriteString(fmt.Sprintf("\n%d saved %s in history (ctrl+b to show).\n", n, pluralize(n, "answer", "answers")))
	}
	return b.String()
}

func (m Model) highlightCacheKey(cacheKey, query string) string {
	return cacheKey + "|q=" + strings.ToLower(strings.TrimSpace(query))
}

func (m *Model) refreshViewportFromCache() {
	if m.currentKey == "" {
		m.clearMatches()
		return
	}
	oldOffset := m.viewport.YOffset
	m.setViewport(m.currentKey, m.current, false)
	m.viewport.SetYOffset(m.clampViewportOffset(oldOffset))
}

func (m *Model) setViewport(cacheKey, rendered string, gotoTop bool) {
	m.current, m.currentKey = rendered, cacheKey
	content := rendered
	query := strings.TrimSpace(m.findQuery)
	if query != "" {
		hKey := m.highlightCacheKey(cacheKey, query)
		res, ok := m.highlighted[hKey]
		if !ok {
			res = highlight.Find(rendered, query, func(s string) string {
				return findMatchStyle.Render(s)
			})
			m.highlighted[hKey] = res
		}
		content = res.Text
		m.setMatchMeta(res)
	} else {
		m.clearMatches()
	}

	m.viewport.SetContent(content)
	if gotoTop {
		m.viewport.GotoTop()
		if len(m.matchLines) > 0 {
			m.matchIndex = 0
			m.viewport.SetYOffset(m.clampViewportOffset(m.matchLines[0]))
		}
	}
}

func (m *Model) setMatchMeta(res highlight.Result) {
	if res.Count == 0 || len(res.Matches) == 0 {
		m.clearMatches()
		return
	}
	m.matchCount = res.Count
	m.matchLines = append(m.matchLines[:0], res.Lines()...)
	m.matchNotes = m.matchNotes[:0]
	for _, match := range res.Matches {
		m.matchNotes = append(m.matchNotes, match.Preview)
	}
	if m.matchIndex < 0 || m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	}
}

func (m *Model) clearMatches() {
	m.matchLines = nil
	m.matchNotes = nil
	m.matchCount = 0
	m.matchIndex = -1
}

func (m *Model) jumpToMatch(delta int) {
	if len(m.matchLines) == 0 {
		m.status = "No matches in guidance"
		return
	}

	if m.matchIndex < 0 || m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	} else if delta > 0 {
		m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
	} else if delta < 0 {
		m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
	}

	line := m.matchLines[m.matchIndex]
	m.viewport.SetYOffset(m.clampViewportOffset(line))
	m.status = fmt.Sprintf("Match %d/%d", m.matchIndex+1, m.matchCount)
	if m.matchIndex < len(m.matchNotes) && m.matchNotes[m.matchIndex] != "" {
		m.status += ": " + shorten(m.matchNotes[m.matchIndex], 60)
	}
}

func (m *Model) clampViewportOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

func statusForResult(res guidance.Result) string {
	switch {
	case res.Err != nil:
		return "Request failed (details in log)"
	case strings.TrimSpace(res.Markdown) == "":
		return "No answer returned"
	default:
		return fmt.Sprintf("Answered in %s", res.Elapsed.Round(100*time.Millisecond))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
