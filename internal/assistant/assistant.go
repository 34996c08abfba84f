// Package assistant owns the state of one guidance session and accepts
// explicit events from the presentation layer.
package assistant

import (
	"context"
	"log/slog"

	"policy-guide/internal/guidance"
	"policy-guide/internal/history"
	"policy-guide/internal/logger"
	"policy-guide/internal/session"
	"policy-guide/internal/sidebar"
)

type Starter struct {
	Label  string `yaml:"label"`
	Prompt string `yaml:"prompt"`
}

var DefaultStarters = []Starter{
	{Label: "Policy essentials", Prompt: "What should our district's AI policy cover?"},
	{Label: "Academic integrity", Prompt: "How should we update our academic integrity policy for generative AI?"},
	{Label: "Student data privacy", Prompt: "What student data privacy safeguards should we require before adopting an AI tool?"},
	{Label: "Staff training", Prompt: "What professional development should teachers receive before using AI in class?"},
}

type App struct {
	history *history.Store
	session *session.Controller
	sidebar *sidebar.Controller
	guide   *guidance.Orchestrator
	log     *slog.Logger

	starters     []Starter
	clearPending bool
}

type Options struct {
	History  *history.Store
	Sidebar  *sidebar.Controller
	Guide    *guidance.Orchestrator
	Starters []Starter
	Logger   *slog.Logger
}

func New(opts Options) *App {
	a := &App{
		history:  opts.History,
		sidebar:  opts.Sidebar,
		guide:    opts.Guide,
		starters: opts.Starters,
		log:      logger.OrDiscard(opts.Logger),
	}
	a.session = opts.Guide.Session()
	if a.sidebar == nil {
		a.sidebar = sidebar.New(0, 0)
	}
	if len(a.starters) == 0 {
		a.starters = DefaultStarters
	}
	a.session.OnTransition(func(from, to session.State) {
		a.log.Debug("session transition", "from", from, "to", to)
	})
	return a
}

// SetSidebar installs the sidebar controller once the width is known.
func (a *App) SetSidebar(c *sidebar.Controller) {
	if c != nil {
		a.sidebar = c
	}
}

// Dispatch applies ev. When ev starts a request the returned call must be
// run and its result dispatched back as Completed.
func (a *App) Dispatch(ctx context.Context, ev Event) *guidance.Call {
	switch ev := ev.(type) {
	case Submit:
		return a.submit(ev.Query)
	case UseStarter:
		if ev.Index < 0 || ev.Index >= len(a.starters) {
			return nil
		}
		return a.submit(a.starters[ev.Index].Prompt)
	case Completed:
		a.guide.Complete(ctx, ev.Result)
	case SelectHistory:
		a.selectHistory(ev.Index)
	case ToggleSidebar:
		a.sidebar.Toggle()
	case SetSidebar:
		a.sidebar.Set(ev.Open)
	case RequestClear:
		a.clearPending = true
	case CancelClear:
		a.clearPending = false
	case ConfirmClear:
		a.confirmClear(ctx)
	}
	return nil
}

func (a *App) submit(query string) *guidance.Call {
	call, ok := a.guide.Begin(query)
	if !ok {
		return nil
	}
	return call
}

func (a *App) selectHistory(i int) {
	item, ok := a.history.Get(i)
	if !ok {
		return
	}
	a.guide.Show(item)
	a.sidebar.Selected()
}

func (a *App) confirmClear(ctx context.Context) {
	if !a.clearPending {
		a.log.Warn("history clear requested without confirmation; ignored")
		return
	}
	a.clearPending = false
	if err := a.history.Clear(ctx); err != nil {
		a.log.Error("history clear failed", "err", err)
		return
	}
	a.log.Info("history cleared")
}

func (a *App) Display() guidance.Display {
	return a.guide.Display()
}

// InFlight is the id of the request whose result is still awaited.
func (a *App) InFlight() string {
	return a.guide.InFlight()
}

func (a *App) History() []history.Item {
	return a.history.Items()
}

func (a *App) HistoryLen() int {
	return a.history.Len()
}

func (a *App) SessionState() session.State {
	return a.session.State()
}

func (a *App) InputEnabled() bool {
	return a.session.InputEnabled()
}

func (a *App) SidebarOpen() bool {
	return a.sidebar.Open()
}

func (a *App) ClearPending() bool {
	return a.clearPending
}

func (a *App) Starters() []Starter {
	out := make([]Starter, len(a.starters))
	copy(out, a.starters)
	return out
}
