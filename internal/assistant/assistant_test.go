package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"policy-guide/internal/guidance"
	"policy-guide/internal/history"
	"policy-guide/internal/render"
	"policy-guide/internal/session"
	"policy-guide/internal/sidebar"
	"policy-guide/internal/storage"

	"github.com/stretchr/testify/require"
)

type harness struct {
	app   *App
	kv    *storage.Memory
	store *history.Store
	calls int
	reply func(query string) (string, error)
}

func newHarness(t *testing.T, width int) *harness {
	t.Helper()
	h := &harness{kv: storage.NewMemory()}
	h.reply = func(q string) (string, error) { return "#### " + q, nil }
	h.store = history.Open(context.Background(), h.kv)
	orch := guidance.New(guidance.Options{
		Generator: guidance.GeneratorFunc(func(_ context.Context, req guidance.Request) (string, error) {
			h.calls++
			return h.reply(req.Content)
		}),
		Renderer: render.NewMarkup(),
		History:  h.store,
		Session:  session.NewController(),
	})
	h.app = New(Options{
		History: h.store,
		Sidebar: sidebar.New(width, sidebar.DefaultBreakpoint),
		Guide:   orch,
	})
	return h
}

// run dispatches ev and, if it started a call, completes it.
func (h *harness) run(ev Event) {
	ctx := context.Background()
	if call := h.app.Dispatch(ctx, ev); call != nil {
		h.app.Dispatch(ctx, Completed{Result: call.Run(ctx)})
	}
}

func (h *harness) seed(n int) {
	for i := 0; i < n; i++ {
		h.run(Submit{Query: fmt.Sprintf("question %d", i)})
	}
}

func TestSubmitFlowsIntoHistory(t *testing.T) {
	h := newHarness(t, 1200)
	h.run(Submit{Query: "What should our AI policy cover?"})

	require.Equal(t, 1, h.app.HistoryLen())
	require.Equal(t, session.Success, h.app.SessionState())
	require.True(t, h.app.InputEnabled())
	require.Contains(t, h.app.Display().Output, "<h4>What should our AI policy cover?</h4>")
}

func TestHistoryNeverExceedsCap(t *testing.T) {
	h := newHarness(t, 1200)
	h.seed(history.MaxItems + 5)

	items := h.app.History()
	require.Len(t, items, history.MaxItems)
	require.Equal(t, fmt.Sprintf("question %d", history.MaxItems+4), items[0].Query)
	require.Equal(t, "question 5", items[len(items)-1].Query)
}

func TestSameQueryTwiceRecordedOnce(t *testing.T) {
	h := newHarness(t, 1200)
	h.run(Submit{Query: "repeat"})
	h.run(Submit{Query: "repeat"})

	require.Equal(t, 2, h.calls)
	require.Equal(t, 1, h.app.HistoryLen())
}

func TestClearRequiresConfirmation(t *testing.T) {
	h := newHarness(t, 1200)
	h.seed(3)

	h.run(ConfirmClear{})
	require.Equal(t, 3, h.app.HistoryLen(), "confirm without request is a no-op")

	h.run(RequestClear{})
	require.True(t, h.app.ClearPending())
	h.run(CancelClear{})
	require.False(t, h.app.ClearPending())
	h.run(ConfirmClear{})
	require.Equal(t, 3, h.app.HistoryLen(), "cancelled request must not clear")

	h.run(RequestClear{})
	h.run(ConfirmClear{})
	require.Equal(t, 0, h.app.HistoryLen())
	require.False(t, h.app.ClearPending())

	reloaded := history.Open(context.Background(), h.kv)
	require.Equal(t, 0, reloaded.Len(), "clear must persist across reload")
}

func TestSelectHistoryShowsStoredValues(t *testing.T) {
	h := newHarness(t, 1200)
	h.seed(4)
	items := h.app.History()

	for i, item := range items {
		h.run(SelectHistory{Index: i})
		d := h.app.Display()
		require.Equal(t, guidance.DisplayHistory, d.Kind)
		require.Equal(t, item.Query, d.Query)
		require.Equal(t, item.Response, d.Output)
	}
}

func TestSelectHistoryOutOfRangeHasNoEffect(t *testing.T) {
	h := newHarness(t, 600)
	h.seed(2)
	h.run(SetSidebar{Open: true})
	before := h.app.Display()

	for _, i := range []int{-1, 2, 50} {
		h.run(SelectHistory{Index: i})
		require.Equal(t, before, h.app.Display())
		require.True(t, h.app.SidebarOpen(), "out-of-range selection must not collapse")
	}
}

func TestSidebarPolicyByWidth(t *testing.T) {
	wide := newHarness(t, 1200)
	require.True(t, wide.app.SidebarOpen())
	wide.seed(1)
	wide.run(SelectHistory{Index: 0})
	require.True(t, wide.app.SidebarOpen())
	wide.run(ToggleSidebar{})
	require.False(t, wide.app.SidebarOpen())
	wide.run(SelectHistory{Index: 0})
	require.False(t, wide.app.SidebarOpen())

	narrow := newHarness(t, 600)
	require.False(t, narrow.app.SidebarOpen())
	narrow.seed(1)
	narrow.run(SelectHistory{Index: 0})
	require.False(t, narrow.app.SidebarOpen())
	narrow.run(ToggleSidebar{})
	require.True(t, narrow.app.SidebarOpen())
	narrow.run(SelectHistory{Index: 0})
	require.False(t, narrow.app.SidebarOpen())
}

func TestStarterSubmitsPrompt(t *testing.T) {
	h := newHarness(t, 1200)
	h.run(UseStarter{Index: 1})

	require.Equal(t, 1, h.calls)
	require.Equal(t, DefaultStarters[1].Prompt, h.app.Display().Query)

	h.run(UseStarter{Index: 99})
	require.Equal(t, 1, h.calls)
}

func TestSubmitWhileLoadingReturnsNoCall(t *testing.T) {
	h := newHarness(t, 1200)
	ctx := context.Background()

	first := h.app.Dispatch(ctx, Submit{Query: "first"})
	require.NotNil(t, first)
	require.Nil(t, h.app.Dispatch(ctx, Submit{Query: "second"}))
	require.Nil(t, h.app.Dispatch(ctx, UseStarter{Index: 0}))
	require.Equal(t, session.Loading, h.app.SessionState())

	h.app.Dispatch(ctx, Completed{Result: first.Run(ctx)})
	require.Equal(t, 1, h.calls)
	require.Equal(t, "first", h.app.Display().Query)
}

func TestBrowsingDuringRequestIsClobberedByCompletion(t *testing.T) {
	h := newHarness(t, 1200)
	h.seed(1)
	ctx := context.Background()

	call := h.app.Dispatch(ctx, Submit{Query: "late"})
	h.app.Dispatch(ctx, SelectHistory{Index: 0})
	require.Equal(t, "question 0", h.app.Display().Query)

	h.app.Dispatch(ctx, Completed{Result: call.Run(ctx)})
	require.Equal(t, "late", h.app.Display().Query)
}

func TestFaultLeavesHistoryUntouched(t *testing.T) {
	h := newHarness(t, 1200)
	h.seed(2)
	h.reply = func(string) (string, error) { return "", errors.New("network down") }

	h.run(Submit{Query: "will fail"})
	require.Equal(t, guidance.FaultMessage, h.app.Display().Output)
	require.Equal(t, 2, h.app.HistoryLen())
	require.True(t, h.app.InputEnabled())
}

func TestStartersReturnsCopy(t *testing.T) {
	h := newHarness(t, 1200)
	s := h.app.Starters()
	s[0].Prompt = "changed"
	require.Equal(t, DefaultStarters[0].Prompt, h.app.Starters()[0].Prompt)
}
