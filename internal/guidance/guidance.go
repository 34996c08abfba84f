// Package guidance coordinates one request against the text-generation
// collaborator: it drives the session state, renders the answer and records
// it in the history store.
package guidance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"policy-guide/internal/history"
	"policy-guide/internal/logger"
	"policy-guide/internal/session"

	"github.com/google/uuid"
)

type Request struct {
	Model             string
	SystemInstruction string
	Content           string
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

type Renderer interface {
	Render(markdown string) string
}

type DisplayKind int

const (
	DisplayEmpty DisplayKind = iota
	DisplayPending
	DisplayAnswer
	DisplayHistory
	DisplayNotice
)

// Display is what the output area currently shows. Output is rendered
// markup for answers and history, plain text otherwise.
type Display struct {
	Kind     DisplayKind
	Query    string
	Output   string
	Markdown string
}

type Orchestrator struct {
	gen      Generator
	renderer Renderer
	history  *history.Store
	session  *session.Controller
	log      *slog.Logger
	model    string

	display  Display
	inFlight string
}

type Options struct {
	Generator Generator
	Renderer  Renderer
	History   *history.Store
	Session   *session.Controller
	Logger    *slog.Logger
	Model     string
}

func New(opts Options) *Orchestrator {
	return &Orchestrator{
		gen:      opts.Generator,
		renderer: opts.Renderer,
		history:  opts.History,
		session:  opts.Session,
		log:      logger.OrDiscard(opts.Logger),
		model:    opts.Model,
	}
}

func (o *Orchestrator) Display() Display {
	return o.display
}

// InFlight is the id of the call awaiting Complete, or "".
func (o *Orchestrator) InFlight() string {
	return o.inFlight
}

func (o *Orchestrator) Session() *session.Controller {
	return o.session
}

// Call is one accepted submission. Run may execute off the event loop; it
// does not touch orchestrator state.
type Call struct {
	ID       string
	Query    string
	Started  time.Time
	req      Request
	gen      Generator
	renderer Renderer
}

type Result struct {
	CallID   string
	Query    string
	Markdown string
	Rendered string
	Err      error
	Elapsed  time.Duration
}

// Begin accepts a submission. Blank queries and submissions while another
// call is in flight are ignored without any state change.
func (o *Orchestrator) Begin(query string) (*Call, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}
	if !o.session.Begin() {
		o.log.Debug("submission ignored while loading", "inflight", o.inFlight)
		return nil, false
	}

	call := &Call{
		ID:      uuid.NewString(),
		Query:   query,
		Started: time.Now(),
		req: Request{
			Model:             o.model,
			SystemInstruction: SystemInstruction,
			Content:           query,
		},
		gen:      o.gen,
		renderer: o.renderer,
	}
	o.inFlight = call.ID
	o.display = Display{Kind: DisplayPending, Query: query, Output: PlaceholderMessage}
	o.log.Info("guidance request started", "request_id", call.ID, "model", o.model, "query_chars", len(query))
	return call, true
}

func (c *Call) Run(ctx context.Context) (res Result) {
	res = Result{CallID: c.ID, Query: c.Query}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("generator panic: %v", r)
		}
		res.Elapsed = time.Since(c.Started)
	}()

	if c.gen == nil {
		res.Err = fmt.Errorf("no text generator configured")
		return res
	}
	text, err := c.gen.Generate(ctx, c.req)
	if err != nil {
		res.Err = fmt.Errorf("generate guidance: %w", err)
		return res
	}
	if strings.TrimSpace(text) == "" {
		return res
	}
	res.Markdown = text
	if c.renderer != nil {
		res.Rendered = c.renderer.Render(text)
	} else {
		res.Rendered = text
	}
	return res
}

// Complete applies the outcome of a call. Results for anything other than
// the call in flight are dropped.
func (o *Orchestrator) Complete(ctx context.Context, res Result) {
	if res.CallID == "" || res.CallID != o.inFlight {
		o.log.Debug("stale guidance result dropped", "request_id", res.CallID)
		return
	}
	defer func() {
		o.inFlight = ""
		o.session.Settle()
	}()

	switch {
	case res.Err != nil:
		o.display = Display{Kind: DisplayNotice, Query: res.Query, Output: FaultMessage}
		o.log.Error("guidance request failed",
			"request_id", res.CallID,
			"elapsed", res.Elapsed,
			"err", res.Err,
		)
		_ = o.session.Fail(session.ReasonFault)

	case strings.TrimSpace(res.Markdown) == "":
		o.display = Display{Kind: DisplayNotice, Query: res.Query, Output: EmptyResultMessage}
		o.log.Info("guidance request returned no content", "request_id", res.CallID, "elapsed", res.Elapsed)
		_ = o.session.Fail(session.ReasonEmptyResult)

	default:
		o.display = Display{
			Kind:     DisplayAnswer,
			Query:    res.Query,
			Output:   res.Rendered,
			Markdown: res.Markdown,
		}
		if o.history != nil {
			if _, err := o.history.Append(ctx, res.Query, res.Rendered, res.Markdown); err != nil {
				o.log.Error("history write failed", "request_id", res.CallID, "err", err)
			}
		}
		o.log.Info("guidance request succeeded",
			"request_id", res.CallID,
			"elapsed", res.Elapsed,
			"markdown_chars", len(res.Markdown),
		)
		_ = o.session.Succeed()
	}
}

// Submit runs a whole request synchronously. It reports whether the
// submission was accepted.
func (o *Orchestrator) Submit(ctx context.Context, query string) bool {
	call, ok := o.Begin(query)
	if !ok {
		return false
	}
	o.Complete(ctx, call.Run(ctx))
	return true
}

// Show replaces the output area with a stored history entry. An in-flight
// call still overwrites it when it completes.
func (o *Orchestrator) Show(item history.Item) {
	o.display = Display{
		Kind:     DisplayHistory,
		Query:    item.Query,
		Output:   item.Response,
		Markdown: item.Markdown,
	}
}
