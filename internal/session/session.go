// Package session tracks the lifecycle of a single guidance request.
package session

import (
	"errors"
	"fmt"
)

type State int

const (
	Idle State = iota
	Loading
	Error
	Success
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Success:
		return "success"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reason qualifies the Error state.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonFault
	ReasonEmptyResult
)

func (r Reason) String() string {
	switch r {
	case ReasonFault:
		return "fault"
	case ReasonEmptyResult:
		return "empty-result"
	default:
		return "none"
	}
}

var ErrInvalidTransition = errors.New("invalid session transition")

var transitions = map[State][]State{
	Idle:    {Loading},
	Error:   {Loading},
	Success: {Loading},
	Loading: {Success, Error, Idle},
}

type Controller struct {
	state     State
	reason    Reason
	observers []func(from, to State)
}

func NewController() *Controller {
	return &Controller{state: Idle}
}

func (c *Controller) State() State {
	return c.state
}

// Reason is ReasonNone unless the controller is in Error.
func (c *Controller) Reason() Reason {
	return c.reason
}

// InputEnabled is false only while a request is in flight.
func (c *Controller) InputEnabled() bool {
	return c.state != Loading
}

func (c *Controller) OnTransition(fn func(from, to State)) {
	if fn != nil {
		c.observers = append(c.observers, fn)
	}
}

// Begin moves to Loading. It reports false, changing nothing, when a
// request is already in flight.
func (c *Controller) Begin() bool {
	return c.move(Loading, ReasonNone) == nil
}

func (c *Controller) Succeed() error {
	return c.move(Success, ReasonNone)
}

func (c *Controller) Fail(reason Reason) error {
	if reason == ReasonNone {
		reason = ReasonFault
	}
	return c.move(Error, reason)
}

// Settle ends any request still marked Loading. Success and Error are left
// as they are; both already accept input.
func (c *Controller) Settle() {
	if c.state == Loading {
		_ = c.move(Idle, ReasonNone)
	}
}

func (c *Controller) move(to State, reason Reason) error {
	from := c.state
	if !allowed(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	c.state, c.reason = to, reason
	c.notify(from, to)
	return nil
}

func (c *Controller) notify(from, to State) {
	for _, fn := range c.observers {
		fn(from, to)
	}
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
