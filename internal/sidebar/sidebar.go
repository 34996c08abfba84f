// Package sidebar holds the open/collapsed state of the history sidebar.
package sidebar

// DefaultBreakpoint is the width at or below which the sidebar starts
// collapsed and auto-dismisses after a selection.
const DefaultBreakpoint = 900

type Controller struct {
	open       bool
	narrow     bool
	width      int
	breakpoint int
}

// New decides the initial state from the width observed at startup. The
// width is not consulted again.
func New(width, breakpoint int) *Controller {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	return &Controller{
		open:       width > breakpoint,
		narrow:     width <= breakpoint,
		width:      width,
		breakpoint: breakpoint,
	}
}

func (c *Controller) Open() bool {
	return c.open
}

func (c *Controller) Narrow() bool {
	return c.narrow
}

func (c *Controller) Breakpoint() int {
	return c.breakpoint
}

// Toggle flips the state and returns the new value.
func (c *Controller) Toggle() bool {
	c.open = !c.open
	return c.open
}

func (c *Controller) Set(open bool) {
	c.open = open
}

// Selected applies the post-selection policy: collapse on narrow layouts,
// leave wide layouts alone.
func (c *Controller) Selected() {
	if c.narrow {
		c.open = false
	}
}
