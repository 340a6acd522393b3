// Package drag implements the per-widget drag state machine.  A Controller is
// fed typed events and reports what happened to the widget when the gesture
// ends: a click, a move to a new cell, a deletion or a revert.
package drag

import (
	"errors"
	"fmt"

	"github.com/iliyamo/seating-plan/internal/grid"
)

// ErrInvalidTransition is returned for events that do not apply in the
// current state.  The controller is left untouched.
var ErrInvalidTransition = errors.New("invalid drag transition")

// State of a Controller.
type State int

const (
	Idle State = iota
	Pressed
	Dragging
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventKind identifies a pointer or keyboard event.
type EventKind int

const (
	Press EventKind = iota
	Move
	Release
	Cancel
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Move:
		return "move"
	case Release:
		return "release"
	case Cancel:
		return "cancel"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one input to the controller.  Delta is the cumulative pointer
// displacement since the press; Scroll is the container scroll offset at the
// time of the event.
type Event struct {
	Kind     EventKind
	Delta    grid.Point
	Scroll   grid.Point
	Keyboard bool
}

// Outcome is what a finished (or unfinished) gesture produced.
type Outcome int

const (
	None Outcome = iota
	Click
	Moved
	Deleted
	Reverted
)

func (o Outcome) String() string {
	switch o {
	case None:
		return "none"
	case Click:
		return "click"
	case Moved:
		return "moved"
	case Deleted:
		return "deleted"
	case Reverted:
		return "reverted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is returned from Handle.  Cell is only meaningful for Moved and
// Deleted; Translate is the widget's current pixel position.
type Result struct {
	Outcome   Outcome
	Cell      grid.Cell
	Translate grid.Point
}

// Options configure a Controller.
type Options struct {
	CellSize           int
	ActivationDistance int
	Bounds             grid.Bounds
}

// Controller tracks one widget.  It is not safe for concurrent use; callers
// serialise access.
type Controller struct {
	opts Options

	state       State
	origin      grid.Cell
	initial     grid.Point
	translate   grid.Point
	startScroll grid.Point
}

// New returns an idle controller for a widget sitting at origin.
func New(origin grid.Cell, opts Options) *Controller {
	if opts.CellSize <= 0 {
		opts.CellSize = 1
	}
	if opts.ActivationDistance < 0 {
		opts.ActivationDistance = 0
	}
	p := grid.ToPixelCoords(origin, opts.CellSize)
	return &Controller{
		opts:      opts,
		state:     Idle,
		origin:    origin,
		initial:   p,
		translate: p,
	}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Origin returns the cell the widget is committed to.
func (c *Controller) Origin() grid.Cell { return c.origin }

// Translate returns the widget's current pixel position.
func (c *Controller) Translate() grid.Point { return c.translate }

// Handle applies ev.
func (c *Controller) Handle(ev Event) (Result, error) {
	switch ev.Kind {
	case Press:
		return c.press(ev)
	case Move:
		return c.move(ev)
	case Release:
		return c.release(ev)
	case Cancel:
		return c.cancel()
	}
	return Result{}, fmt.Errorf("%w: unknown event %s", ErrInvalidTransition, ev.Kind)
}

func (c *Controller) press(ev Event) (Result, error) {
	if c.state == Pressed || c.state == Dragging {
		return Result{}, c.invalid(ev.Kind)
	}
	c.translate = c.initial
	if ev.Keyboard {
		c.activate(ev.Scroll)
	} else {
		c.state = Pressed
	}
	return c.result(None), nil
}

func (c *Controller) move(ev Event) (Result, error) {
	switch c.state {
	case Pressed:
		if ev.Delta.Length() < float64(c.opts.ActivationDistance) {
			return c.result(None), nil
		}
		c.activate(ev.Scroll)
	case Dragging:
	default:
		return Result{}, c.invalid(ev.Kind)
	}
	c.track(ev)
	return c.result(None), nil
}

func (c *Controller) release(ev Event) (Result, error) {
	switch c.state {
	case Pressed:
		c.state = Idle
		c.translate = c.initial
		return c.result(Click), nil
	case Dragging:
	default:
		return Result{}, c.invalid(ev.Kind)
	}

	c.track(ev)
	snapped := grid.Snap(c.translate, c.opts.CellSize)
	cell := grid.ToGridCoords(snapped, c.opts.CellSize)
	c.state = Committed

	if !c.opts.Bounds.Contains(cell) {
		c.translate = c.initial
		return Result{Outcome: Deleted, Cell: cell, Translate: c.translate}, nil
	}

	c.origin = cell
	c.initial = grid.ToPixelCoords(cell, c.opts.CellSize)
	c.translate = c.initial
	return Result{Outcome: Moved, Cell: cell, Translate: c.translate}, nil
}

func (c *Controller) cancel() (Result, error) {
	if c.state != Pressed && c.state != Dragging {
		return Result{}, c.invalid(Cancel)
	}
	c.state = Cancelled
	c.translate = c.initial
	return c.result(Reverted), nil
}

func (c *Controller) activate(scroll grid.Point) {
	c.state = Dragging
	c.startScroll = scroll
}

// track computes translate = initial + delta - (scroll - startScroll).
func (c *Controller) track(ev Event) {
	c.translate = c.initial.Add(ev.Delta).Sub(ev.Scroll.Sub(c.startScroll))
}

func (c *Controller) result(o Outcome) Result {
	return Result{Outcome: o, Cell: c.origin, Translate: c.translate}
}

func (c *Controller) invalid(k EventKind) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, k, c.state)
}

// GestureEvents is the press/move/release sequence of a pointer drag by
// delta.  Scroll is applied as the offset at release; the press and the
// activation happen at zero scroll.
func GestureEvents(delta, scroll grid.Point) []Event {
	return []Event{
		{Kind: Press},
		{Kind: Move, Delta: delta},
		{Kind: Release, Delta: delta, Scroll: scroll},
	}
}

// Gesture feeds GestureEvents(delta, scroll) and returns the final result.
func (c *Controller) Gesture(delta, scroll grid.Point) (Result, error) {
	var res Result
	for _, ev := range GestureEvents(delta, scroll) {
		r, err := c.Handle(ev)
		if err != nil {
			return Result{}, err
		}
		res = r
	}
	return res, nil
}

// ParseEventKind maps "press", "move", "release" and "cancel" to an
// EventKind.
func ParseEventKind(s string) (EventKind, bool) {
	for _, k := range []EventKind{Press, Move, Release, Cancel} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
