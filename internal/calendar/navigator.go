package calendar

import (
	"fmt"
	"sync"
	"time"

	"agendacal/internal/model"
)

// Cursor is the month currently displayed. Month is 1-based (time.Month).
type Cursor struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// CursorOf returns the cursor for the month containing d.
func CursorOf(d model.Date) Cursor {
	return Cursor{Year: d.Year, Month: d.Month}
}

// Next returns the following month, wrapping December into January.
func (c Cursor) Next() Cursor {
	if c.Month == time.December {
		return Cursor{Year: c.Year + 1, Month: time.January}
	}
	return Cursor{Year: c.Year, Month: c.Month + 1}
}

// Prev returns the preceding month, wrapping January into December.
func (c Cursor) Prev() Cursor {
	if c.Month == time.January {
		return Cursor{Year: c.Year - 1, Month: time.December}
	}
	return Cursor{Year: c.Year, Month: c.Month - 1}
}

func (c Cursor) String() string {
	return fmt.Sprintf("%04d-%02d", c.Year, int(c.Month))
}

// NavigatorOptions configures a Navigator. Zero values fall back to
// time.Now, time.Local, a Sunday-first builder and an empty index.
type NavigatorOptions struct {
	Now      func() time.Time
	Location *time.Location
	Builder  Builder

	// Events is consulted on every rebuild so that a refreshed index shows up
	// on the next transition.
	Events func() EventLookup
}

// Navigator owns the single display cursor. Transitions are serialized so a
// shared navigator behaves like the one-event-at-a-time UI loop it models.
type Navigator struct {
	mu     sync.Mutex
	cursor Cursor
	opts   NavigatorOptions
}

// NewNavigator creates a navigator positioned on the current month.
func NewNavigator(opts NavigatorOptions) *Navigator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	n := &Navigator{opts: opts}
	n.cursor = CursorOf(n.today())
	return n
}

// Cursor reports the displayed month.
func (n *Navigator) Cursor() Cursor {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

// Grid rebuilds the grid for the displayed month without moving.
func (n *Navigator) Grid() (Grid, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.build(n.cursor, n.today())
}

func (n *Navigator) Next() (Grid, error) {
	return n.move(func(c Cursor, _ model.Date) Cursor { return c.Next() })
}

func (n *Navigator) Prev() (Grid, error) {
	return n.move(func(c Cursor, _ model.Date) Cursor { return c.Prev() })
}

// Today resets the cursor to the clock's current month.
func (n *Navigator) Today() (Grid, error) {
	return n.move(func(_ Cursor, today model.Date) Cursor { return CursorOf(today) })
}

// move applies a transition and rebuilds. The clock is read once, so the
// target month and the highlighted day always agree. If the target month
// cannot be built the cursor stays where it was.
func (n *Navigator) move(step func(Cursor, model.Date) Cursor) (Grid, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	today := n.today()
	target := step(n.cursor, today)
	g, err := n.build(target, today)
	if err != nil {
		return Grid{}, err
	}
	n.cursor = target
	return g, nil
}

func (n *Navigator) build(c Cursor, today model.Date) (Grid, error) {
	var lookup EventLookup
	if n.opts.Events != nil {
		lookup = n.opts.Events()
	}
	return n.opts.Builder.Build(c.Year, c.Month, lookup, today)
}

func (n *Navigator) today() model.Date {
	return model.DateOf(n.opts.Now().In(n.opts.Location))
}
