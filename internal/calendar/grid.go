// Package calendar computes the 6x7 month grid shown on the agenda page and
// keeps the cursor of the month currently on display.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"agendacal/internal/model"
)

// Grid geometry: 6 weeks x 7 days.
const (
	GridColumns = 7
	GridRows    = 6
	GridSize    = GridColumns * GridRows
)

// Supported year range. Anything outside is a caller bug.
const (
	MinYear = 1
	MaxYear = 9999
)

// ErrInvalidArgument marks out-of-range year/month input.
var ErrInvalidArgument = errors.New("invalid argument")

// MonthOffset tells which month a cell belongs to relative to the displayed one.
type MonthOffset int

const (
	Previous MonthOffset = -1
	Current  MonthOffset = 0
	Next     MonthOffset = 1
)

func (o MonthOffset) String() string {
	switch o {
	case Previous:
		return "previous"
	case Current:
		return "current"
	case Next:
		return "next"
	default:
		return fmt.Sprintf("MonthOffset(%d)", int(o))
	}
}

func (o MonthOffset) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// EventLookup answers whether a date carries at least one event.
// *events.Index implements it.
type EventLookup interface {
	HasEvents(d model.Date) bool
}

// DayCell is one of the 42 grid entries.
type DayCell struct {
	Day      int         `json:"day"`
	Offset   MonthOffset `json:"offset"`
	Today    bool        `json:"today"`
	HasEvent bool        `json:"has_event"`
	Date     model.Date  `json:"date"`
}

// Grid is the computed month. Cells is an array so the cell count is part of
// the type.
type Grid struct {
	Year      int               `json:"year"`
	Month     time.Month        `json:"month"`
	WeekStart time.Weekday      `json:"week_start"`
	Cells     [GridSize]DayCell `json:"cells"`
}

// Builder builds month grids. The zero value starts weeks on Sunday.
type Builder struct {
	WeekStart time.Weekday
}

// BuildMonthGrid builds a Sunday-first grid for (year, month).
func BuildMonthGrid(year int, month time.Month, lookup EventLookup, today model.Date) (Grid, error) {
	return Builder{}.Build(year, month, lookup, today)
}

// Build computes the grid for (year, month). A nil lookup is treated as an
// empty index: the grid still renders, just without event markers.
func (b Builder) Build(year int, month time.Month, lookup EventLookup, today model.Date) (Grid, error) {
	if err := validate(year, month); err != nil {
		return Grid{}, err
	}
	if b.WeekStart < time.Sunday || b.WeekStart > time.Saturday {
		return Grid{}, fmt.Errorf("calendar: week start %d: %w", int(b.WeekStart), ErrInvalidArgument)
	}

	first := model.Date{Year: year, Month: month, Day: 1}
	lead := (int(first.Weekday()) - int(b.WeekStart) + 7) % 7
	daysInMonth := model.DaysIn(year, month)

	prevYear, prevMonth := year, month-1
	if prevMonth < time.January {
		prevMonth = time.December
		prevYear--
	}
	nextYear, nextMonth := year, month+1
	if nextMonth > time.December {
		nextMonth = time.January
		nextYear++
	}
	daysInPrev := model.DaysIn(prevYear, prevMonth)

	g := Grid{Year: year, Month: month, WeekStart: b.WeekStart}
	i := 0
	for d := daysInPrev - lead + 1; d <= daysInPrev; d++ {
		g.Cells[i] = DayCell{Day: d, Offset: Previous, Date: model.Date{Year: prevYear, Month: prevMonth, Day: d}}
		i++
	}
	for d := 1; d <= daysInMonth; d++ {
		g.Cells[i] = DayCell{Day: d, Offset: Current, Date: model.Date{Year: year, Month: month, Day: d}}
		i++
	}
	for d := 1; i < GridSize; d++ {
		g.Cells[i] = DayCell{Day: d, Offset: Next, Date: model.Date{Year: nextYear, Month: nextMonth, Day: d}}
		i++
	}

	for i := range g.Cells {
		c := &g.Cells[i]
		c.Today = c.Date == today
		if lookup != nil {
			c.HasEvent = lookup.HasEvents(c.Date)
		}
	}
	return g, nil
}

// First and Last return the first and last resolved dates of the grid.
func (g Grid) First() model.Date { return g.Cells[0].Date }
func (g Grid) Last() model.Date  { return g.Cells[GridSize-1].Date }

// TodayIndex returns the index of the today cell, or -1.
func (g Grid) TodayIndex() int {
	for i, c := range g.Cells {
		if c.Today {
			return i
		}
	}
	return -1
}

func validate(year int, month time.Month) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("calendar: month %d out of range 1-12: %w", int(month), ErrInvalidArgument)
	}
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("calendar: year %d out of range %d-%d: %w", year, MinYear, MaxYear, ErrInvalidArgument)
	}
	return nil
}
