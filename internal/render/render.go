// Package render turns a computed month grid into a render description:
// one resolved visual state per cell plus a single viewport-dependent size.
// Encoders for HTML-free outputs (terminal text, PNG) live here too.
package render

import (
	"fmt"
	"time"

	"agendacal/internal/calendar"
)

// State is the single visual rule applied to a cell.
type State int

const (
	StateDefault State = iota
	StateAdjacent
	StateEvent
	StateToday
)

var stateNames = [...]string{"default", "adjacent", "event", "today"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Classify resolves the state of a cell. First match wins:
// today > event > adjacent month > default.
func Classify(c calendar.DayCell) State {
	switch {
	case c.Today:
		return StateToday
	case c.HasEvent:
		return StateEvent
	case c.Offset != calendar.Current:
		return StateAdjacent
	default:
		return StateDefault
	}
}

// Style is the visual rule for one state.
type Style struct {
	Background string `json:"background" yaml:"background"`
	Foreground string `json:"foreground" yaml:"foreground"`
	Border     string `json:"border" yaml:"border"`
	FontWeight int    `json:"font_weight" yaml:"font_weight"`
	// Marker is drawn in a corner of the cell (the event dot).
	Marker string `json:"marker,omitempty" yaml:"marker,omitempty"`
}

// Rules maps every state to a Style.
type Rules struct {
	Today    Style `json:"today" yaml:"today"`
	Event    Style `json:"event" yaml:"event"`
	Adjacent Style `json:"adjacent" yaml:"adjacent"`
	Default  Style `json:"default" yaml:"default"`
}

// DefaultRules is the agenda site's palette.
func DefaultRules() Rules {
	return Rules{
		Today:    Style{Background: "#3b82f6", Foreground: "#ffffff", Border: "#1e40af", FontWeight: 700},
		Event:    Style{Background: "#10b981", Foreground: "#ffffff", Border: "#059669", FontWeight: 700, Marker: "●"},
		Adjacent: Style{Background: "#f3f4f6", Foreground: "#9ca3af", Border: "#f3f4f6", FontWeight: 400},
		Default:  Style{Background: "#ffffff", Foreground: "#374151", Border: "#e5e7eb", FontWeight: 500},
	}
}

// For returns the style of a state.
func (r Rules) For(s State) Style {
	switch s {
	case StateToday:
		return r.Today
	case StateEvent:
		return r.Event
	case StateAdjacent:
		return r.Adjacent
	default:
		return r.Default
	}
}

// Sizing is the only viewport-dependent part of the layout.
type Sizing struct {
	CellHeight int `json:"cell_height"`
	FontSize   int `json:"font_size"`
	Gap        int `json:"gap"`
}

// Breakpoint switches between two sizings at MaxWidth (inclusive).
type Breakpoint struct {
	MaxWidth int
	Compact  Sizing
	Regular  Sizing
}

// DefaultBreakpoint matches the site's 768px mobile breakpoint.
func DefaultBreakpoint() Breakpoint {
	return Breakpoint{
		MaxWidth: 768,
		Compact:  Sizing{CellHeight: 42, FontSize: 13, Gap: 3},
		Regular:  Sizing{CellHeight: 60, FontSize: 16, Gap: 6},
	}
}

// SizeFor picks the sizing for a viewport width. Zero or negative widths
// (unknown viewport) get the regular size.
func (b Breakpoint) SizeFor(viewportWidth int) Sizing {
	if viewportWidth > 0 && viewportWidth <= b.MaxWidth {
		return b.Compact
	}
	return b.Regular
}

// IsCompact reports whether viewportWidth falls under the breakpoint.
func (b Breakpoint) IsCompact(viewportWidth int) bool {
	return viewportWidth > 0 && viewportWidth <= b.MaxWidth
}

// CellView is the render description of one cell.
type CellView struct {
	Index  int    `json:"index"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Day    int    `json:"day"`
	Date   string `json:"date"`
	State  State  `json:"state"`
	Style  Style  `json:"style"`
	Offset string `json:"offset"`
}

// View is the full render description of a month.
type View struct {
	Label      string                       `json:"label"`
	Year       int                          `json:"year"`
	Month      time.Month                   `json:"month"`
	Columns    int                          `json:"columns"`
	Rows       int                          `json:"rows"`
	Weekdays   [calendar.GridColumns]string `json:"weekdays"`
	Compact    bool                         `json:"compact"`
	Sizing     Sizing                       `json:"sizing"`
	Cells      [calendar.GridSize]CellView  `json:"cells"`
	TodayIndex int                          `json:"today_index"`
}

// Renderer is stateless; the zero value uses the default palette,
// breakpoint and pt-BR labels.
type Renderer struct {
	Rules      *Rules
	Breakpoint *Breakpoint
	Locale     Locale
}

// Render maps a grid to a View. Topology is always 7x6; only Sizing depends
// on viewportWidth.
func (r Renderer) Render(g calendar.Grid, viewportWidth int) View {
	rules := DefaultRules()
	if r.Rules != nil {
		rules = *r.Rules
	}
	bp := DefaultBreakpoint()
	if r.Breakpoint != nil {
		bp = *r.Breakpoint
	}
	loc := r.Locale
	if loc.Months[0] == "" {
		loc = PortugueseBR
	}

	v := View{
		Label:      loc.MonthLabel(g.Year, g.Month),
		Year:       g.Year,
		Month:      g.Month,
		Columns:    calendar.GridColumns,
		Rows:       calendar.GridRows,
		Weekdays:   loc.WeekdayHeaders(g.WeekStart),
		Compact:    bp.IsCompact(viewportWidth),
		Sizing:     bp.SizeFor(viewportWidth),
		TodayIndex: -1,
	}
	for i, c := range g.Cells {
		st := Classify(c)
		v.Cells[i] = CellView{
			Index:  i,
			Row:    i / calendar.GridColumns,
			Col:    i % calendar.GridColumns,
			Day:    c.Day,
			Date:   c.Date.Key(),
			State:  st,
			Style:  rules.For(st),
			Offset: c.Offset.String(),
		}
		if c.Today {
			v.TodayIndex = i
		}
	}
	return v
}
