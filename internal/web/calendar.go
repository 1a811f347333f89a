package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"agendacal/internal/calendar"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
	"agendacal/internal/render"
)

func (s *Server) today() model.Date {
	return model.DateOf(s.opts.Now().In(s.opts.Location))
}

func (s *Server) buildMonth(c calendar.Cursor) (calendar.Grid, error) {
	return s.opts.Builder.Build(c.Year, c.Month, s.opts.Store.Index(), s.today())
}

type cursorResponse struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
}

func (s *Server) cursorJSON(c calendar.Cursor) cursorResponse {
	return cursorResponse{
		Year:  c.Year,
		Month: int(c.Month),
		Label: s.locale().MonthLabel(c.Year, c.Month),
	}
}

func (s *Server) locale() render.Locale {
	if s.opts.Renderer.Locale.Months[0] == "" {
		return render.PortugueseBR
	}
	return s.opts.Renderer.Locale
}

// handleCalendar renders any month without touching the shared cursor.
//
// GET /api/calendar?year=2025&month=7&width=375
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cur, err := s.queryMonth(r)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	width, err := queryWidth(r)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	g, err := s.buildMonth(cur)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Renderer.Render(g, width))
}

func (s *Server) handleCursor(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cursorJSON(s.opts.Navigator.Cursor()))
}

type navAction int

const (
	navPrev navAction = iota
	navNext
	navToday
)

type navigateResponse struct {
	Cursor cursorResponse `json:"cursor"`
	View   render.View    `json:"view"`
}

// handleNavigate moves the shared cursor and returns the rebuilt month.
func (s *Server) handleNavigate(action navAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		width, err := queryWidth(r)
		if err != nil {
			writeBuildError(w, err)
			return
		}

		var g calendar.Grid
		switch action {
		case navPrev:
			g, err = s.opts.Navigator.Prev()
		case navNext:
			g, err = s.opts.Navigator.Next()
		default:
			g, err = s.opts.Navigator.Today()
		}
		if err != nil {
			writeBuildError(w, err)
			return
		}

		cur := calendar.Cursor{Year: g.Year, Month: g.Month}
		appLog.Debug("calendar navigated", "cursor", cur.String())
		writeJSON(w, http.StatusOK, navigateResponse{
			Cursor: s.cursorJSON(cur),
			View:   s.opts.Renderer.Render(g, width),
		})
	}
}

type pageData struct {
	Lang       string
	CSS        template.CSS
	View       render.View
	Prev, Next calendar.Cursor
	PrevMonth  int
	NextMonth  int
	TodayLabel string
	EmptyLabel string
	Events     []model.Event
}

// handlePage serves the HTML calendar. The root element carries
// data-ready="true" once rendered so the screenshot capture can wait on it.
//
// GET /calendar?year=2025&month=7
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	cur, err := s.queryMonth(r)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	g, err := s.buildMonth(cur)
	if err != nil {
		writeBuildError(w, err)
		return
	}

	loc := s.locale()
	view := s.opts.Renderer.Render(g, 0)
	data := pageData{
		Lang:       loc.Tag,
		CSS:        stylesheet(s.opts.Renderer),
		View:       view,
		Prev:       cur.Prev(),
		Next:       cur.Next(),
		TodayLabel: loc.Today,
		EmptyLabel: loc.NoEvents,
		Events: s.opts.Store.Index().Between(
			model.NewDate(g.Year, g.Month, 1),
			model.NewDate(g.Year, g.Month, model.DaysIn(g.Year, g.Month)),
		),
	}
	data.PrevMonth, data.NextMonth = int(data.Prev.Month), int(data.Next.Month)

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		appLog.Error("render calendar page", err)
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handlePreview rasterizes a month.
//
// GET /preview.png?year=2025&month=7&width=375
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	cur, err := s.queryMonth(r)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	width, err := queryWidth(r)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	g, err := s.buildMonth(cur)
	if err != nil {
		writeBuildError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, s.opts.Renderer.Render(g, width), width); err != nil {
		appLog.Error("render preview", err)
		writeError(w, http.StatusInternalServerError, "failed to render preview")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

// stylesheet emits one rule per cell state plus a single media query that
// swaps in the compact sizing.
func stylesheet(r render.Renderer) template.CSS {
	rules := render.DefaultRules()
	if r.Rules != nil {
		rules = *r.Rules
	}
	bp := render.DefaultBreakpoint()
	if r.Breakpoint != nil {
		bp = *r.Breakpoint
	}

	var b strings.Builder
	sizing := func(indent string, sz render.Sizing) {
		fmt.Fprintf(&b, "%s.grid { gap: %dpx; }\n", indent, sz.Gap)
		fmt.Fprintf(&b, "%s.cell { min-height: %dpx; font-size: %dpx; }\n", indent, sz.CellHeight, sz.FontSize)
	}

	b.WriteString("body { font-family: system-ui, sans-serif; margin: 0; padding: 1rem; color: #111827; }\n")
	b.WriteString(".agenda-nav { display: flex; align-items: center; justify-content: space-between; gap: .5rem; }\n")
	b.WriteString(".grid { display: grid; grid-template-columns: repeat(7, 1fr); }\n")
	b.WriteString(".weekday { text-align: center; font-weight: 600; color: #6b7280; }\n")
	b.WriteString(".cell { position: relative; display: flex; align-items: center; justify-content: center; border-radius: 8px; border: 1px solid transparent; }\n")
	b.WriteString(".marker { position: absolute; top: 2px; right: 4px; font-size: .6em; }\n")
	sizing("", bp.Regular)

	for _, st := range []render.State{render.StateDefault, render.StateAdjacent, render.StateEvent, render.StateToday} {
		style := rules.For(st)
		fmt.Fprintf(&b, ".cell.state-%s { background: %s; color: %s; border-color: %s; font-weight: %d; }\n",
			st, style.Background, style.Foreground, style.Border, style.FontWeight)
	}

	fmt.Fprintf(&b, "@media (max-width: %dpx) {\n", bp.MaxWidth)
	sizing("  ", bp.Compact)
	b.WriteString("}\n")
	return template.CSS(b.String())
}
