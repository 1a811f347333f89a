package web

import (
	"errors"
	"net/http"
	"time"

	"agendacal/internal/ics"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	From   model.Date    `json:"from"`
	To     model.Date    `json:"to"`
	Events []model.Event `json:"events"`
}

// handleEvents lists agenda entries for one day or for a whole grid.
//
// GET /api/events?date=2025-07-02
// GET /api/events?year=2025&month=7   (all 42 dates of the grid)
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	idx := s.opts.Store.Index()

	if v := r.URL.Query().Get("date"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		evs := idx.On(d)
		if evs == nil {
			evs = []model.Event{}
		}
		writeJSON(w, http.StatusOK, eventsResponse{From: d, To: d, Events: evs})
		return
	}

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
	evs := idx.Between(g.First(), g.Last())
	if evs == nil {
		evs = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{From: g.First(), To: g.Last(), Events: evs})
}

// handleEventsICS exports the whole index as a subscribable calendar.
func (s *Server) handleEventsICS(w http.ResponseWriter, _ *http.Request) {
	body := ics.Encode(s.opts.Store.Index().Events(), s.opts.CalendarName, s.opts.Location, s.opts.Now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="agenda.ics"`)
	_, _ = w.Write([]byte(body))
}

type refreshResponse struct {
	Events    int       `json:"events"`
	UpdatedAt time.Time `json:"updated_at"`
	Errors    []string  `json:"errors,omitempty"`
}

// handleRefresh reloads every source. Partial failures still answer 200;
// the failing sources are listed under "errors".
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.opts.Store.Refresh(r.Context())
	resp := refreshResponse{
		Events:    s.opts.Store.Index().Len(),
		UpdatedAt: s.opts.Store.UpdatedAt(),
	}
	if err != nil {
		appLog.Warn("admin refresh incomplete", "err", err)
		resp.Errors = splitJoined(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// splitJoined unwraps an errors.Join result into its messages.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
