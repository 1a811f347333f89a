package events

import (
	"context"
	"strings"
	"time"

	"agendacal/internal/model"
)

// Window is the inclusive date range recurring events are expanded into.
type Window struct {
	From model.Date
	To   model.Date
}

// WindowAround returns a window of monthsBack/monthsAhead months around today.
func WindowAround(today model.Date, monthsBack, monthsAhead int) Window {
	t := today.Time(time.UTC)
	return Window{
		From: model.DateOf(t.AddDate(0, -monthsBack, 0)),
		To:   model.DateOf(t.AddDate(0, monthsAhead, 0)),
	}
}

// Contains reports whether d lies inside the window.
func (w Window) Contains(d model.Date) bool {
	return !d.Before(w.From) && !w.To.Before(d)
}

// Source loads agenda events from one store. Implementations return raw
// events; recurrence rules are expanded by the Store.
type Source interface {
	Name() string
	Load(ctx context.Context, w Window) ([]model.Event, error)
}

// normalizeTime accepts "10:00", "10h", "10h30" and "9:5" style values and
// returns HH:MM, or "" when the value cannot be read.
func normalizeTime(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	s = strings.Replace(s, "h", ":", 1)
	if strings.HasSuffix(s, ":") {
		s += "00"
	}
	for _, layout := range []string{"15:04", "15:4", "15:04:05", "3:04pm", "3:04 pm"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04")
		}
	}
	return ""
}
