// Package events assembles the agenda's event index from the configured
// stores and keeps it fresh.
package events

import (
	"sort"

	"agendacal/internal/model"
)

// Index maps a calendar date to the events on that date. It is immutable
// once built; a nil *Index behaves as an empty index.
type Index struct {
	byDate map[model.Date][]model.Event
	count  int
}

// NewIndex builds an index. Events keep their relative order within a day
// after sorting by time and title.
func NewIndex(evs []model.Event) *Index {
	ix := &Index{byDate: make(map[model.Date][]model.Event)}
	for _, ev := range evs {
		if ev.Date.IsZero() {
			continue
		}
		ix.byDate[ev.Date] = append(ix.byDate[ev.Date], ev)
		ix.count++
	}
	for _, day := range ix.byDate {
		sortDay(day)
	}
	return ix
}

// HasEvents implements calendar.EventLookup.
func (ix *Index) HasEvents(d model.Date) bool {
	if ix == nil {
		return false
	}
	return len(ix.byDate[d]) > 0
}

// On returns a copy of the events on d.
func (ix *Index) On(d model.Date) []model.Event {
	if ix == nil {
		return nil
	}
	day := ix.byDate[d]
	if len(day) == 0 {
		return nil
	}
	return append([]model.Event(nil), day...)
}

// Between returns events in the inclusive range [from, to], ordered by date.
func (ix *Index) Between(from, to model.Date) []model.Event {
	if ix == nil {
		return nil
	}
	var out []model.Event
	for d := from; !to.Before(d); d = d.AddDays(1) {
		out = append(out, ix.byDate[d]...)
	}
	return out
}

func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.count
}

// Events returns every event ordered by date, time and title.
func (ix *Index) Events() []model.Event {
	if ix == nil {
		return nil
	}
	out := make([]model.Event, 0, ix.count)
	for _, day := range ix.byDate {
		out = append(out, day...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return lessInDay(out[i], out[j])
	})
	return out
}

func sortDay(day []model.Event) {
	sort.SliceStable(day, func(i, j int) bool { return lessInDay(day[i], day[j]) })
}

// lessInDay orders timed events first by time; untimed events go last.
func lessInDay(a, b model.Event) bool {
	switch {
	case a.Time == "" && b.Time != "":
		return false
	case a.Time != "" && b.Time == "":
		return true
	case a.Time != b.Time:
		return a.Time < b.Time
	}
	return a.Title < b.Title
}
