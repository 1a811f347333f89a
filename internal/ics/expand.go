package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
	// maxSpanDays bounds how many grid days a multi-day event may mark.
	maxSpanDays = 31
)

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation decides which calendar date a timed occurrence lands
	// on. Nil means time.Local.
	DisplayLocation *time.Location

	RangeStart time.Time
	RangeEnd   time.Time

	MaxOccurrencesPerEvent int
}

// Expand turns parsed VEVENTs into dated agenda events inside the range:
// single events, RRULE series with EXDATE removal and RECURRENCE-ID
// overrides. An occurrence spanning several days yields one event per day.
func Expand(vevents []VEvent, cfg ExpandConfig) ([]model.Event, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("ics: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	base := make([]VEvent, 0, len(vevents))
	overrides := make(map[string][]VEvent)
	for _, ev := range vevents {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		base = append(base, ev)
	}

	var out []model.Event
	for _, ev := range base {
		for _, occ := range occurrences(ev, overrides[ev.UID], cfg) {
			out = append(out, toEvents(occ, cfg.DisplayLocation)...)
		}
	}
	return out, nil
}

// occurrences returns the concrete instances of ev (with overrides applied)
// that intersect the range.
func occurrences(ev VEvent, overrides []VEvent, cfg ExpandConfig) []VEvent {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil
		}
		return []VEvent{applyOverride(ev, overrides, ev.Start)}
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		appLog.Warn("ics: occurrences truncated", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		starts = starts[:cfg.MaxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]VEvent, 0, len(starts))
	for _, s := range starts {
		inst := ev
		inst.Start = s
		inst.End = s.Add(dur)
		out = append(out, applyOverride(inst, overrides, s))
	}
	return out
}

func applyOverride(inst VEvent, overrides []VEvent, start time.Time) VEvent {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov
		}
	}
	return inst
}

// toEvents maps one occurrence onto the calendar days it covers.
func toEvents(occ VEvent, loc *time.Location) []model.Event {
	var first, last model.Date
	tm := ""
	if occ.AllDay {
		// All-day values are literal dates; DTEND is exclusive.
		first = model.DateOf(occ.Start)
		last = model.DateOf(occ.End).AddDays(-1)
	} else {
		start := occ.Start.In(loc)
		end := occ.End.In(loc)
		first = model.DateOf(start)
		last = first
		if end.After(start) {
			last = model.DateOf(end.Add(-time.Nanosecond))
		}
		tm = start.Format("15:04")
	}
	if last.Before(first) {
		last = first
	}

	source := "ics:" + occ.Feed.ID
	var out []model.Event
	for d, n := first, 0; !last.Before(d) && n < maxSpanDays; d, n = d.AddDays(1), n+1 {
		ev := model.Event{
			Date:     d,
			Title:    occ.Summary,
			Location: occ.Location,
			Source:   source,
			UID:      occ.UID + "@" + d.Key(),
		}
		if d == first {
			ev.Time = tm
		}
		out = append(out, ev)
	}
	return out
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
