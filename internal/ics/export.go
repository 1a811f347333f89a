package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"agendacal/internal/model"
)

// ProductID identifies exported calendars.
const ProductID = "-//agendacal//Agenda do Vereador//PT"

// Encode renders events as an iCalendar document. Events with a time become
// one-hour timed events in loc; the rest are all-day.
func Encode(evs []model.Event, name string, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if name != "" {
		cal.SetName(name)
	}

	for i, ev := range evs {
		uid := ev.UID
		if uid == "" {
			uid = fmt.Sprintf("%s-%d-%s@agendacal", ev.Date.Key(), i, slug(ev.Title))
		}
		ve := cal.AddEvent(uid)
		ve.SetDtStampTime(now.UTC())
		ve.SetSummary(ev.Title)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}

		if start, ok := startOf(ev, loc); ok {
			ve.SetStartAt(start)
			ve.SetEndAt(start.Add(time.Hour))
		} else {
			day := ev.Date.Time(time.UTC)
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}
	}
	return cal.Serialize()
}

func startOf(ev model.Event, loc *time.Location) (time.Time, bool) {
	if ev.Time == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", ev.Date.Key()+" "+ev.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('-')
		}
	}
	return b.String()
}
