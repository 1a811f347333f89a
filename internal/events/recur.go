package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// maxOccurrencesPerEvent caps a single rule so an unbounded FREQ=DAILY cannot
// flood the index.
const maxOccurrencesPerEvent = 2000

// Expand replaces every event that carries an RRule with its dated
// occurrences inside w. Events without a rule pass through unchanged, even
// outside w. A rule that fails to parse keeps only the base event.
func Expand(evs []model.Event, w Window) []model.Event {
	out := make([]model.Event, 0, len(evs))
	for _, ev := range evs {
		if strings.TrimSpace(ev.RRule) == "" {
			out = append(out, ev)
			continue
		}
		occ, err := expandOne(ev, w)
		if err != nil {
			appLog.Warn("recurrence skipped", "source", ev.Source, "title", ev.Title, "rrule", ev.RRule, "err", err)
			out = append(out, ev)
			continue
		}
		out = append(out, occ...)
	}
	return out
}

func expandOne(ev model.Event, w Window) ([]model.Event, error) {
	rule := strings.TrimPrefix(strings.TrimSpace(ev.RRule), "RRULE:")
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule: %w", err)
	}
	// Anchor at noon UTC so date arithmetic never crosses a day boundary.
	r.DTStart(time.Date(ev.Date.Year, ev.Date.Month, ev.Date.Day, 12, 0, 0, 0, time.UTC))

	from := w.From.Time(time.UTC)
	to := w.To.Time(time.UTC).Add(24*time.Hour - time.Nanosecond)
	times := r.Between(from, to, true)
	if len(times) > maxOccurrencesPerEvent {
		appLog.Warn("recurrence truncated", "title", ev.Title, "count", len(times), "cap", maxOccurrencesPerEvent)
		times = times[:maxOccurrencesPerEvent]
	}

	out := make([]model.Event, 0, len(times))
	for _, t := range times {
		occ := ev
		occ.Date = model.DateOf(t)
		occ.RRule = ""
		if ev.UID != "" {
			occ.UID = ev.UID + "@" + occ.Date.Key()
		}
		out = append(out, occ)
	}
	return out, nil
}
