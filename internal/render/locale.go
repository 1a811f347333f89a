package render

import (
	"fmt"
	"strings"
	"time"

	"agendacal/internal/calendar"
)

// Locale holds month and weekday labels. Weekdays are indexed by
// time.Weekday (Sunday first).
type Locale struct {
	Tag      string
	Months   [12]string
	Weekdays [7]string
	Today    string
	NoEvents string
}

var PortugueseBR = Locale{
	Tag: "pt-BR",
	Months: [12]string{
		"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
	},
	Weekdays: [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"},
	Today:    "Hoje",
	NoEvents: "Nenhum compromisso neste mês.",
}

var English = Locale{
	Tag: "en",
	Months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	Weekdays: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	Today:    "Today",
	NoEvents: "No events this month.",
}

// LocaleFor returns the locale for a tag; unknown tags fall back to pt-BR.
func LocaleFor(tag string) Locale {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "en", "en-us", "en-gb":
		return English
	default:
		return PortugueseBR
	}
}

// MonthLabel returns e.g. "Julho 2025".
func (l Locale) MonthLabel(year int, month time.Month) string {
	if month < time.January || month > time.December {
		return fmt.Sprintf("%d/%d", int(month), year)
	}
	return fmt.Sprintf("%s %d", l.Months[month-1], year)
}

// WeekdayHeaders returns the seven column headers starting at start.
func (l Locale) WeekdayHeaders(start time.Weekday) [calendar.GridColumns]string {
	var out [calendar.GridColumns]string
	for i := range out {
		out[i] = l.Weekdays[(int(start)+i)%7]
	}
	return out
}
