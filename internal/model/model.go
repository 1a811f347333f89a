package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKeyLayout is the canonical ISO layout used to key the event index.
const DateKeyLayout = "2006-01-02"

// Date is a calendar date without time-of-day or zone. All grid arithmetic
// happens on Date values so that DST transitions never shift a cell.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// NewDate returns the normalized date for (year, month, day). Out-of-range
// day or month values roll over the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight of d in loc. A nil loc means UTC.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) Equal(o Date) bool { return d == o }

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) IsZero() bool { return d == Date{} }

// Key returns the canonical YYYY-MM-DD key.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) String() string { return d.Key() }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Key()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses the canonical key and the legacy forms found in older
// agenda data: "2025-7-2" and "02/07/2025" (day first). A bare day-of-month
// such as "15" carries no month and is rejected.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, errors.New("date: empty value")
	}
	// Tolerate full timestamps ("2025-07-02T10:00:00Z").
	if i := strings.IndexByte(s, 'T'); i == 10 {
		s = s[:i]
	}

	var parts []string
	dayFirst := false
	switch {
	case strings.Count(s, "-") == 2:
		parts = strings.Split(s, "-")
	case strings.Count(s, "/") == 2:
		parts = strings.Split(s, "/")
		dayFirst = true
	default:
		return Date{}, fmt.Errorf("date: unsupported format %q", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, fmt.Errorf("date: %q: %w", s, err)
		}
		nums[i] = n
	}

	year, month, day := nums[0], nums[1], nums[2]
	if dayFirst {
		day, month, year = nums[0], nums[1], nums[2]
	}
	if month < 1 || month > 12 || day < 1 || day > DaysIn(year, time.Month(month)) {
		return Date{}, fmt.Errorf("date: %q is not a valid calendar date", s)
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// Event is a single dated agenda entry after key normalization and
// recurrence expansion.
type Event struct {
	Date     Date   `json:"date"`
	Title    string `json:"title"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`

	// RRule is an RFC 5545 recurrence rule ("FREQ=WEEKLY;BYDAY=TU"). Loaders
	// keep it; the store expands it into dated occurrences.
	RRule string `json:"rrule,omitempty"`

	// Source names the loader that produced the event.
	Source string `json:"source,omitempty"`
	UID    string `json:"uid,omitempty"`
}
