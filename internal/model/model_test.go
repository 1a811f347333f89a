package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2025-07-02", Date{2025, time.July, 2}, false},
		{"2025-7-2", Date{2025, time.July, 2}, false},
		{"02/07/2025", Date{2025, time.July, 2}, false},
		{"2025-07-02T10:00:00Z", Date{2025, time.July, 2}, false},
		{"2024-02-29", Date{2024, time.February, 29}, false},
		{"2023-02-29", Date{}, true},
		{"2025-13-01", Date{}, true},
		{"15", Date{}, true},
		{"", Date{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, tt := range tests {
		if got := DaysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysIn(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestAddDaysAcrossYear(t *testing.T) {
	d := NewDate(2025, time.December, 31)
	if got := d.AddDays(1); got != (Date{2026, time.January, 1}) {
		t.Errorf("AddDays(1) = %v", got)
	}
	if got := d.AddDays(-365); got != (Date{2024, time.December, 31}) {
		t.Errorf("AddDays(-365) = %v", got)
	}
	if !d.Before(d.AddDays(1)) || d.AddDays(1).Before(d) {
		t.Error("Before ordering is wrong around the year boundary")
	}
}

func TestDateJSON(t *testing.T) {
	ev := Event{Date: Date{2025, time.July, 15}, Title: "Visita às Comunidades Rurais", Time: "08:00"}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"date":"2025-07-15","title":"Visita às Comunidades Rurais","time":"08:00"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Event
	if err := json.Unmarshal([]byte(`{"date":"15/07/2025","title":"x"}`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Date != ev.Date {
		t.Errorf("Unmarshal date = %v, want %v", back.Date, ev.Date)
	}
}
