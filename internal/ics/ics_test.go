package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"agendacal/internal/events"
	"agendacal/internal/model"
)

const sampleFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Camara//Sessoes//PT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:sessao-ordinaria\r\n" +
	"DTSTAMP:20250601T000000Z\r\n" +
	"DTSTART:20250701T130000Z\r\n" +
	"DTEND:20250701T150000Z\r\n" +
	"RRULE:FREQ=WEEKLY;BYDAY=TU\r\n" +
	"EXDATE:20250708T130000Z\r\n" +
	"SUMMARY:Sessão Ordinária da Câmara\r\n" +
	"LOCATION:Plenário\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:sessao-ordinaria\r\n" +
	"DTSTAMP:20250601T000000Z\r\n" +
	"RECURRENCE-ID:20250715T130000Z\r\n" +
	"DTSTART:20250716T130000Z\r\n" +
	"DTEND:20250716T150000Z\r\n" +
	"SUMMARY:Sessão Ordinária (remarcada)\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:recesso\r\n" +
	"DTSTAMP:20250601T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20250724\r\n" +
	"DTEND;VALUE=DATE:20250726\r\n" +
	"SUMMARY:Recesso parlamentar\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20250601T000000Z\r\n" +
	"DTSTART:20250703T130000Z\r\n" +
	"SUMMARY:sem UID\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func julyConfig() ExpandConfig {
	loc := time.FixedZone("BRT", -3*3600)
	return ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      time.Date(2025, time.July, 1, 0, 0, 0, 0, loc),
		RangeEnd:        time.Date(2025, time.August, 1, 0, 0, 0, 0, loc),
	}
}

func TestParseAndExpand(t *testing.T) {
	feed := Feed{ID: "camara", URL: "https://camara.example/sessoes.ics?token=x"}
	vevents, err := ParseFeed(feed, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}
	if len(vevents) != 3 {
		t.Fatalf("parsed %d VEVENTs, want 3 (missing UID skipped)", len(vevents))
	}

	evs, err := Expand(vevents, julyConfig())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	idx := events.NewIndex(evs)

	d := func(s string) model.Date {
		v, err := model.ParseDate(s)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}

	for _, day := range []string{"2025-07-01", "2025-07-22", "2025-07-29"} {
		got := idx.On(d(day))
		if len(got) != 1 || got[0].Title != "Sessão Ordinária da Câmara" || got[0].Time != "10:00" {
			t.Errorf("%s: %+v, want the session at 10:00 local", day, got)
		}
	}
	if idx.HasEvents(d("2025-07-08")) {
		t.Error("EXDATE 2025-07-08 should be removed")
	}
	if idx.HasEvents(d("2025-07-15")) {
		t.Error("overridden instance should move off 2025-07-15")
	}
	if got := idx.On(d("2025-07-16")); len(got) != 1 || !strings.Contains(got[0].Title, "remarcada") {
		t.Errorf("override on 2025-07-16 = %+v", got)
	}

	// All-day DTEND is exclusive: 24th and 25th only.
	if !idx.HasEvents(d("2025-07-24")) || !idx.HasEvents(d("2025-07-25")) || idx.HasEvents(d("2025-07-26")) {
		t.Error("all-day span should cover 24 and 25 only")
	}
	for _, ev := range idx.On(d("2025-07-24")) {
		if ev.Time != "" || ev.Source != "ics:camara" {
			t.Errorf("all-day event = %+v", ev)
		}
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	cfg := julyConfig()
	cfg.RangeStart, cfg.RangeEnd = cfg.RangeEnd, cfg.RangeStart
	if _, err := Expand(nil, cfg); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestFetcherConditionalRequests(t *testing.T) {
	var hits, notModified int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			atomic.AddInt32(&notModified, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	feed := Feed{ID: "camara", URL: srv.URL + "/sessoes.ics"}

	first, err := f.Fetch(context.Background(), feed)
	if err != nil || first.FromCache {
		t.Fatalf("first fetch: cache=%v err=%v", first.FromCache, err)
	}
	second, err := f.Fetch(context.Background(), feed)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.FromCache || string(second.Body) != sampleFeed {
		t.Errorf("second fetch should reuse the cached body")
	}
	if atomic.LoadInt32(&notModified) != 1 {
		t.Errorf("server saw %d conditional hits, want 1", notModified)
	}

	srv.Close()
	third, err := f.Fetch(context.Background(), feed)
	if err != nil || !third.FromCache {
		t.Errorf("offline fetch should fall back to cache: cache=%v err=%v", third.FromCache, err)
	}
}

func TestFetcherErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	if _, err := f.Fetch(context.Background(), Feed{ID: "x", URL: srv.URL}); err == nil {
		t.Error("expected error for 410 without cache")
	}
	if _, err := f.Fetch(context.Background(), Feed{ID: "x"}); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestFeedSourceLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	src := FeedSource{
		Feed:     Feed{ID: "camara", URL: srv.URL},
		Fetcher:  NewFetcher(t.TempDir(), srv.Client()),
		Location: time.FixedZone("BRT", -3*3600),
	}
	w := events.Window{From: model.NewDate(2025, time.July, 1), To: model.NewDate(2025, time.July, 31)}
	evs, err := src.Load(context.Background(), w)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.Name() != "ics:camara" || len(evs) == 0 {
		t.Errorf("name=%s events=%d", src.Name(), len(evs))
	}
}

func TestEncode(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	out := Encode([]model.Event{
		{Date: model.NewDate(2025, time.July, 2), Title: "Sessão Ordinária da Câmara", Time: "10:00"},
		{Date: model.NewDate(2025, time.July, 15), Title: "Visita às Comunidades Rurais"},
	}, "Agenda", loc, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + ProductID,
		"SUMMARY:Sessão Ordinária da Câmara",
		"DTSTART:20250702T130000Z",
		"DTSTART;VALUE=DATE:20250715",
		"DTEND;VALUE=DATE:20250716",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded calendar missing %q:\n%s", want, out)
		}
	}

	// Round trip through our own parser.
	vevents, err := ParseFeed(Feed{ID: "self"}, []byte(out))
	if err != nil || len(vevents) != 2 {
		t.Fatalf("re-parse: %d events, err %v", len(vevents), err)
	}
}

func TestRedactURL(t *testing.T) {
	if got := redactURL("https://calendar.example.com/private/abc.ics?token=1"); got != "https://calendar.example.com/...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
	if got := redactURL("no-scheme"); got != "ics://...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
}
