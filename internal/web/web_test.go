package web

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agendacal/internal/auth"
	"agendacal/internal/events"
	"agendacal/internal/model"
)

type staticSource []model.Event

func (s staticSource) Name() string { return "static" }

func (s staticSource) Load(context.Context, events.Window) ([]model.Event, error) {
	return s, nil
}

var brt = time.FixedZone("BRT", -3*3600)

func fixedNow() time.Time { return time.Date(2025, time.July, 2, 12, 0, 0, 0, brt) }

func newTestServer(t *testing.T, admin auth.Credentials) *Server {
	t.Helper()
	store := events.NewStore(events.StoreOptions{
		Sources: []events.Source{staticSource{
			{Date: model.NewDate(2025, time.June, 30), Title: "Audiência Pública"},
			{Date: model.NewDate(2025, time.July, 2), Title: "Sessão Ordinária da Câmara", Time: "10:00"},
			{Date: model.NewDate(2025, time.July, 15), Title: "Visita às Comunidades Rurais", Location: "Zona Rural"},
		}},
		Now:      fixedNow,
		Location: brt,
	})
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	s, err := NewServer(Options{
		Store:    store,
		Location: brt,
		Now:      fixedNow,
		Admin:    admin,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type viewJSON struct {
	Label      string `json:"label"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Compact    bool   `json:"compact"`
	TodayIndex int    `json:"today_index"`
	Cells      []struct {
		Date  string `json:"date"`
		State string `json:"state"`
	} `json:"cells"`
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, auth.Credentials{}).Handler()
	rec := do(t, h, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
		Events int    `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Events != 3 {
		t.Errorf("health = %+v", body)
	}
}

func TestCalendarAPI(t *testing.T) {
	h := newTestServer(t, auth.Credentials{}).Handler()

	rec := do(t, h, http.MethodGet, "/api/calendar?year=2025&month=7&width=375")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var v viewJSON
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.Label != "Julho 2025" || !v.Compact || len(v.Cells) != 42 {
		t.Fatalf("view = %+v", v)
	}
	want := map[int]string{0: "adjacent", 1: "event", 3: "today", 16: "event", 11: "default"}
	for i, st := range want {
		if v.Cells[i].State != st {
			t.Errorf("cell %d (%s) state = %s, want %s", i, v.Cells[i].Date, v.Cells[i].State, st)
		}
	}

	// Defaults to the current month.
	rec = do(t, h, http.MethodGet, "/api/calendar")
	v = viewJSON{}
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.Year != 2025 || v.Month != 7 || v.TodayIndex != 3 || v.Compact {
		t.Errorf("default view = %d-%d today=%d compact=%v", v.Year, v.Month, v.TodayIndex, v.Compact)
	}
}

func TestCalendarAPIRejectsBadArguments(t *testing.T) {
	h := newTestServer(t, auth.Credentials{}).Handler()
	for _, target := range []string{
		"/api/calendar?month=13",
		"/api/calendar?month=0",
		"/api/calendar?year=abc",
		"/api/calendar?year=10000&month=1",
		"/api/calendar?width=-1",
		"/preview.png?month=99",
		"/calendar?month=x",
	} {
		rec := do(t, h, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
			continue
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == "" {
			t.Errorf("%s: error body missing (%v)", target, err)
		}
	}
}

func TestNavigation(t *testing.T) {
	h := newTestServer(t, auth.Credentials{}).Handler()

	type navJSON struct {
		Cursor struct {
			Year  int    `json:"year"`
			Month int    `json:"month"`
			Label string `json:"label"`
		} `json:"cursor"`
		View viewJSON `json:"view"`
	}
	step := func(path string) navJSON {
		t.Helper()
		rec := do(t, h, http.MethodPost, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
		var n navJSON
		if err := json.NewDecoder(rec.Body).Decode(&n); err != nil {
			t.Fatal(err)
		}
		return n
	}

	if n := step("/api/calendar/next"); n.Cursor.Month != 8 || n.View.Label != "Agosto 2025" || n.View.TodayIndex != -1 {
		t.Errorf("next = %+v", n.Cursor)
	}
	step("/api/calendar/prev")
	if n := step("/api/calendar/prev"); n.Cursor.Month != 6 || n.Cursor.Label != "Junho 2025" {
		t.Errorf("prev = %+v", n.Cursor)
	}
	if n := step("/api/calendar/today"); n.Cursor.Month != 7 || n.View.TodayIndex != 3 {
		t.Errorf("today = %+v", n.Cursor)
	}

	rec := do(t, h, http.MethodGet, "/api/calendar/cursor")
	if !strings.Contains(rec.Body.String(), `"month":7`) {
		t.Errorf("cursor = %s", rec.Body)
	}

	if rec := do(t, h, http.MethodGet, "/api/calendar/next"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET next: status = %d, want 405", rec.Code)
	}
}

func TestEventsAPI(t *testing.T) {
	h := newTestServer(t, auth.Credentials{}).Handler()

	var body struct {
		From   string        `json:"from"`
		To     string        `json:"to"`
		Events []model.Event `json:"events"`
	}
	rec := do(t, h, http.MethodGet, "/api/events?date=2025-07-02")
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Events) != 1 || body.Events[0].Time != "10:00" {
		t.Errorf("events on 07-02 = %+v", body.Events)
	}

	rec = do(t, h, http.MethodGet, "/api/events?year=2025&month=7")
	body.Events = nil
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.From != "2025-06-29" || body.To != "2025-08-09" || len(body.Events) != 3 {
		t.Errorf("grid events %s..%s = %d", body.From, body.To, len(body.Events))
	}

	rec = do(t, h, http.MethodGet, "/api/events?date=2025-07-05")
	if !strings.Contains(rec.Body.String(), `"events":[]`) {
		t.Errorf("empty day should encode an empty list: %s", rec.Body)
	}

	if rec := do(t, h, http.MethodGet, "/api/events?date=32/13/2025"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d", rec.Code)
	}
}

func TestEventsICS(t *testing.T) {
	h := newTestServer(t, auth.Credentials{}).Handler()
	rec := do(t, h, http.MethodGet, "/api/events.ics")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	out := rec.Body.String()
	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Count(out, "BEGIN:VEVENT") != 3 {
		t.Errorf("ics export:\n%s", out)
	}
}

func TestCalendarPage(t *testing.T) {
	h := newTestServer(t, auth.Credentials{}).Handler()
	rec := do(t, h, http.MethodGet, "/calendar?year=2025&month=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	page := rec.Body.String()
	for _, want := range []string{
		`data-ready="true"`,
		"Julho 2025",
		`class="cell state-today" data-date="2025-07-02"`,
		`class="cell state-event" data-date="2025-07-15"`,
		"@media (max-width: 768px)",
		"Visita às Comunidades Rurais",
		"/calendar?year=2025&month=6",
		"/calendar?year=2025&month=8",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}

	rec = do(t, h, http.MethodGet, "/calendar?year=2025&month=9")
	if !strings.Contains(rec.Body.String(), "Nenhum compromisso neste mês.") {
		t.Error("empty month should show the empty label")
	}

	if rec := do(t, h, http.MethodGet, "/"); rec.Code != http.StatusFound || rec.Header().Get("Location") != "/calendar" {
		t.Errorf("root redirect = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPreviewPNG(t *testing.T) {
	h := newTestServer(t, auth.Credentials{}).Handler()
	rec := do(t, h, http.MethodGet, "/preview.png?year=2025&month=7&width=375")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 375 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestAdminRefresh(t *testing.T) {
	if rec := do(t, newTestServer(t, auth.Credentials{}).Handler(), http.MethodPost, "/api/admin/refresh"); rec.Code != http.StatusNotFound {
		t.Errorf("without credentials: status = %d, want 404", rec.Code)
	}

	hash, err := auth.HashPassword("segredo")
	if err != nil {
		t.Fatal(err)
	}
	h := newTestServer(t, auth.Credentials{Username: "gabinete", PasswordHash: hash}).Handler()

	if rec := do(t, h, http.MethodPost, "/api/admin/refresh"); rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth: status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
	req.SetBasicAuth("gabinete", "segredo")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body refreshResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Events != 3 || len(body.Errors) != 0 {
		t.Errorf("refresh = %+v", body)
	}
}

func TestStylesheet(t *testing.T) {
	css := string(stylesheet(newTestServer(t, auth.Credentials{}).opts.Renderer))
	if strings.Count(css, "@media") != 1 {
		t.Errorf("want exactly one media query:\n%s", css)
	}
	for _, st := range []string{"default", "adjacent", "event", "today"} {
		if !strings.Contains(css, ".cell.state-"+st+" {") {
			t.Errorf("missing rule for %s", st)
		}
	}
	if !strings.Contains(css, "background: #3b82f6") {
		t.Error("today colour missing")
	}
}
