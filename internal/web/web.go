package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"agendacal/internal/auth"
	"agendacal/internal/calendar"
	"agendacal/internal/events"
	appLog "agendacal/internal/log"
	"agendacal/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options wires the server to the rest of the application.
type Options struct {
	Listen string

	// Store provides the event index; Navigator is the shared cursor used by
	// the /api/calendar/{prev,next,today} endpoints.
	Store     *events.Store
	Navigator *calendar.Navigator

	Builder  calendar.Builder
	Renderer render.Renderer

	Location *time.Location
	Now      func() time.Time

	// Admin enables POST /api/admin/refresh when Enabled.
	Admin auth.Credentials

	// CalendarName is used for the ICS export.
	CalendarName string
}

// Server serves the agenda calendar as JSON, HTML, PNG and ICS.
type Server struct {
	opts Options
	mux  *http.ServeMux
	page *template.Template
}

// NewServer constructs a new Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("web: store is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.CalendarName == "" {
		opts.CalendarName = "Agenda do Vereador"
	}
	if opts.Navigator == nil {
		store := opts.Store
		opts.Navigator = calendar.NewNavigator(calendar.NavigatorOptions{
			Now:      opts.Now,
			Location: opts.Location,
			Builder:  opts.Builder,
			Events:   func() calendar.EventLookup { return store.Index() },
		})
	}

	page, err := template.ParseFS(templateFS, "templates/calendar.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}

	s := &Server{
		opts: opts,
		mux:  http.NewServeMux(),
		page: page,
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.opts.Listen, "admin", s.opts.Admin.Enabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/calendar/cursor", s.handleCursor)
	s.mux.HandleFunc("POST /api/calendar/prev", s.handleNavigate(navPrev))
	s.mux.HandleFunc("POST /api/calendar/next", s.handleNavigate(navNext))
	s.mux.HandleFunc("POST /api/calendar/today", s.handleNavigate(navToday))

	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/events.ics", s.handleEventsICS)

	if s.opts.Admin.Enabled() {
		s.mux.Handle("POST /api/admin/refresh",
			auth.RequireBasicAuth(s.opts.Admin, "Agenda admin", http.HandlerFunc(s.handleRefresh)))
	} else {
		appLog.Warn("admin credentials not configured; /api/admin/refresh disabled")
	}

	s.mux.HandleFunc("GET /calendar", s.handlePage)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.Handle("GET /{$}", http.RedirectHandler("/calendar", http.StatusFound))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"events":     s.opts.Store.Index().Len(),
		"updated_at": s.opts.Store.UpdatedAt(),
	})
}

// queryMonth reads year/month from the query, defaulting each to the current
// month in the display zone. Malformed numbers are invalid arguments; range
// checks are left to the grid builder.
func (s *Server) queryMonth(r *http.Request) (calendar.Cursor, error) {
	cur := calendar.CursorOf(s.today())
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cur, fmt.Errorf("year %q: %w", v, calendar.ErrInvalidArgument)
		}
		cur.Year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cur, fmt.Errorf("month %q: %w", v, calendar.ErrInvalidArgument)
		}
		cur.Month = time.Month(n)
	}
	return cur, nil
}

// maxViewport bounds ?width so a request cannot ask for a huge PNG.
const maxViewport = 4096

func queryWidth(r *http.Request) (int, error) {
	v := r.URL.Query().Get("width")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > maxViewport {
		return 0, fmt.Errorf("width %q: %w", v, calendar.ErrInvalidArgument)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeBuildError maps grid/argument errors to 400 and everything else to 500.
func writeBuildError(w http.ResponseWriter, err error) {
	if errors.Is(err, calendar.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error("request failed", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
