package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"agendacal/internal/calendar"
	"agendacal/internal/config"
	"agendacal/internal/events"
	"agendacal/internal/ics"
	appLog "agendacal/internal/log"
	"agendacal/internal/render"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "agendacal",
	Short: "Agenda do Vereador: month calendar of the representative's public agenda",
	Long: `agendacal builds the month calendar of a representative's public agenda.

Agenda entries are read from JSON files, a SQLite database, spreadsheets
and ICS feeds, then served as a navigable month grid:

  serve          Run the HTTP site and API
  render         Print a month to the terminal (or as JSON)
  capture        Screenshot the calendar page with headless Chromium
  hash-password  Create the admin password hash for basic_auth`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "agendacal.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
}

// app is everything a command needs once the config is loaded.
type app struct {
	cfg      *config.Config
	loc      *time.Location
	store    *events.Store
	builder  calendar.Builder
	renderer render.Renderer
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if cfg == nil {
			return nil, err
		}
		appLog.Warn("config could not be written; using defaults", "path", configPath, "err", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	lv, err := appLog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	appLog.SetLevel(lv)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	bp := render.DefaultBreakpoint()
	bp.MaxWidth = cfg.BreakpointPx

	a := &app{
		cfg:     cfg,
		loc:     loc,
		builder: calendar.Builder{WeekStart: cfg.WeekStartDay()},
		renderer: render.Renderer{
			Breakpoint: &bp,
			Locale:     render.LocaleFor(cfg.Locale),
		},
	}
	a.store = events.NewStore(events.StoreOptions{
		Sources:     buildSources(cfg, filepath.Dir(configPath), loc),
		MonthsBack:  cfg.ExpandMonthsBack,
		MonthsAhead: cfg.ExpandMonthsAhead,
		Location:    loc,
	})

	appLog.Info("effective config",
		"config", configPath,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"locale", cfg.Locale,
		"week_start", cfg.WeekStart,
		"refresh", cfg.RefreshCron,
		"json_files", len(cfg.Sources.JSONFiles),
		"sheets", len(cfg.Sources.Sheets),
		"ics_count", len(cfg.Sources.ICS),
	)
	return a, nil
}

// buildSources turns the sources section into loaders. Relative paths are
// resolved against the config file's directory.
func buildSources(cfg *config.Config, baseDir string, loc *time.Location) []events.Source {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	var out []events.Source
	for _, p := range cfg.Sources.JSONFiles {
		out = append(out, events.JSONFileSource{Path: resolve(p)})
	}
	if cfg.Sources.SQLite != "" {
		out = append(out, events.SQLiteSource{Path: resolve(cfg.Sources.SQLite)})
	}
	for _, p := range cfg.Sources.Sheets {
		out = append(out, events.SheetSource{Path: resolve(p)})
	}
	if len(cfg.Sources.ICS) > 0 {
		fetcher := ics.NewFetcher(resolve(cfg.CacheDir), nil)
		for _, f := range cfg.Sources.ICS {
			if f.URL == "" {
				appLog.Warn("ics feed without url skipped", "id", f.ID, "name", f.Name)
				continue
			}
			out = append(out, ics.FeedSource{
				Feed:     ics.Feed{ID: f.ID, URL: f.URL},
				Fetcher:  fetcher,
				Location: loc,
			})
		}
	}
	return out
}
