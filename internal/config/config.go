package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// NOTE: Load creates a default file on first run; Save writes atomically
// with 0600 permissions since basic_auth holds a password hash.

// FeedConfig describes a single ICS subscription.
type FeedConfig struct {
	// ID is an internal identifier used for caching and logging.
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// SourcesConfig lists where agenda entries come from. Every list may be
// empty; the calendar renders without markers when nothing is configured.
type SourcesConfig struct {
	// JSONFiles are flat agenda stores (list or date-keyed object).
	JSONFiles []string `yaml:"json_files" json:"json_files"`
	// SQLite is a database with an agenda_events table.
	SQLite string `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
	// Sheets are .xlsx or .xls spreadsheets with a header row.
	Sheets []string     `yaml:"sheets" json:"sheets"`
	ICS    []FeedConfig `yaml:"ics" json:"ics"`
}

// BasicAuthConfig guards the admin endpoints. PasswordHash is an argon2id
// hash produced by `agendacal hash-password`.
type BasicAuthConfig struct {
	Username     string `yaml:"username" json:"username"`
	PasswordHash string `yaml:"password_hash" json:"-"`
}

// CaptureConfig drives the headless screenshot of the calendar page.
type CaptureConfig struct {
	URL    string `yaml:"url" json:"url"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
	Output string `yaml:"output" json:"output"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the site and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone that decides what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale selects month and weekday labels: "pt-BR" (default) or "en".
	Locale string `yaml:"locale" json:"locale"`

	// WeekStart is the first grid column:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// BreakpointPx is the viewport width at or below which the compact
	// sizing is used.
	BreakpointPx int `yaml:"breakpoint_px" json:"breakpoint_px"`

	// RefreshCron is a cron-style schedule for reloading sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Recurring entries are expanded this many months around today.
	ExpandMonthsBack  int `yaml:"expand_months_back" json:"expand_months_back"`
	ExpandMonthsAhead int `yaml:"expand_months_ahead" json:"expand_months_ahead"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Sources SourcesConfig `yaml:"sources" json:"sources"`

	// CacheDir stores fetched ICS bodies for offline fallback.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if set, enables POST /api/admin/refresh.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "America/Sao_Paulo",
		Locale:            "pt-BR",
		WeekStart:         "sunday",
		BreakpointPx:      768,
		RefreshCron:       "*/15 * * * *",
		ExpandMonthsBack:  12,
		ExpandMonthsAhead: 24,
		LogLevel:          "info",
		Sources: SourcesConfig{
			JSONFiles: []string{"data/agenda.json"},
			Sheets:    []string{},
			ICS:       []FeedConfig{},
		},
		CacheDir: "cache",
		Capture: CaptureConfig{
			URL:    "http://127.0.0.1:8080/calendar",
			Width:  375,
			Height: 812,
			Output: "calendar.png",
		},
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch strings.ToLower(c.Locale) {
	case "en":
		c.Locale = "en"
	default:
		c.Locale = def.Locale
	}
	switch strings.ToLower(c.WeekStart) {
	case "monday":
		c.WeekStart = "monday"
	default:
		// Unknown value; fall back to sunday like the printed agenda.
		c.WeekStart = def.WeekStart
	}
	if c.BreakpointPx <= 0 {
		c.BreakpointPx = def.BreakpointPx
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.ExpandMonthsBack <= 0 {
		c.ExpandMonthsBack = def.ExpandMonthsBack
	}
	if c.ExpandMonthsAhead <= 0 {
		c.ExpandMonthsAhead = def.ExpandMonthsAhead
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Sources.JSONFiles == nil {
		c.Sources.JSONFiles = []string{}
	}
	if c.Sources.Sheets == nil {
		c.Sources.Sheets = []string{}
	}
	if c.Sources.ICS == nil {
		c.Sources.ICS = []FeedConfig{}
	}
	for i := range c.Sources.ICS {
		if c.Sources.ICS[i].ID == "" {
			c.Sources.ICS[i].ID = fmt.Sprintf("feed%d", i+1)
		}
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.Capture.URL == "" {
		c.Capture.URL = def.Capture.URL
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = def.Capture.Height
	}
	if c.Capture.Output == "" {
		c.Capture.Output = def.Capture.Output
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WeekStartDay maps WeekStart onto time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can still run.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".agendacal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
