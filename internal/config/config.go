package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// CAMPUS_LISTEN or CAMPUS_BOOKMARKS_BACKEND.
const EnvPrefix = "CAMPUS_"

// FeedConfig describes an iCalendar subscription merged into the events.
type FeedConfig struct {
	// ID prefixes imported event ids. Defaults to the URL.
	ID string `yaml:"id" json:"id"`
	// URL is an http(s) URL or a local .ics path.
	URL string `yaml:"url" json:"url"`
	// Category applies to events that carry no CATEGORIES.
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

// BookmarksConfig selects where bookmark sets are persisted.
type BookmarksConfig struct {
	// Backend is one of "memory", "file" (default) or "sqlite".
	Backend string `yaml:"backend" json:"backend" env:"BACKEND"`
	// Path is the file or database path for the file/sqlite backends.
	Path string `yaml:"path" json:"path" env:"PATH"`
}

// PreviewConfig controls the headless-browser calendar screenshot.
type PreviewConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" env:"ENABLED"`
	// Path is where the PNG is written.
	Path string `yaml:"path" json:"path" env:"PATH"`
	// URL overrides the page to capture. Defaults to the local calendar page.
	URL string `yaml:"url,omitempty" json:"url,omitempty" env:"URL"`
	// Timeout bounds one capture.
	Timeout time.Duration `yaml:"timeout" json:"timeout" env:"TIMEOUT"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the site and API.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN"`

	// BaseURL is the public URL of the site, used in exported calendar links.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty" env:"BASE_URL"`

	// Timezone is the IANA zone that decides what "today" is.
	Timezone string `yaml:"timezone" json:"timezone" env:"TIMEZONE"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start" env:"WEEK_START"`

	// RefreshCron is the cron schedule for reloading the data files.
	RefreshCron string `yaml:"refresh" json:"refresh" env:"REFRESH"`

	// DataSource is a directory or an http(s) base URL holding
	// events.json, gallery.json, testimonials.json, banners.json and
	// contacts.json.
	DataSource string `yaml:"data_source" json:"data_source" env:"DATA_SOURCE"`

	// Feeds are iCalendar subscriptions whose events join the collection.
	Feeds []FeedConfig `yaml:"ics_feeds" json:"ics_feeds"`

	// CacheDir holds conditional-GET caches for remote data sources.
	CacheDir string `yaml:"cache_dir" json:"cache_dir" env:"CACHE_DIR"`

	// FetchTimeout bounds one remote data fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout" env:"FETCH_TIMEOUT"`

	// RecurrenceWindowDays is how far either side of today recurring events
	// are expanded onto the calendar.
	RecurrenceWindowDays int `yaml:"recurrence_window_days" json:"recurrence_window_days" env:"RECURRENCE_WINDOW_DAYS"`

	// MaxOccurrencesPerEvent caps the expansion of a single recurring event.
	MaxOccurrencesPerEvent int `yaml:"max_occurrences_per_event" json:"max_occurrences_per_event" env:"MAX_OCCURRENCES_PER_EVENT"`

	// MarkerCap is the number of category dots shown per calendar cell.
	MarkerCap int `yaml:"marker_cap" json:"marker_cap" env:"MARKER_CAP"`

	// SubmitDelay simulates network latency on form submission.
	SubmitDelay time.Duration `yaml:"submit_delay" json:"submit_delay" env:"SUBMIT_DELAY"`

	// UpcomingLimit is how many upcoming events the home page lists.
	UpcomingLimit int `yaml:"upcoming_limit" json:"upcoming_limit" env:"UPCOMING_LIMIT"`

	Bookmarks BookmarksConfig `yaml:"bookmarks" json:"bookmarks" envPrefix:"BOOKMARKS_"`
	Preview   PreviewConfig   `yaml:"preview" json:"preview" envPrefix:"PREVIEW_"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                 "127.0.0.1:8080",
		Timezone:               "UTC",
		WeekStart:              "monday",
		RefreshCron:            "*/15 * * * *",
		DataSource:             "data",
		Feeds:                  []FeedConfig{},
		CacheDir:               "cache",
		FetchTimeout:           15 * time.Second,
		RecurrenceWindowDays:   365,
		MaxOccurrencesPerEvent: 500,
		MarkerCap:              3,
		SubmitDelay:            2 * time.Second,
		UpcomingLimit:          3,
		Bookmarks: BookmarksConfig{
			Backend: "file",
			Path:    "bookmarks.json",
		},
		Preview: PreviewConfig{
			Enabled: false,
			Path:    "preview.png",
			Timeout: 30 * time.Second,
		},
		LogLevel: "info",
	}
}

// Normalize fills in zero values so partially-filled configs still behave.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	switch c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart)); c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = d.WeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.DataSource == "" {
		c.DataSource = d.DataSource
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	feeds := c.Feeds[:0]
	for _, f := range c.Feeds {
		if f.URL = strings.TrimSpace(f.URL); f.URL == "" {
			continue
		}
		if f.ID == "" {
			f.ID = f.URL
		}
		feeds = append(feeds, f)
	}
	c.Feeds = feeds
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.RecurrenceWindowDays <= 0 {
		c.RecurrenceWindowDays = d.RecurrenceWindowDays
	}
	if c.MaxOccurrencesPerEvent <= 0 {
		c.MaxOccurrencesPerEvent = d.MaxOccurrencesPerEvent
	}
	if c.MarkerCap <= 0 {
		c.MarkerCap = d.MarkerCap
	}
	if c.SubmitDelay < 0 {
		c.SubmitDelay = 0
	}
	if c.UpcomingLimit <= 0 {
		c.UpcomingLimit = d.UpcomingLimit
	}
	switch c.Bookmarks.Backend = strings.ToLower(strings.TrimSpace(c.Bookmarks.Backend)); c.Bookmarks.Backend {
	case "memory", "file", "sqlite":
	default:
		c.Bookmarks.Backend = d.Bookmarks.Backend
	}
	if c.Bookmarks.Path == "" {
		c.Bookmarks.Path = d.Bookmarks.Path
		if c.Bookmarks.Backend == "sqlite" {
			c.Bookmarks.Path = "bookmarks.db"
		}
	}
	if c.Preview.Path == "" {
		c.Preview.Path = d.Preview.Path
	}
	if c.Preview.Timeout <= 0 {
		c.Preview.Timeout = d.Preview.Timeout
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ApplyEnv overrides fields from CAMPUS_* environment variables. Unset
// variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(env.Options{Prefix: EnvPrefix})
}

func (c *Config) applyEnv(opts env.Options) error {
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	c.Normalize()
	return nil
}

// Load loads configuration from the given YAML path.
//
// On first run the file does not exist: a default config is written with
// 0600 perms and returned. Environment overrides are applied after the file
// is read but are never written back.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Normalize()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
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

	tmp, err := os.CreateTemp(dir, ".campusevents-config-*.tmp")
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
