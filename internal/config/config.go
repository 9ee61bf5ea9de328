package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"custodycal/internal/atomicfile"
	appLog "custodycal/internal/log"
)

// FeedConfig describes an external ICS feed overlaid on the month view
// (school holidays, club fixtures...).
type FeedConfig struct {
	// ID is an internal identifier used for cache files and logging.
	ID string `yaml:"id" json:"id" validate:"required"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url" validate:"required,url"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ExportConfig controls the periodic iCalendar export.
type ExportConfig struct {
	// Path of the .ics file to write. Empty disables the export job.
	Path string `yaml:"path" json:"path"`
	// Months is how many months, starting with the current one, are exported.
	Months int `yaml:"months" json:"months"`
}

// CaptureConfig controls the headless screenshot of the presentation page.
type CaptureConfig struct {
	// URL of the page to capture. Empty disables capturing.
	URL        string `yaml:"url" json:"url"`
	Output     string `yaml:"output" json:"output"`
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
	TimeoutSec int    `yaml:"timeout_sec" json:"timeout_sec"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone whose calendar days the custody
	// calendar is computed in (e.g. "Europe/Madrid").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule string (e.g. "*/30 * * * *")
	// for the export/capture job.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Export  ExportConfig  `yaml:"export" json:"export"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// Feeds is the list of overlaid ICS feeds.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds" validate:"dive"`

	// CacheDir stores conditional-request state for feeds. Empty means the
	// user cache directory.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Family FamilyConfig `yaml:"family" json:"family"`
}

const (
	defaultListen   = "127.0.0.1:8080"
	defaultTimezone = "Europe/Madrid"
	defaultRefresh  = "*/30 * * * *"
	defaultMonths   = 3
	defaultWidth    = 1280
	defaultHeight   = 960
	defaultTimeout  = 30
)

// DefaultConfig returns an in-memory default configuration carrying the
// reference family.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		Timezone:    defaultTimezone,
		LogLevel:    "info",
		RefreshCron: defaultRefresh,
		Export: ExportConfig{
			Months: defaultMonths,
		},
		Capture: CaptureConfig{
			Output:     "preview.png",
			Width:      defaultWidth,
			Height:     defaultHeight,
			TimeoutSec: defaultTimeout,
		},
		Feeds:  []FeedConfig{},
		Family: DefaultFamily(),
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok {
		appLog.Warn("unknown log level, using info", "log_level", c.LogLevel)
		c.LogLevel = "info"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.Export.Months <= 0 {
		c.Export.Months = defaultMonths
	}
	if c.Capture.Output == "" {
		c.Capture.Output = "preview.png"
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = defaultWidth
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = defaultHeight
	}
	if c.Capture.TimeoutSec <= 0 {
		c.Capture.TimeoutSec = defaultTimeout
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Environment variables that override file values.
const (
	EnvListen   = "CUSTODYCAL_LISTEN"
	EnvTimezone = "CUSTODYCAL_TIMEZONE"
	EnvLogLevel = "CUSTODYCAL_LOG_LEVEL"
)

// ApplyEnv overrides selected fields from the environment. Overrides are not
// persisted by Save unless the caller does so explicitly.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimezone)); v != "" {
		c.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// Location resolves Timezone, falling back to the local zone when it is
// empty or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
//
// The family section is not validated here; call Config.FamilyModel.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to path atomically (temp file in the
// same directory, then rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, data, 0o600)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
