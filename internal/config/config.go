// Package config loads the zoomvault configuration: a YAML file for run
// parameters plus environment variables for the remote API credentials.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/zoomvault/zoomvault/internal/models"
	"gopkg.in/yaml.v3"
)

// Version tags partition table names and the backup directory so multiple
// backup generations can coexist; restrict them to identifier characters.
var versionPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Config holds all configuration values for a backup run.
type Config struct {
	Version     string
	Database    DatabaseConfig
	Directories DirectoriesConfig
	Dates       DatesConfig
	API         APIConfig
	Processing  ProcessingConfig
	Extensions  map[string]string
	Logging     LoggingConfig
	Credentials Credentials
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	DSN string
}

// DirectoriesConfig holds local filesystem layout settings.
type DirectoriesConfig struct {
	BaseDir string
	LogDir  string
}

// DatesConfig bounds the overall backup range. End defaults to "now" when
// the config file leaves it empty.
type DatesConfig struct {
	Start time.Time
	End   time.Time
}

// APIConfig holds remote API pacing, retry, and pagination settings.
type APIConfig struct {
	BaseURL             string
	TokenURL            string
	RequestTimeout      time.Duration
	RateLimitDelay      time.Duration
	Retries             int
	TokenRefreshBuffer  time.Duration
	TokenRefreshRetries int
	PageSizes           PageSizes
	Sleeps              Sleeps
}

// PageSizes per endpoint kind.
type PageSizes struct {
	Users           int
	Recordings      int
	PhoneRecordings int
}

// Sleeps holds every delay the pipeline uses. Tests inject zeros.
type Sleeps struct {
	Retry         time.Duration
	RateLimit     time.Duration
	TokenRefresh  time.Duration
	DownloadRetry time.Duration
}

// ProcessingConfig controls discovery windowing and the download retry budget.
type ProcessingConfig struct {
	MonthsPerWindow int
	Kinds           []models.RecordingKind
	MaxAttempts     int
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	File  string
	Level slog.Level
}

// Credentials are the server-to-server OAuth credentials, read from the
// environment (or a .env file loaded before config parsing).
type Credentials struct {
	AccountID    string
	ClientID     string
	ClientSecret string
}

// Default returns a Config with sensible defaults; Load overlays the YAML
// file and environment on top of it.
func Default() Config {
	return Config{
		Version: "v1",
		Directories: DirectoriesConfig{
			BaseDir: "./zoom_backup",
			LogDir:  "./logs",
		},
		API: APIConfig{
			BaseURL:             "https://api.zoom.us/v2",
			TokenURL:            "https://zoom.us/oauth/token",
			RequestTimeout:      2 * time.Minute,
			RateLimitDelay:      250 * time.Millisecond,
			Retries:             3,
			TokenRefreshBuffer:  5 * time.Minute,
			TokenRefreshRetries: 3,
			PageSizes: PageSizes{
				Users:           300,
				Recordings:      300,
				PhoneRecordings: 100,
			},
			Sleeps: Sleeps{
				Retry:         5 * time.Second,
				RateLimit:     time.Minute,
				TokenRefresh:  2 * time.Second,
				DownloadRetry: time.Minute,
			},
		},
		Processing: ProcessingConfig{
			MonthsPerWindow: 6,
			Kinds:           []models.RecordingKind{models.KindMeeting, models.KindPhone},
			MaxAttempts:     3,
		},
		Extensions: map[string]string{
			"mp4":        "mp4",
			"m4a":        "m4a",
			"transcript": "vtt",
			"cc":         "vtt",
			"chat":       "txt",
			"timeline":   "json",
			"csv":        "csv",
		},
		Logging: LoggingConfig{
			File:  "zoomvault.log",
			Level: slog.LevelInfo,
		},
	}
}

// yamlConfig mirrors Config for unmarshaling: durations and dates arrive as
// strings, log level as a name.
type yamlConfig struct {
	Version  string `yaml:"version"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Directories struct {
		BaseDir string `yaml:"base_dir"`
		LogDir  string `yaml:"log_dir"`
	} `yaml:"directories"`
	Dates struct {
		Start string `yaml:"start_date"`
		End   string `yaml:"end_date"`
	} `yaml:"dates"`
	API struct {
		BaseURL             string `yaml:"base_url"`
		TokenURL            string `yaml:"token_url"`
		RequestTimeout      string `yaml:"request_timeout"`
		RateLimitDelay      string `yaml:"rate_limit_delay"`
		Retries             int    `yaml:"retries"`
		TokenRefreshBuffer  string `yaml:"token_refresh_buffer"`
		TokenRefreshRetries int    `yaml:"token_refresh_retries"`
		PageSizes           struct {
			Users           int `yaml:"users"`
			Recordings      int `yaml:"recordings"`
			PhoneRecordings int `yaml:"phone_recordings"`
		} `yaml:"page_sizes"`
		Sleeps struct {
			Retry         string `yaml:"retry"`
			RateLimit     string `yaml:"rate_limit"`
			TokenRefresh  string `yaml:"token_refresh"`
			DownloadRetry string `yaml:"download_retry"`
		} `yaml:"sleep_durations"`
	} `yaml:"api"`
	Processing struct {
		MonthsPerWindow int      `yaml:"months_per_window"`
		Kinds           []string `yaml:"kinds"`
		MaxAttempts     int      `yaml:"max_attempts"`
	} `yaml:"processing"`
	Extensions map[string]string `yaml:"file_extensions"`
	Logging    struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads the YAML file at path, overlays it on the defaults, pulls
// credentials from the environment, and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if err := cfg.apply(yc); err != nil {
		return Config{}, err
	}

	cfg.Database.DSN = firstNonEmpty(os.Getenv("ZOOMVAULT_DATABASE_URL"), cfg.Database.DSN)
	cfg.Credentials = Credentials{
		AccountID:    os.Getenv("ZOOM_ACCOUNT_ID"),
		ClientID:     os.Getenv("ZOOM_CLIENT_ID"),
		ClientSecret: os.Getenv("ZOOM_CLIENT_SECRET"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(yc yamlConfig) error {
	if yc.Version != "" {
		c.Version = yc.Version
	}
	if yc.Database.DSN != "" {
		c.Database.DSN = yc.Database.DSN
	}
	if yc.Directories.BaseDir != "" {
		c.Directories.BaseDir = yc.Directories.BaseDir
	}
	if yc.Directories.LogDir != "" {
		c.Directories.LogDir = yc.Directories.LogDir
	}

	if yc.Dates.Start != "" {
		t, err := time.Parse("2006-01-02", yc.Dates.Start)
		if err != nil {
			return fmt.Errorf("parse dates.start_date: %w", err)
		}
		c.Dates.Start = t
	}
	if yc.Dates.End != "" {
		t, err := time.Parse("2006-01-02", yc.Dates.End)
		if err != nil {
			return fmt.Errorf("parse dates.end_date: %w", err)
		}
		c.Dates.End = t
	} else {
		c.Dates.End = time.Now().UTC().Truncate(24 * time.Hour)
	}

	if yc.API.BaseURL != "" {
		c.API.BaseURL = strings.TrimSuffix(yc.API.BaseURL, "/")
	}
	if yc.API.TokenURL != "" {
		c.API.TokenURL = yc.API.TokenURL
	}
	if yc.API.Retries != 0 {
		c.API.Retries = yc.API.Retries
	}
	if yc.API.TokenRefreshRetries != 0 {
		c.API.TokenRefreshRetries = yc.API.TokenRefreshRetries
	}
	if yc.API.PageSizes.Users != 0 {
		c.API.PageSizes.Users = yc.API.PageSizes.Users
	}
	if yc.API.PageSizes.Recordings != 0 {
		c.API.PageSizes.Recordings = yc.API.PageSizes.Recordings
	}
	if yc.API.PageSizes.PhoneRecordings != 0 {
		c.API.PageSizes.PhoneRecordings = yc.API.PageSizes.PhoneRecordings
	}

	durations := []struct {
		key string
		in  string
		out *time.Duration
	}{
		{"api.request_timeout", yc.API.RequestTimeout, &c.API.RequestTimeout},
		{"api.rate_limit_delay", yc.API.RateLimitDelay, &c.API.RateLimitDelay},
		{"api.token_refresh_buffer", yc.API.TokenRefreshBuffer, &c.API.TokenRefreshBuffer},
		{"api.sleep_durations.retry", yc.API.Sleeps.Retry, &c.API.Sleeps.Retry},
		{"api.sleep_durations.rate_limit", yc.API.Sleeps.RateLimit, &c.API.Sleeps.RateLimit},
		{"api.sleep_durations.token_refresh", yc.API.Sleeps.TokenRefresh, &c.API.Sleeps.TokenRefresh},
		{"api.sleep_durations.download_retry", yc.API.Sleeps.DownloadRetry, &c.API.Sleeps.DownloadRetry},
	}
	for _, d := range durations {
		if d.in == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.in)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.out = parsed
	}

	if yc.Processing.MonthsPerWindow != 0 {
		c.Processing.MonthsPerWindow = yc.Processing.MonthsPerWindow
	}
	if yc.Processing.MaxAttempts != 0 {
		c.Processing.MaxAttempts = yc.Processing.MaxAttempts
	}
	if len(yc.Processing.Kinds) > 0 {
		kinds := make([]models.RecordingKind, 0, len(yc.Processing.Kinds))
		for _, k := range yc.Processing.Kinds {
			kind, err := models.ParseKind(k)
			if err != nil {
				return fmt.Errorf("processing.kinds: %w", err)
			}
			kinds = append(kinds, kind)
		}
		c.Processing.Kinds = kinds
	}

	for k, v := range yc.Extensions {
		c.Extensions[strings.ToLower(k)] = strings.ToLower(v)
	}

	if yc.Logging.File != "" {
		c.Logging.File = yc.Logging.File
	}
	if yc.Logging.Level != "" {
		c.Logging.Level = parseLogLevel(yc.Logging.Level)
	}
	return nil
}

// Validate enforces the required keys a run cannot proceed without.
func (c *Config) Validate() error {
	if !versionPattern.MatchString(c.Version) {
		return fmt.Errorf("version %q must match %s", c.Version, versionPattern)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (or set ZOOMVAULT_DATABASE_URL)")
	}
	if c.Dates.Start.IsZero() {
		return fmt.Errorf("dates.start_date is required")
	}
	if !c.Dates.Start.Before(c.Dates.End) {
		return fmt.Errorf("dates.start_date %s must be before end date %s",
			c.Dates.Start.Format("2006-01-02"), c.Dates.End.Format("2006-01-02"))
	}
	if c.Processing.MonthsPerWindow < 1 {
		return fmt.Errorf("processing.months_per_window must be at least 1")
	}
	if c.Processing.MaxAttempts < 1 {
		return fmt.Errorf("processing.max_attempts must be at least 1")
	}
	if len(c.Processing.Kinds) == 0 {
		return fmt.Errorf("processing.kinds must enable at least one recording kind")
	}
	if c.Credentials.AccountID == "" || c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" {
		return fmt.Errorf("missing ZOOM_ACCOUNT_ID, ZOOM_CLIENT_ID, or ZOOM_CLIENT_SECRET in environment")
	}
	return nil
}

// BackupDir returns the versioned backup root, e.g. ./zoom_backup_v1.
func (c *Config) BackupDir() string {
	return c.Directories.BaseDir + "_" + c.Version
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
