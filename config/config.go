// Package config provides configuration management for the attendance CLI.
// It supports loading configuration from a YAML file, environment variables,
// and command-line flags, with later sources overriding earlier ones.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
)

// MeetingType names the discovery channels a run may be filtered to.
type MeetingType string

const (
	// MeetingTypeAll enables every discovery channel.
	MeetingTypeAll MeetingType = "all"
	// MeetingTypeScheduled enables calendar-scheduled meetings.
	MeetingTypeScheduled MeetingType = "scheduled"
	// MeetingTypeAdHoc enables chat-derived and call-record meetings.
	MeetingTypeAdHoc MeetingType = "adhoc"
	// MeetingTypeOneOnOne enables one-on-one call discovery.
	MeetingTypeOneOnOne MeetingType = "oneOnOne"
	// MeetingTypeWebinar enables online-meeting/webinar discovery.
	MeetingTypeWebinar MeetingType = "webinar"
	// MeetingTypeTownhall enables broadcast/townhall discovery.
	MeetingTypeTownhall MeetingType = "townhall"
)

// Default configuration values.
const (
	DefaultConfigDir       = ".attendance"
	DefaultConfigFile      = "config.yaml"
	DefaultGraphBaseURL    = "https://graph.microsoft.com/v1.0"
	DefaultRequestDelay    = 500 * time.Millisecond
	DefaultRequestTimeout  = 2 * time.Minute
	DefaultMaxRetries      = 5
	DefaultRetryBaseDelay  = 2 * time.Second
	DefaultThrottleDelay   = 60 * time.Second
	DefaultOutputDir       = "."
	DefaultCalendarPage    = 100
	DefaultChatMessageScan = 50
	DefaultCacheTTL        = 14 * 24 * time.Hour
)

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "ATTENDANCE_"

// CacheConfig holds optional Redis settings for the resolver cache.
// When Addr is empty the cache is disabled and every join-URL lookup
// goes to the API.
type CacheConfig struct {
	// Addr is the Redis host:port.
	Addr string `yaml:"addr,omitempty"`

	// Password is the Redis password, if any.
	Password string `yaml:"password,omitempty"`

	// DB is the Redis database index.
	DB int `yaml:"db,omitempty"`

	// TTL is how long resolved join-URL mappings stay cached.
	TTL time.Duration `yaml:"ttl,omitempty"`
}

// Enabled reports whether the resolver cache is configured.
func (c *CacheConfig) Enabled() bool {
	return c != nil && c.Addr != ""
}

// Config holds the attendance exporter configuration.
type Config struct {
	// UserPrincipalName is the UPN of the user whose attendance is exported.
	UserPrincipalName string `yaml:"user_principal_name"`

	// StartDate is the inclusive start of the export window (YYYY-MM-DD).
	StartDate string `yaml:"start_date,omitempty"`

	// EndDate is the inclusive end of the export window (YYYY-MM-DD).
	EndDate string `yaml:"end_date,omitempty"`

	// MeetingTypes selects which discovery channels run. Defaults to [all].
	MeetingTypes []MeetingType `yaml:"meeting_types,omitempty"`

	// GraphBaseURL is the Graph API root. Overridable for tests and
	// sovereign-cloud tenants.
	GraphBaseURL string `yaml:"graph_base_url,omitempty"`

	// RequestDelay is the fixed pause inserted between successive API calls
	// to stay under the platform rate limit.
	RequestDelay time.Duration `yaml:"request_delay,omitempty"`

	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`

	// MaxRetries is the retry cap for transient request failures.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// RetryBaseDelay is multiplied by the attempt index for transient backoff.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay,omitempty"`

	// Concurrency is reserved for future parallel fetching. The pipeline is
	// sequential; values above 1 only log a warning.
	Concurrency int `yaml:"concurrency,omitempty"`

	// OutputDir is where CSV exports and debug payloads are written.
	OutputDir string `yaml:"output_dir,omitempty"`

	// LogFile, when set, duplicates structured logs to a JSON-lines file.
	LogFile string `yaml:"log_file,omitempty"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`

	// LogJSON switches console logging to JSON, for scheduled runs.
	LogJSON bool `yaml:"log_json,omitempty"`

	// Debug persists raw expanded attendance-report payloads before flattening.
	Debug bool `yaml:"debug,omitempty"`

	// MetricsAddr, when set, serves Prometheus metrics on this address for
	// the duration of the run.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	// Cache holds optional Redis resolver-cache settings.
	Cache *CacheConfig `yaml:"cache,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		MeetingTypes:   []MeetingType{MeetingTypeAll},
		GraphBaseURL:   DefaultGraphBaseURL,
		RequestDelay:   DefaultRequestDelay,
		RequestTimeout: DefaultRequestTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		Concurrency:    1,
		OutputDir:      DefaultOutputDir,
		LogLevel:       "info",
	}
}

// ConfigDir returns the configuration directory path.
// Uses $ATTENDANCE_CONFIG_DIR if set, otherwise ~/.attendance.
func ConfigDir() (string, error) {
	if dir := os.Getenv(envPrefix + "CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.attendance/config.yaml or $ATTENDANCE_CONFIG_DIR/config.yaml)
// 3. Environment variables (ATTENDANCE_USER, ATTENDANCE_REQUEST_DELAY, ...)
//
// Command-line flags are applied by the cmd package on top of the result.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// Durations are written as strings in YAML ("500ms", "1m"), so a temp
	// struct carries them across.
	type configFile struct {
		UserPrincipalName string        `yaml:"user_principal_name"`
		StartDate         string        `yaml:"start_date"`
		EndDate           string        `yaml:"end_date"`
		MeetingTypes      []MeetingType `yaml:"meeting_types"`
		GraphBaseURL      string        `yaml:"graph_base_url"`
		RequestDelay      string        `yaml:"request_delay"`
		RequestTimeout    string        `yaml:"request_timeout"`
		MaxRetries        *int          `yaml:"max_retries"`
		RetryBaseDelay    string        `yaml:"retry_base_delay"`
		Concurrency       *int          `yaml:"concurrency"`
		OutputDir         string        `yaml:"output_dir"`
		LogFile           string        `yaml:"log_file"`
		LogLevel          string        `yaml:"log_level"`
		LogJSON           *bool         `yaml:"log_json"`
		Debug             *bool         `yaml:"debug"`
		MetricsAddr       string        `yaml:"metrics_addr"`
		Cache             *CacheConfig  `yaml:"cache"`
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.UserPrincipalName != "" {
		cfg.UserPrincipalName = fileCfg.UserPrincipalName
	}
	if fileCfg.StartDate != "" {
		cfg.StartDate = fileCfg.StartDate
	}
	if fileCfg.EndDate != "" {
		cfg.EndDate = fileCfg.EndDate
	}
	if len(fileCfg.MeetingTypes) > 0 {
		cfg.MeetingTypes = fileCfg.MeetingTypes
	}
	if fileCfg.GraphBaseURL != "" {
		cfg.GraphBaseURL = fileCfg.GraphBaseURL
	}
	if fileCfg.RequestDelay != "" {
		d, err := time.ParseDuration(fileCfg.RequestDelay)
		if err != nil {
			return fmt.Errorf("parsing request_delay: %w", err)
		}
		cfg.RequestDelay = d
	}
	if fileCfg.RequestTimeout != "" {
		d, err := time.ParseDuration(fileCfg.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parsing request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if fileCfg.MaxRetries != nil {
		cfg.MaxRetries = *fileCfg.MaxRetries
	}
	if fileCfg.RetryBaseDelay != "" {
		d, err := time.ParseDuration(fileCfg.RetryBaseDelay)
		if err != nil {
			return fmt.Errorf("parsing retry_base_delay: %w", err)
		}
		cfg.RetryBaseDelay = d
	}
	if fileCfg.Concurrency != nil {
		cfg.Concurrency = *fileCfg.Concurrency
	}
	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}
	if fileCfg.LogFile != "" {
		cfg.LogFile = fileCfg.LogFile
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogJSON != nil {
		cfg.LogJSON = *fileCfg.LogJSON
	}
	if fileCfg.Debug != nil {
		cfg.Debug = *fileCfg.Debug
	}
	if fileCfg.MetricsAddr != "" {
		cfg.MetricsAddr = fileCfg.MetricsAddr
	}
	if fileCfg.Cache != nil {
		cfg.Cache = fileCfg.Cache
		if cfg.Cache.TTL == 0 {
			cfg.Cache.TTL = DefaultCacheTTL
		}
	}

	cfg.OutputDir = expandPath(cfg.OutputDir)
	cfg.LogFile = expandPath(cfg.LogFile)

	return nil
}

// loadFromEnv overlays configuration from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv(envPrefix + "USER"); v != "" {
		cfg.UserPrincipalName = v
	}
	if v := os.Getenv(envPrefix + "START_DATE"); v != "" {
		cfg.StartDate = v
	}
	if v := os.Getenv(envPrefix + "END_DATE"); v != "" {
		cfg.EndDate = v
	}
	if v := os.Getenv(envPrefix + "MEETING_TYPES"); v != "" {
		var types []MeetingType
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				types = append(types, MeetingType(part))
			}
		}
		if len(types) > 0 {
			cfg.MeetingTypes = types
		}
	}
	if v := os.Getenv(envPrefix + "GRAPH_BASE_URL"); v != "" {
		cfg.GraphBaseURL = v
	}
	if v := os.Getenv(envPrefix + "REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestDelay = d
		}
	}
	if v := os.Getenv(envPrefix + "MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		cfg.OutputDir = expandPath(v)
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		cfg.LogFile = expandPath(v)
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envPrefix + "LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
	if v := os.Getenv(envPrefix + "DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := os.Getenv(envPrefix + "METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv(envPrefix + "REDIS_ADDR"); v != "" {
		if cfg.Cache == nil {
			cfg.Cache = &CacheConfig{TTL: DefaultCacheTTL}
		}
		cfg.Cache.Addr = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.RequestDelay < 0 {
		return fmt.Errorf("%w: request_delay must not be negative", umerrors.ErrValidation)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", umerrors.ErrValidation)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1", umerrors.ErrValidation)
	}
	if c.StartDate != "" {
		if _, err := time.Parse("2006-01-02", c.StartDate); err != nil {
			return fmt.Errorf("%w: start_date must be YYYY-MM-DD: %v", umerrors.ErrValidation, err)
		}
	}
	if c.EndDate != "" {
		if _, err := time.Parse("2006-01-02", c.EndDate); err != nil {
			return fmt.Errorf("%w: end_date must be YYYY-MM-DD: %v", umerrors.ErrValidation, err)
		}
	}
	for _, mt := range c.MeetingTypes {
		switch mt {
		case MeetingTypeAll, MeetingTypeScheduled, MeetingTypeAdHoc,
			MeetingTypeOneOnOne, MeetingTypeWebinar, MeetingTypeTownhall:
		default:
			return fmt.Errorf("%w: unknown meeting type %q", umerrors.ErrValidation, mt)
		}
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", umerrors.ErrValidation, c.LogLevel)
	}
	return nil
}

// DateRange parses the configured start/end dates. The end date is extended
// to end-of-day so a single-day range still covers its meetings.
func (c *Config) DateRange() (start, end time.Time, err error) {
	if c.StartDate == "" || c.EndDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date and end_date are required", umerrors.ErrValidation)
	}
	start, err = time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing start_date: %w", err)
	}
	end, err = time.Parse("2006-01-02", c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing end_date: %w", err)
	}
	end = end.Add(24*time.Hour - time.Second)
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date precedes start_date", umerrors.ErrValidation)
	}
	return start, end, nil
}

// HasMeetingType reports whether the filter set enables the given type.
func (c *Config) HasMeetingType(t MeetingType) bool {
	for _, mt := range c.MeetingTypes {
		if mt == MeetingTypeAll || mt == t {
			return true
		}
	}
	return false
}

// Save writes the configuration to the config file, creating the directory
// if needed.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// parseBool is a forgiving boolean parser for env values.
func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
