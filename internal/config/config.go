// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    `validate:"min=1,max=65535"` // HTTP port to listen on
	Env  string // development, staging, production

	// Database
	DatabasePath string // Path to SQLite file

	// Authentication
	APIKey string // API key for authenticated endpoints

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Location used for sunset and the displayed schedule
	LocationName string
	Latitude     float64 `validate:"gte=-90,lte=90"`
	Longitude    float64 `validate:"gte=-180,lte=180"`
	TimeZone     string

	// Minyan times cache and its fetch job
	MinyanCachePath     string
	MinyanCalendarURL   string `validate:"required,url"`
	MinyanFetchWeeks    int    `validate:"min=1,max=26"`
	MinyanFetchDelay    time.Duration
	MinyanFetchTimeout  time.Duration
	MinyanFetchSchedule string // cron expression; empty disables the schedule
	WatchCache          bool   // reload the cache when another process rewrites it

	AnnouncementsPath string
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Fair Lawn, NJ
const (
	DefaultLocationName = "Fair Lawn, NJ"
	DefaultLatitude     = 40.940866
	DefaultLongitude    = -74.126082
	DefaultTimeZone     = "America/New_York"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// No-op in production where env vars are set directly
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Database
	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/shabbat.db")

	// Authentication
	cfg.APIKey = getEnv("API_KEY", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	// Location
	cfg.LocationName = getEnv("LOCATION_NAME", DefaultLocationName)
	cfg.Latitude = getEnvFloat("LATITUDE", DefaultLatitude)
	cfg.Longitude = getEnvFloat("LONGITUDE", DefaultLongitude)
	cfg.TimeZone = getEnv("TIMEZONE", DefaultTimeZone)

	// Minyan times
	cfg.MinyanCachePath = getEnv("MINYAN_CACHE_PATH", "./data/minyan-times.json")
	cfg.MinyanCalendarURL = getEnv("MINYAN_CALENDAR_URL", "https://shomreitorah.shulcloud.com/calendar")
	cfg.MinyanFetchWeeks = getEnvInt("MINYAN_FETCH_WEEKS", 4)
	cfg.MinyanFetchDelay = getEnvDuration("MINYAN_FETCH_DELAY", time.Second)
	cfg.MinyanFetchTimeout = getEnvDuration("MINYAN_FETCH_TIMEOUT", 30*time.Second)
	cfg.MinyanFetchSchedule = getEnv("MINYAN_FETCH_SCHEDULE", "")
	cfg.WatchCache = getEnvBool("WATCH_CACHE", true)

	cfg.AnnouncementsPath = getEnv("ANNOUNCEMENTS_PATH", "./data/announcements.yaml")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	// Range checks from struct tags
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("%s failed %q check (value %v)", envName(fe.Field()), fe.Tag(), fe.Value()))
		}
	}

	// Validate environment
	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	// Validate database path is set
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	// API key is required in production
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	// Validate log level
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	// Validate log format
	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if _, err := time.LoadLocation(c.TimeZone); c.TimeZone == "" || err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE must be an IANA zone name; got %q", c.TimeZone))
	}

	if c.MinyanCachePath == "" {
		errs = append(errs, errors.New("MINYAN_CACHE_PATH is required"))
	}
	if c.MinyanFetchDelay < 0 {
		errs = append(errs, fmt.Errorf("MINYAN_FETCH_DELAY must not be negative, got %s", c.MinyanFetchDelay))
	}
	if c.MinyanFetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MINYAN_FETCH_TIMEOUT must be positive, got %s", c.MinyanFetchTimeout))
	}
	if c.MinyanFetchSchedule != "" {
		if _, err := cron.ParseStandard(c.MinyanFetchSchedule); err != nil {
			errs = append(errs, fmt.Errorf("MINYAN_FETCH_SCHEDULE: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location builds the calendar location from the configured coordinates.
func (c *Config) Location() (hebrew.Location, error) {
	tz, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return hebrew.Location{}, fmt.Errorf("load time zone %q: %w", c.TimeZone, err)
	}
	return hebrew.Location{
		Name:      c.LocationName,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		TimeZone:  tz,
	}, nil
}

var envNames = map[string]string{
	"Port":              "PORT",
	"Latitude":          "LATITUDE",
	"Longitude":         "LONGITUDE",
	"MinyanCalendarURL": "MINYAN_CALENDAR_URL",
	"MinyanFetchWeeks":  "MINYAN_FETCH_WEEKS",
}

// envName maps a struct field to the variable that sets it.
func envName(field string) string {
	if name, ok := envNames[field]; ok {
		return name
	}
	return field
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("1500ms") or whole seconds ("2").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
