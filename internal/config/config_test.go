package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	// Check defaults are applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
	if cfg.Latitude != DefaultLatitude || cfg.Longitude != DefaultLongitude {
		t.Errorf("coordinates = %v,%v, want Fair Lawn", cfg.Latitude, cfg.Longitude)
	}
	if cfg.MinyanFetchWeeks != 4 {
		t.Errorf("MinyanFetchWeeks = %d, want 4", cfg.MinyanFetchWeeks)
	}
	if cfg.MinyanFetchDelay != time.Second {
		t.Errorf("MinyanFetchDelay = %v, want 1s", cfg.MinyanFetchDelay)
	}
	if cfg.MinyanFetchSchedule != "" {
		t.Errorf("MinyanFetchSchedule = %q, want disabled", cfg.MinyanFetchSchedule)
	}
	if !cfg.WatchCache {
		t.Error("WatchCache = false, want true")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv()

	// Set custom values
	os.Setenv("PORT", "3000")
	os.Setenv("ENV", "production")
	os.Setenv("DATABASE_PATH", "/data/test.db")
	os.Setenv("API_KEY", "secret-key-123")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	os.Setenv("LATITUDE", "31.7683")
	os.Setenv("LONGITUDE", "35.2137")
	os.Setenv("TIMEZONE", "UTC")
	os.Setenv("MINYAN_FETCH_WEEKS", "6")
	os.Setenv("MINYAN_FETCH_DELAY", "2")
	os.Setenv("MINYAN_FETCH_TIMEOUT", "15s")
	os.Setenv("MINYAN_FETCH_SCHEDULE", "0 6 * * 3")
	os.Setenv("WATCH_CACHE", "false")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProduction)
	}
	if cfg.DatabasePath != "/data/test.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/data/test.db")
	}
	if cfg.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "secret-key-123")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
	if cfg.Latitude != 31.7683 || cfg.Longitude != 35.2137 {
		t.Errorf("coordinates = %v,%v, want 31.7683,35.2137", cfg.Latitude, cfg.Longitude)
	}
	if cfg.MinyanFetchWeeks != 6 {
		t.Errorf("MinyanFetchWeeks = %d, want 6", cfg.MinyanFetchWeeks)
	}
	if cfg.MinyanFetchDelay != 2*time.Second {
		t.Errorf("MinyanFetchDelay = %v, want 2s", cfg.MinyanFetchDelay)
	}
	if cfg.MinyanFetchTimeout != 15*time.Second {
		t.Errorf("MinyanFetchTimeout = %v, want 15s", cfg.MinyanFetchTimeout)
	}
	if cfg.MinyanFetchSchedule != "0 6 * * 3" {
		t.Errorf("MinyanFetchSchedule = %q", cfg.MinyanFetchSchedule)
	}
	if cfg.WatchCache {
		t.Error("WatchCache = true, want false")
	}
}

// validConfig returns a development config that passes validation.
func validConfig() Config {
	return Config{
		Port:               8080,
		Env:                EnvDevelopment,
		DatabasePath:       "./data/test.db",
		LogLevel:           "info",
		LogFormat:          "text",
		LocationName:       DefaultLocationName,
		Latitude:           DefaultLatitude,
		Longitude:          DefaultLongitude,
		TimeZone:           "UTC",
		MinyanCachePath:    "./data/minyan-times.json",
		MinyanCalendarURL:  "https://example.org/calendar",
		MinyanFetchWeeks:   4,
		MinyanFetchDelay:   time.Second,
		MinyanFetchTimeout: 30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	// Table-driven tests for validation
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"valid production config", func(c *Config) {
			c.Env = EnvProduction
			c.APIKey = "required-in-prod"
			c.LogFormat = "json"
		}, false},
		{"production requires API key", func(c *Config) { c.Env = EnvProduction }, true},
		{"invalid port - too low", func(c *Config) { c.Port = 0 }, true},
		{"invalid port - too high", func(c *Config) { c.Port = 70000 }, true},
		{"invalid environment", func(c *Config) { c.Env = "invalid" }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }, true},
		{"latitude out of range", func(c *Config) { c.Latitude = 91 }, true},
		{"longitude out of range", func(c *Config) { c.Longitude = -181 }, true},
		{"unknown time zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }, true},
		{"calendar URL not a URL", func(c *Config) { c.MinyanCalendarURL = "calendar" }, true},
		{"zero fetch weeks", func(c *Config) { c.MinyanFetchWeeks = 0 }, true},
		{"zero fetch timeout", func(c *Config) { c.MinyanFetchTimeout = 0 }, true},
		{"valid schedule", func(c *Config) { c.MinyanFetchSchedule = "30 5 * * 4" }, false},
		{"invalid schedule", func(c *Config) { c.MinyanFetchSchedule = "every thursday" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateNamesVariable(t *testing.T) {
	cfg := validConfig()
	cfg.MinyanFetchWeeks = 100

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "MINYAN_FETCH_WEEKS") {
		t.Errorf("Validate() error = %v, want it to name MINYAN_FETCH_WEEKS", err)
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := validConfig()

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.Name != DefaultLocationName || loc.Latitude != DefaultLatitude {
		t.Errorf("Location() = %+v", loc)
	}
	if loc.TimeZone != time.UTC {
		t.Errorf("TimeZone = %v, want UTC", loc.TimeZone)
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.Env = EnvProduction
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}

	cfg.Env = EnvDevelopment
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false")
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 5 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"3", 3 * time.Second},
		{"soon", 5 * time.Second},
	}

	for _, tt := range tests {
		os.Setenv("TEST_DURATION", tt.value)
		if got := getEnvDuration("TEST_DURATION", 5*time.Second); got != tt.want {
			t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	os.Unsetenv("TEST_DURATION")
}

// clearEnv removes all config-related environment variables
func clearEnv() {
	vars := []string{
		"PORT", "ENV", "DATABASE_PATH", "API_KEY",
		"LOG_LEVEL", "LOG_FORMAT",
		"LOCATION_NAME", "LATITUDE", "LONGITUDE", "TIMEZONE",
		"MINYAN_CACHE_PATH", "MINYAN_CALENDAR_URL", "MINYAN_FETCH_WEEKS",
		"MINYAN_FETCH_DELAY", "MINYAN_FETCH_TIMEOUT", "MINYAN_FETCH_SCHEDULE",
		"ANNOUNCEMENTS_PATH", "WATCH_CACHE",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
