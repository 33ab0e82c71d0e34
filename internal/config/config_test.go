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
	if cfg.DefaultTimezone != "Asia/Shanghai" {
		t.Errorf("DefaultTimezone = %q, want %q", cfg.DefaultTimezone, "Asia/Shanghai")
	}
	if cfg.GeoLocation() != nil {
		t.Errorf("GeoLocation() = %v, want nil", cfg.GeoLocation())
	}
	if cfg.SnapshotCacheTTL != time.Minute {
		t.Errorf("SnapshotCacheTTL = %s, want 1m", cfg.SnapshotCacheTTL)
	}
	if cfg.PrewarmCron != "" {
		t.Errorf("PrewarmCron = %q, want empty", cfg.PrewarmCron)
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
	os.Setenv("DEFAULT_TIMEZONE", "America/New_York")
	os.Setenv("DEFAULT_LATITUDE", "40.7128")
	os.Setenv("DEFAULT_LONGITUDE", "-74.0060")
	os.Setenv("GLOBAL_MONTH", "true")
	os.Setenv("APPARENT_TIME", "1")
	os.Setenv("LARGE_HOUR", "true")
	os.Setenv("PREWARM_CRON", "0 3 * * *")
	os.Setenv("SNAPSHOT_CACHE_TTL", "30s")
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

	cal := cfg.Calendar()
	if !cal.GlobalMonth || !cal.ApparentTime || !cal.LargeHour {
		t.Errorf("Calendar() = %+v, want all switches on", cal)
	}
	if got := cfg.TimeZone().String(); got != "America/New_York" {
		t.Errorf("TimeZone() = %q, want %q", got, "America/New_York")
	}
	loc := cfg.GeoLocation()
	if loc == nil || loc.Latitude != 40.7128 || loc.Longitude != -74.0060 {
		t.Errorf("GeoLocation() = %v, want 40.7128,-74.0060", loc)
	}
	if cfg.PrewarmCron != "0 3 * * *" {
		t.Errorf("PrewarmCron = %q", cfg.PrewarmCron)
	}
	if cfg.SnapshotCacheTTL != 30*time.Second {
		t.Errorf("SnapshotCacheTTL = %s, want 30s", cfg.SnapshotCacheTTL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv()
	os.Setenv("DEFAULT_TIMEZONE", "Mars/Olympus_Mons")
	defer clearEnv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with an unknown time zone succeeded, want error")
	}
}

func TestLoad_MalformedLocation(t *testing.T) {
	tests := []struct {
		name      string
		lat, lon  string
		wantInErr []string
	}{
		{"both malformed", "north", "east", []string{"DEFAULT_LATITUDE", "DEFAULT_LONGITUDE"}},
		{"latitude malformed", "31.2x", "121.5", []string{"DEFAULT_LATITUDE"}},
		{"longitude malformed", "31.2", "121,5", []string{"DEFAULT_LONGITUDE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			defer clearEnv()
			os.Setenv("DEFAULT_LATITUDE", tt.lat)
			os.Setenv("DEFAULT_LONGITUDE", tt.lon)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			for _, want := range tt.wantInErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %s", err, want)
				}
			}
		})
	}
}

func validConfig() Config {
	return Config{
		Port:            8080,
		Env:             EnvDevelopment,
		DatabasePath:    "./data/test.db",
		LogLevel:        "info",
		LogFormat:       "text",
		DefaultTimezone: "UTC",
	}
}

func ptr(f float64) *float64 { return &f }

func TestConfig_Validate(t *testing.T) {
	// Table-driven tests for validation
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid development config",
			mutate: func(c *Config) {},
		},
		{
			name: "valid production config",
			mutate: func(c *Config) {
				c.Env = EnvProduction
				c.APIKey = "required-in-prod"
				c.LogFormat = "json"
			},
		},
		{
			name:    "production requires API key",
			mutate:  func(c *Config) { c.Env = EnvProduction },
			wantErr: "API_KEY is required",
		},
		{
			name:    "invalid port - too low",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: "PORT must be between 1 and 65535",
		},
		{
			name:    "invalid port - too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: "PORT must be between 1 and 65535",
		},
		{
			name:    "invalid environment",
			mutate:  func(c *Config) { c.Env = "invalid" },
			wantErr: "ENV must be one of: development, staging, production",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "LOG_LEVEL must be one of",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "LOG_FORMAT must be one of",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: "DATABASE_PATH is required",
		},
		{
			name:    "unknown time zone",
			mutate:  func(c *Config) { c.DefaultTimezone = "Nowhere/Town" },
			wantErr: "DEFAULT_TIMEZONE",
		},
		{
			name: "valid location",
			mutate: func(c *Config) {
				c.DefaultLatitude = ptr(31.2304)
				c.DefaultLongitude = ptr(121.4737)
			},
		},
		{
			name: "latitude out of range",
			mutate: func(c *Config) {
				c.DefaultLatitude = ptr(91)
				c.DefaultLongitude = ptr(0)
			},
			wantErr: "DEFAULT_LATITUDE failed latitude validation",
		},
		{
			name: "longitude out of range",
			mutate: func(c *Config) {
				c.DefaultLatitude = ptr(0)
				c.DefaultLongitude = ptr(-181)
			},
			wantErr: "DEFAULT_LONGITUDE failed longitude validation",
		},
		{
			name:    "latitude without longitude",
			mutate:  func(c *Config) { c.DefaultLatitude = ptr(10) },
			wantErr: "must be set together",
		},
		{
			name:   "valid cron",
			mutate: func(c *Config) { c.PrewarmCron = "@daily" },
		},
		{
			name:    "invalid cron",
			mutate:  func(c *Config) { c.PrewarmCron = "every tuesday" },
			wantErr: "PREWARM_CRON",
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *Config) { c.SnapshotCacheTTL = -time.Second },
			wantErr: "SNAPSHOT_CACHE_TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = 0
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want two errors")
	}
	for _, want := range []string{"PORT", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, missing %s", err, want)
		}
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

func TestConfig_TimeZoneFallback(t *testing.T) {
	cfg := &Config{DefaultTimezone: "Nowhere/Town"}
	if got := cfg.TimeZone(); got != time.UTC {
		t.Errorf("TimeZone() = %v, want UTC", got)
	}
}

// clearEnv removes all config-related environment variables
func clearEnv() {
	vars := []string{
		"PORT", "ENV", "DATABASE_PATH", "API_KEY",
		"LOG_LEVEL", "LOG_FORMAT",
		"DEFAULT_TIMEZONE", "DEFAULT_LATITUDE", "DEFAULT_LONGITUDE",
		"GLOBAL_MONTH", "APPARENT_TIME", "LARGE_HOUR",
		"PREWARM_CRON", "SNAPSHOT_CACHE_TTL",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
