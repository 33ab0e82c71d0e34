// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/zapponejosh/lunarcal/internal/calendar"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    `env:"PORT" validate:"min=1,max=65535"`
	Env  string `env:"ENV" validate:"oneof=development staging production"`

	// Database
	DatabasePath string `env:"DATABASE_PATH" validate:"required"`

	// Authentication
	APIKey string `env:"API_KEY"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=json text"`

	// Calendar defaults applied when a request leaves them out
	DefaultTimezone  string   `env:"DEFAULT_TIMEZONE" validate:"required"`
	DefaultLatitude  *float64 `env:"DEFAULT_LATITUDE" validate:"omitempty,latitude"`
	DefaultLongitude *float64 `env:"DEFAULT_LONGITUDE" validate:"omitempty,longitude"`
	GlobalMonth      bool     `env:"GLOBAL_MONTH"`
	ApparentTime     bool     `env:"APPARENT_TIME"`
	LargeHour        bool     `env:"LARGE_HOUR"`

	// Background work
	PrewarmCron      string        `env:"PREWARM_CRON"`     // empty disables the almanac prewarm
	SnapshotCacheTTL time.Duration `env:"SNAPSHOT_CACHE_TTL"` // zero disables the snapshot cache
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// validate reports field errors under their environment variable names.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}()

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Database
	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/lunarcal.db")

	// Authentication
	cfg.APIKey = getEnv("API_KEY", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	// Calendar
	cfg.DefaultTimezone = getEnv("DEFAULT_TIMEZONE", "Asia/Shanghai")
	var parseErrs []error
	var err error
	if cfg.DefaultLatitude, err = getEnvFloat("DEFAULT_LATITUDE"); err != nil {
		parseErrs = append(parseErrs, err)
	}
	if cfg.DefaultLongitude, err = getEnvFloat("DEFAULT_LONGITUDE"); err != nil {
		parseErrs = append(parseErrs, err)
	}
	cfg.GlobalMonth = getEnvBool("GLOBAL_MONTH", false)
	cfg.ApparentTime = getEnvBool("APPARENT_TIME", false)
	cfg.LargeHour = getEnvBool("LARGE_HOUR", false)

	// Background work
	cfg.PrewarmCron = getEnv("PREWARM_CRON", "")
	cfg.SnapshotCacheTTL = getEnvDuration("SNAPSHOT_CACHE_TTL", time.Minute)

	// Validate configuration
	if err := errors.Join(append(parseErrs, cfg.Validate())...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fieldError(fe))
		}
	}

	// API key is required in production
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	if c.DefaultTimezone != "" {
		if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
			errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE %q: %w", c.DefaultTimezone, err))
		}
	}

	if (c.DefaultLatitude == nil) != (c.DefaultLongitude == nil) {
		errs = append(errs, errors.New("DEFAULT_LATITUDE and DEFAULT_LONGITUDE must be set together"))
	}

	if c.PrewarmCron != "" {
		if _, err := cron.ParseStandard(c.PrewarmCron); err != nil {
			errs = append(errs, fmt.Errorf("PREWARM_CRON %q: %w", c.PrewarmCron, err))
		}
	}

	if c.SnapshotCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("SNAPSHOT_CACHE_TTL must not be negative, got %s", c.SnapshotCacheTTL))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// fieldError renders a validator failure the way the rest of Validate does.
func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s; got %q", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "min", "max":
		return fmt.Errorf("%s must be between 1 and 65535, got %v", fe.Field(), fe.Value())
	default:
		return fmt.Errorf("%s failed %s validation, got %v", fe.Field(), fe.Tag(), fe.Value())
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Calendar returns the calendar switches.
func (c *Config) Calendar() calendar.Config {
	return calendar.Config{
		GlobalMonth:  c.GlobalMonth,
		ApparentTime: c.ApparentTime,
		LargeHour:    c.LargeHour,
	}
}

// TimeZone returns the default time zone, or UTC if it cannot be loaded.
func (c *Config) TimeZone() *time.Location {
	tz, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return tz
}

// GeoLocation returns the default observer location, or nil.
func (c *Config) GeoLocation() *calendar.GeoLocation {
	if c.DefaultLatitude == nil || c.DefaultLongitude == nil {
		return nil
	}
	return &calendar.GeoLocation{Latitude: *c.DefaultLatitude, Longitude: *c.DefaultLongitude}
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

// getEnvBool reads an environment variable as a boolean with a default fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvFloat reads an optional float. An unset variable yields nil; a set
// but malformed one is an error.
func getEnvFloat(key string) (*float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("%s %q is not a number", key, value)
	}
	return &f, nil
}

// getEnvDuration reads an environment variable as a time.Duration.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
