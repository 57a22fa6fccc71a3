package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const devSessionSecret = "trendline-dev-session-secret-change-me"

// Provider exposes configuration values to the rest of the application.
type Provider interface {
	GetAddr() string
	GetEnv() string
	IsProduction() bool
	GetSessionSecret() string
	GetLogFormat() string
	GetLogLevel() string
	GetTopicsRefreshTimeout() time.Duration
	GetTopicsSourceDelay() time.Duration
	GetNotificationsFile() string
	GetTracing() Tracing
}

// Tracing holds the OpenTelemetry exporter settings.
type Tracing struct {
	Enabled     bool
	ServiceName string `validate:"required_if=Enabled true"`
	ZipkinURL   string `validate:"required_if=Enabled true"`
}

// Config holds all configuration for the application.
type Config struct {
	Addr                 string        `validate:"required"`
	Env                  string        `validate:"oneof=development test production"`
	SessionSecret        string        `validate:"required,min=16"`
	LogFormat            string        `validate:"oneof=text json"`
	LogLevel             string        `validate:"oneof=debug info warn error"`
	TopicsRefreshTimeout time.Duration `validate:"gt=0,gtfield=TopicsSourceDelay"`
	TopicsSourceDelay    time.Duration `validate:"gte=0"`
	NotificationsFile    string
	Tracing              Tracing
}

// Compile-time check that Config satisfies Provider.
var _ Provider = (*Config)(nil)

// New loads configuration from a .env file, if present, and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from environment variables only.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		Addr:              getenv("APP_ADDR", ":8080"),
		Env:               getenv("APP_ENV", "development"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		LogFormat:         getenv("LOG_FORMAT", "text"),
		LogLevel:          getenv("LOG_LEVEL", "debug"),
		NotificationsFile: os.Getenv("NOTIFICATIONS_FILE"),
		Tracing: Tracing{
			ServiceName: getenv("TRACING_SERVICE_NAME", "trendline"),
			ZipkinURL:   getenv("TRACING_ZIPKIN_URL", "http://localhost:9411/api/v2/spans"),
		},
	}

	var err error
	if cfg.TopicsRefreshTimeout, err = durationEnv("TOPICS_REFRESH_TIMEOUT", 5*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.TopicsSourceDelay, err = durationEnv("TOPICS_SOURCE_DELAY", time.Second); err != nil {
		errs = append(errs, err)
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TRACING_ENABLED: %w", err))
		}
		cfg.Tracing.Enabled = enabled
	}

	if cfg.SessionSecret == "" && cfg.Env != "production" {
		cfg.SessionSecret = devSessionSecret
	}

	if err := validator.New().Struct(cfg); err != nil {
		errs = append(errs, fmt.Errorf("invalid configuration: %w", err))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func (c *Config) GetAddr() string { return c.Addr }
func (c *Config) GetEnv() string { return c.Env }
func (c *Config) IsProduction() bool { return c.Env == "production" }
func (c *Config) GetSessionSecret() string { return c.SessionSecret }
func (c *Config) GetLogFormat() string { return c.LogFormat }
func (c *Config) GetLogLevel() string { return c.LogLevel }
func (c *Config) GetTopicsRefreshTimeout() time.Duration { return c.TopicsRefreshTimeout }
func (c *Config) GetTopicsSourceDelay() time.Duration { return c.TopicsSourceDelay }
func (c *Config) GetNotificationsFile() string { return c.NotificationsFile }
func (c *Config) GetTracing() Tracing { return c.Tracing }
