package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Pipeline web service configuration
	BaseURL    string `env:"PIPELINE_BASE_URL" validate:"required,url"`
	AuthID     string `env:"PIPELINE_AUTH_ID"`
	AuthSecret string `env:"PIPELINE_AUTH_SECRET"`

	// Local job store configuration
	StoreDir      string `env:"PIPELINE_STORE_DIR" default:"jobs"`
	GitVersioning bool   `env:"PIPELINE_GIT_VERSIONING" default:"false"`

	// HTTP configuration
	RequestTimeout time.Duration `env:"PIPELINE_REQUEST_TIMEOUT" default:"30s"`

	// Application configuration
	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error" default:"info"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=text json" default:"text"`
}

// Authenticated reports whether request signing credentials are configured.
func (c *Config) Authenticated() bool {
	return c.AuthID != "" && c.AuthSecret != ""
}

// Provider defines the interface for configuration management
// This enables dependency injection and easy testing
type Provider interface {
	Load() (*Config, error)
	Validate(*Config) error
	LoadFromEnv() (*Config, error)
}

// Loader implements the Provider interface
type Loader struct {
	envLoader EnvLoader
}

// EnvLoader defines interface for environment variable loading
// This allows for testing with mock environment variables
type EnvLoader interface {
	Getenv(key string) string
	LookupEnv(key string) (string, bool)
}

// OSEnvLoader implements EnvLoader using os package
type OSEnvLoader struct{}

func (o *OSEnvLoader) Getenv(key string) string {
	return os.Getenv(key)
}

func (o *OSEnvLoader) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// NewLoader creates a new configuration loader
func NewLoader() Provider {
	return &Loader{
		envLoader: &OSEnvLoader{},
	}
}

// NewLoaderWithEnv creates a loader with custom environment loader (for testing)
func NewLoaderWithEnv(envLoader EnvLoader) Provider {
	return &Loader{
		envLoader: envLoader,
	}
}

// Load loads configuration from environment variables
func (l *Loader) Load() (*Config, error) {
	return l.LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables
func (l *Loader) LoadFromEnv() (*Config, error) {
	config := &Config{}

	config.BaseURL = l.envLoader.Getenv("PIPELINE_BASE_URL")
	config.AuthID = l.envLoader.Getenv("PIPELINE_AUTH_ID")
	config.AuthSecret = l.envLoader.Getenv("PIPELINE_AUTH_SECRET")

	config.StoreDir = l.getEnvWithDefault("PIPELINE_STORE_DIR", "jobs")
	config.GitVersioning = l.getBoolWithDefault("PIPELINE_GIT_VERSIONING", false)
	config.RequestTimeout = l.getDurationWithDefault("PIPELINE_REQUEST_TIMEOUT", 30*time.Second)

	config.LogLevel = l.getEnvWithDefault("LOG_LEVEL", "info")
	config.LogFormat = l.getEnvWithDefault("LOG_FORMAT", "text")

	if err := l.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (l *Loader) Validate(config *Config) error {
	var errors []string

	if config.BaseURL == "" {
		errors = append(errors, "PIPELINE_BASE_URL is required")
	} else if err := l.validateURL(config.BaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("PIPELINE_BASE_URL is invalid: %v", err))
	}

	// Signing credentials come as a pair or not at all
	if (config.AuthID == "") != (config.AuthSecret == "") {
		errors = append(errors, "PIPELINE_AUTH_ID and PIPELINE_AUTH_SECRET must be set together")
	}

	if config.StoreDir == "" {
		errors = append(errors, "PIPELINE_STORE_DIR must not be empty")
	}
	if config.RequestTimeout <= 0 {
		errors = append(errors, "PIPELINE_REQUEST_TIMEOUT must be positive")
	}

	if err := l.validateLogLevel(config.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL is invalid: %v", err))
	}

	if err := l.validateLogFormat(config.LogFormat); err != nil {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT is invalid: %v", err))
	}

	if len(errors) > 0 {
		return &ValidationError{Errors: errors}
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Helper methods

func (l *Loader) getEnvWithDefault(key, defaultValue string) string {
	if value := l.envLoader.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (l *Loader) validateURL(urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

func (l *Loader) validateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(validLevels, ", "))
}

func (l *Loader) validateLogFormat(format string) error {
	validFormats := []string{"text", "json"}
	for _, valid := range validFormats {
		if format == valid {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(validFormats, ", "))
}

// getDurationWithDefault gets a duration from environment with fallback to default
func (l *Loader) getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := l.envLoader.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}

// getBoolWithDefault gets a boolean from environment with fallback to default
func (l *Loader) getBoolWithDefault(key string, defaultValue bool) bool {
	switch l.envLoader.Getenv(key) {
	case "true":
		return true
	case "false":
		return false
	}
	return defaultValue
}
