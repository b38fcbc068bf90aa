package config

import (
	"strings"
	"testing"
	"time"
)

// MockEnvLoader implements EnvLoader for testing
type MockEnvLoader struct {
	vars map[string]string
}

func NewMockEnvLoader(vars map[string]string) *MockEnvLoader {
	return &MockEnvLoader{vars: vars}
}

func (m *MockEnvLoader) Getenv(key string) string {
	return m.vars[key]
}

func (m *MockEnvLoader) LookupEnv(key string) (string, bool) {
	val, exists := m.vars[key]
	return val, exists
}

func TestConfig_LoadFromEnv_Success(t *testing.T) {
	envVars := map[string]string{
		"PIPELINE_BASE_URL":    "https://pipeline.example.org/ws",
		"PIPELINE_AUTH_ID":     "clientid",
		"PIPELINE_AUTH_SECRET": "supersecret",
		"PIPELINE_STORE_DIR":   "/var/lib/pipeline/jobs",
		"LOG_LEVEL":            "debug",
		"LOG_FORMAT":           "json",
	}

	loader := NewLoaderWithEnv(NewMockEnvLoader(envVars))
	config, err := loader.Load()

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.BaseURL != "https://pipeline.example.org/ws" {
		t.Errorf("Expected PIPELINE_BASE_URL 'https://pipeline.example.org/ws', got '%s'", config.BaseURL)
	}
	if config.AuthID != "clientid" {
		t.Errorf("Expected PIPELINE_AUTH_ID 'clientid', got '%s'", config.AuthID)
	}
	if config.AuthSecret != "supersecret" {
		t.Errorf("Expected PIPELINE_AUTH_SECRET 'supersecret', got '%s'", config.AuthSecret)
	}
	if !config.Authenticated() {
		t.Error("Expected configuration with credentials to be authenticated")
	}
	if config.StoreDir != "/var/lib/pipeline/jobs" {
		t.Errorf("Expected PIPELINE_STORE_DIR '/var/lib/pipeline/jobs', got '%s'", config.StoreDir)
	}

	if config.LogLevel != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", config.LogLevel)
	}
	if config.LogFormat != "json" {
		t.Errorf("Expected LOG_FORMAT 'json', got '%s'", config.LogFormat)
	}
}

func TestConfig_LoadFromEnv_Defaults(t *testing.T) {
	envVars := map[string]string{
		"PIPELINE_BASE_URL": "http://localhost:8181/ws",
	}

	loader := NewLoaderWithEnv(NewMockEnvLoader(envVars))
	config, err := loader.Load()

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.StoreDir != "jobs" {
		t.Errorf("Expected default store dir 'jobs', got '%s'", config.StoreDir)
	}
	if config.GitVersioning {
		t.Error("Expected git versioning to default to disabled")
	}
	if config.RequestTimeout != 30*time.Second {
		t.Errorf("Expected default request timeout 30s, got %v", config.RequestTimeout)
	}
	if config.LogLevel != "info" {
		t.Errorf("Expected default LOG_LEVEL 'info', got '%s'", config.LogLevel)
	}
	if config.LogFormat != "text" {
		t.Errorf("Expected default LOG_FORMAT 'text', got '%s'", config.LogFormat)
	}
	if config.Authenticated() {
		t.Error("Expected configuration without credentials to be unauthenticated")
	}
}

func TestConfig_LoadFromEnv_MissingBaseURL(t *testing.T) {
	loader := NewLoaderWithEnv(NewMockEnvLoader(map[string]string{}))
	_, err := loader.Load()

	if err == nil {
		t.Fatal("Expected validation error for missing base URL")
	}
	if !strings.Contains(err.Error(), "PIPELINE_BASE_URL is required") {
		t.Errorf("Expected PIPELINE_BASE_URL error, got: %v", err)
	}
}

func TestConfig_LoadFromEnv_InvalidBaseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no scheme", "pipeline.example.org/ws"},
		{"wrong scheme", "ftp://pipeline.example.org/ws"},
		{"no host", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoaderWithEnv(NewMockEnvLoader(map[string]string{
				"PIPELINE_BASE_URL": tt.url,
			}))
			_, err := loader.Load()
			if err == nil {
				t.Fatalf("Expected validation error for URL %q", tt.url)
			}
			if !strings.Contains(err.Error(), "PIPELINE_BASE_URL is invalid") {
				t.Errorf("Expected PIPELINE_BASE_URL error, got: %v", err)
			}
		})
	}
}

func TestConfig_LoadFromEnv_PartialCredentials(t *testing.T) {
	loader := NewLoaderWithEnv(NewMockEnvLoader(map[string]string{
		"PIPELINE_BASE_URL": "http://localhost:8181/ws",
		"PIPELINE_AUTH_ID":  "clientid",
	}))
	_, err := loader.Load()

	if err == nil {
		t.Fatal("Expected validation error for partial credentials")
	}
	if !strings.Contains(err.Error(), "must be set together") {
		t.Errorf("Expected paired-credentials error, got: %v", err)
	}
}

func TestConfig_LoadFromEnv_InvalidLogLevel(t *testing.T) {
	loader := NewLoaderWithEnv(NewMockEnvLoader(map[string]string{
		"PIPELINE_BASE_URL": "http://localhost:8181/ws",
		"LOG_LEVEL":         "verbose",
	}))
	_, err := loader.Load()

	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "LOG_LEVEL is invalid") {
		t.Errorf("Expected LOG_LEVEL error, got: %v", err)
	}
}

func TestConfig_LoadFromEnv_InvalidTimeoutFallsBack(t *testing.T) {
	loader := NewLoaderWithEnv(NewMockEnvLoader(map[string]string{
		"PIPELINE_BASE_URL":        "http://localhost:8181/ws",
		"PIPELINE_REQUEST_TIMEOUT": "not-a-duration",
	}))
	config, err := loader.Load()

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.RequestTimeout != 30*time.Second {
		t.Errorf("Expected fallback to 30s, got %v", config.RequestTimeout)
	}
}

func TestValidationError_ListsAllProblems(t *testing.T) {
	loader := NewLoaderWithEnv(NewMockEnvLoader(map[string]string{
		"LOG_LEVEL":  "verbose",
		"LOG_FORMAT": "xml",
	}))
	_, err := loader.Load()

	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"PIPELINE_BASE_URL", "LOG_LEVEL", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got: %v", want, err)
		}
	}
}
