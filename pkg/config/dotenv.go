package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DotEnvLoader implements Provider, reading .env files before the process
// environment so a project-local file wins over inherited variables.
type DotEnvLoader struct {
	*Loader
	envFiles []string
}

// NewDotEnvLoader creates a loader that reads the given .env files. With no
// arguments it looks for .env in the current directory.
func NewDotEnvLoader(envFiles ...string) Provider {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	return &DotEnvLoader{
		Loader:   &Loader{envLoader: &OSEnvLoader{}},
		envFiles: envFiles,
	}
}

// Load applies every existing .env file on top of the process environment,
// then loads and validates the configuration. Missing files are skipped.
func (d *DotEnvLoader) Load() (*Config, error) {
	existing := []string{}
	for _, envFile := range d.envFiles {
		if _, err := os.Stat(envFile); err == nil {
			existing = append(existing, envFile)
		}
	}

	// Overload, not Load: file values must override variables already in
	// the environment.
	if len(existing) > 0 {
		if err := godotenv.Overload(existing...); err != nil {
			return nil, NewEnvFileError(strings.Join(existing, ", "), err)
		}
	}

	return d.LoadFromEnv()
}

// EnvFileError represents a failure reading or parsing a .env file.
type EnvFileError struct {
	FilePath string
	Err      error
}

func NewEnvFileError(filePath string, err error) *EnvFileError {
	return &EnvFileError{
		FilePath: filePath,
		Err:      err,
	}
}

func (e *EnvFileError) Error() string {
	return "failed to load env file '" + e.FilePath + "': " + e.Err.Error()
}

func (e *EnvFileError) Unwrap() error {
	return e.Err
}
