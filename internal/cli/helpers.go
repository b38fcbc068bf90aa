package cli

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pipelinekit/pipeline-client/pkg/client"
	"github.com/pipelinekit/pipeline-client/pkg/config"
	"github.com/pipelinekit/pipeline-client/pkg/store"
)

// clientMetrics is shared by every client the CLI builds. Registered once at
// startup: MustRegister panics on a second registration.
var clientMetrics = client.NewMetrics(prometheus.DefaultRegisterer)

// loadConfig loads the .env + environment configuration, applying log flag
// overrides from the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.NewDotEnvLoader().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.LogFormat = format
	}
	return cfg, nil
}

// newLogger builds the logr sink the packages log through.
func newLogger(cfg *config.Config) logr.Logger {
	switch cfg.LogLevel {
	case "debug":
		stdr.SetVerbosity(2)
	case "info":
		stdr.SetVerbosity(1)
	default:
		stdr.SetVerbosity(0)
	}
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags))
}

// newClient builds the web service client from the configuration.
func newClient(cfg *config.Config, logger logr.Logger) (client.Client, error) {
	c, err := client.NewClient(cfg, clientMetrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create web service client: %w", err)
	}
	return c, nil
}

// newStore builds the local job store from the configuration, initializing
// git versioning when enabled.
func newStore(cfg *config.Config, logger logr.Logger) (store.Store, error) {
	var versioner store.Versioner
	if cfg.GitVersioning {
		versioner = store.NewGitVersioner("pipeline-client", "pipeline-client@automated.local")
		if err := versioner.Initialize(cfg.StoreDir); err != nil {
			return nil, fmt.Errorf("failed to initialize store versioning: %w", err)
		}
	}
	return store.NewDiskStore(cfg.StoreDir, versioner, logger), nil
}

// parseKeyValue splits a repeated name=value flag.
func parseKeyValue(arg string) (string, string, error) {
	name, value, found := strings.Cut(arg, "=")
	if !found || name == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", arg)
	}
	return name, value, nil
}
