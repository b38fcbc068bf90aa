package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// aliveCmd represents the alive command
var aliveCmd = &cobra.Command{
	Use:   "alive",
	Short: "Check whether the Pipeline 2 web service is reachable",
	Example: `  # Check the configured service
  pipeline-client alive`,
	RunE: runAlive,
}

func runAlive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ws, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("🔗 Checking service at %s...\n", cfg.BaseURL)
	alive, err := ws.Alive(context.Background())
	if err != nil {
		return fmt.Errorf("service is not reachable: %w", err)
	}

	fmt.Println("✅ Service is alive")
	fmt.Printf("   Mode:           %s\n", alive.Mode)
	fmt.Printf("   Version:        %s\n", alive.Version)
	fmt.Printf("   Authentication: %v\n", alive.Authentication)
	return nil
}

func init() {
	rootCmd.AddCommand(aliveCmd)
}
