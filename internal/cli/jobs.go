package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs in the local store",
	Example: `  # List locally stored jobs
  pipeline-client jobs`,
	RunE: runJobs,
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := newStore(cfg, logger)
	if err != nil {
		return err
	}

	ids, err := st.ListJobs()
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(ids) == 0 {
		fmt.Printf("📭 No jobs in store %s\n", cfg.StoreDir)
		return nil
	}

	fmt.Printf("💾 %d job(s) in store %s:\n", len(ids), cfg.StoreDir)
	for _, id := range ids {
		j, err := st.Load(id)
		if err != nil {
			fmt.Printf("   %-30s (unreadable: %v)\n", id, err)
			continue
		}
		label := j.Nicename()
		if label == "" && j.Script() != nil {
			label = j.Script().ID
		}
		fmt.Printf("   %-30s %s\n", id, label)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}
