package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job from the service and the local store",
	Example: `  # Delete everywhere
  pipeline-client delete job1

  # Only drop the local copy
  pipeline-client delete job1 --local-only`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	localOnly, _ := cmd.Flags().GetBool("local-only")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if !localOnly {
		ws, err := newClient(cfg, logger)
		if err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleting job %s from the service...\n", jobID)
		if err := ws.DeleteJob(context.Background(), jobID); err != nil {
			return fmt.Errorf("failed to delete job from service: %w", err)
		}
	}

	st, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	if err := st.Delete(jobID); err != nil {
		return fmt.Errorf("failed to delete job from store: %w", err)
	}

	fmt.Printf("✅ Job %s deleted\n", jobID)
	return nil
}

func init() {
	deleteCmd.Flags().Bool("local-only", false, "Delete only the local copy, leave the service untouched")
	rootCmd.AddCommand(deleteCmd)
}
