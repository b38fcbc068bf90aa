package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pipelinekit/pipeline-client/pkg/job"
	"github.com/pipelinekit/pipeline-client/pkg/progress"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show a job's status, progress estimate and messages",
	Example: `  # Query the service for a job's current state
  pipeline-client status job1

  # Include the full execution log
  pipeline-client status job1 --log`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	showLog, _ := cmd.Flags().GetBool("log")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ws, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	j := job.New(jobID, nil, logger)
	if err := ws.Job(context.Background(), j); err != nil {
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	now := time.Now()
	estimator := progress.NewEstimator()
	estimator.ObserveAll(j, now)

	fmt.Printf("📊 Job %s\n", j.ID())
	fmt.Printf("   Status:   %s\n", j.Status())
	fmt.Printf("   Progress: %.0f%%\n", estimator.Estimate(j.Status(), now))
	if j.Nicename() != "" {
		fmt.Printf("   Name:     %s\n", j.Nicename())
	}
	if j.Href() != "" {
		fmt.Printf("   Location: %s\n", j.Href())
	}

	if msgs := j.Messages(); len(msgs) > 0 {
		fmt.Printf("\n   Messages:\n")
		for _, m := range msgs {
			fmt.Printf("   [%s] %s\n", m.Level, m.Text)
		}
	}

	if showLog {
		data, err := ws.Log(context.Background(), j.ID())
		if err != nil {
			return fmt.Errorf("failed to fetch log: %w", err)
		}
		fmt.Printf("\n--- execution log ---\n%s", data)
	}
	return nil
}

func init() {
	statusCmd.Flags().Bool("log", false, "Also print the job's execution log")
	rootCmd.AddCommand(statusCmd)
}
