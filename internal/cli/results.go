package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipelinekit/pipeline-client/pkg/job"
)

// resultsCmd represents the results command
var resultsCmd = &cobra.Command{
	Use:   "results <job-id>",
	Short: "Show the result files of a finished job",
	Example: `  # List a job's result tree
  pipeline-client results job1`,
	Args: cobra.ExactArgs(1),
	RunE: runResults,
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ws, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	j := job.New(args[0], nil, logger)
	if err := ws.Job(context.Background(), j); err != nil {
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	if !j.Status().Terminal() {
		fmt.Printf("⏳ Job %s is still %s, results are not final\n", j.ID(), j.Status())
	}

	root := j.Result()
	if root == nil {
		fmt.Printf("📭 Job %s has no results\n", j.ID())
		return nil
	}

	fmt.Printf("📦 Results for job %s (%d bytes total)\n", j.ID(), root.Size)
	for _, output := range j.OutputResults() {
		fmt.Printf("   %s (%d bytes)\n", output.Result.RelativeHref, output.Result.Size)
		for _, f := range output.Files {
			fmt.Printf("     %-40s %8d bytes  %s\n", f.RelativeHref, f.Size, f.MimeType)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}
