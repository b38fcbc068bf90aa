package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pipelinekit/pipeline-client/pkg/job"
	"github.com/pipelinekit/pipeline-client/pkg/validation"
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Validate and submit a conversion job",
	Long: `Submit a conversion job to the Pipeline 2 web service.

The job's arguments are validated against the script description before
anything leaves the machine. Input files are bundled into the job context
and uploaded alongside the request. The job is recorded in the local store
so its status and results can be queried later.`,
	Example: `  # Convert a DTBook document to EPUB 3
  pipeline-client submit --script=dtbook-to-epub3 --input=source=book.xml

  # Multiple inputs and options
  pipeline-client submit --script=dtbook-to-epub3 \
    --input=source=book.xml --input=source=chapter2.xml \
    --option=assert-valid=true --nicename="My conversion"

  # Validate and store locally without contacting the service
  pipeline-client submit --script=dtbook-to-epub3 --input=source=book.xml --local-only`,
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	scriptID, _ := cmd.Flags().GetString("script")
	inputArgs, _ := cmd.Flags().GetStringArray("input")
	optionArgs, _ := cmd.Flags().GetStringArray("option")
	nicename, _ := cmd.Flags().GetString("nicename")
	priority, _ := cmd.Flags().GetString("priority")
	jobID, _ := cmd.Flags().GetString("id")
	localOnly, _ := cmd.Flags().GetBool("local-only")

	if scriptID == "" {
		return fmt.Errorf("must specify --script")
	}
	if jobID == "" {
		jobID = fmt.Sprintf("job-%s", time.Now().UTC().Format("20060102-150405"))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ws, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("📜 Fetching script %s...\n", scriptID)
	s, err := ws.Script(context.Background(), scriptID)
	if err != nil {
		return fmt.Errorf("failed to fetch script: %w", err)
	}

	j := job.New(jobID, s, logger)
	if nicename != "" {
		j.SetNicename(nicename)
	}
	if priority != "" {
		j.SetPriority(job.Priority(priority))
	}

	for _, arg := range inputArgs {
		name, file, err := parseKeyValue(arg)
		if err != nil {
			return fmt.Errorf("invalid --input: %w", err)
		}
		value := j.Input(name)
		if value == nil {
			return fmt.Errorf("script %s declares no input named %q", scriptID, name)
		}
		if err := value.AddFile(file, ""); err != nil {
			return fmt.Errorf("failed to bind input %s: %w", name, err)
		}
	}

	for _, arg := range optionArgs {
		name, v, err := parseKeyValue(arg)
		if err != nil {
			return fmt.Errorf("invalid --option: %w", err)
		}
		value := j.Option(name)
		if value == nil {
			return fmt.Errorf("script %s declares no option named %q", scriptID, name)
		}
		if value.Definition().Sequence {
			value.Append(v)
		} else {
			value.Set(v)
		}
	}

	fmt.Println("🔍 Validating job arguments...")
	if msg := validation.ValidateJob(j, ""); msg != "" {
		return fmt.Errorf("job is not valid: %s", msg)
	}

	st, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	jobDir, err := st.Save(j)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	fmt.Printf("💾 Job saved to %s\n", jobDir)

	if localOnly {
		fmt.Println("✅ Job stored locally, not submitted (--local-only)")
		return nil
	}

	fmt.Printf("🚀 Submitting job %s...\n", jobID)
	if err := ws.CreateJob(context.Background(), j); err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}

	fmt.Println("✅ Job submitted")
	fmt.Printf("   Server id: %s\n", j.ID())
	fmt.Printf("   Status:    %s\n", j.Status())
	if j.Href() != "" {
		fmt.Printf("   Location:  %s\n", j.Href())
	}
	return nil
}

func init() {
	submitCmd.Flags().String("script", "", "Script id to run (required)")
	submitCmd.Flags().StringArray("input", nil, "Input binding as name=file (repeatable)")
	submitCmd.Flags().StringArray("option", nil, "Option value as name=value (repeatable)")
	submitCmd.Flags().String("nicename", "", "Display name for the job")
	submitCmd.Flags().String("priority", "", "Job priority (low, medium, high)")
	submitCmd.Flags().String("id", "", "Local job id (generated when omitted)")
	submitCmd.Flags().Bool("local-only", false, "Validate and store the job without submitting it")
	rootCmd.AddCommand(submitCmd)
}
