package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipelinekit/pipeline-client/pkg/script"
)

// scriptsCmd represents the scripts command
var scriptsCmd = &cobra.Command{
	Use:   "scripts [script-id]",
	Short: "List available conversion scripts or show one script's arguments",
	Example: `  # List every script the service offers
  pipeline-client scripts

  # Show the arguments of one script
  pipeline-client scripts dtbook-to-epub3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScripts,
}

func runScripts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ws, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		s, err := ws.Script(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch script: %w", err)
		}
		printScript(s)
		return nil
	}

	scripts, err := ws.Scripts(context.Background())
	if err != nil {
		return fmt.Errorf("failed to fetch scripts: %w", err)
	}

	fmt.Printf("📜 %d script(s) available:\n", len(scripts))
	for _, s := range scripts {
		fmt.Printf("   %-30s %s\n", s.ID, s.Nicename)
	}
	return nil
}

func printScript(s *script.Script) {
	fmt.Printf("📜 %s — %s\n", s.ID, s.Nicename)
	if s.Description != "" {
		fmt.Printf("   %s\n", s.Description)
	}
	if s.Homepage != "" {
		fmt.Printf("   Homepage: %s\n", s.Homepage)
	}

	if len(s.Inputs()) > 0 {
		fmt.Println("\n   Inputs:")
		for _, a := range s.Inputs() {
			printArgument(a)
		}
	}
	if len(s.Options()) > 0 {
		fmt.Println("\n   Options:")
		for _, a := range s.Options() {
			printArgument(a)
		}
	}
	if len(s.Outputs()) > 0 {
		fmt.Println("\n   Outputs:")
		for _, a := range s.Outputs() {
			printArgument(a)
		}
	}
}

func printArgument(a *script.ArgumentDefinition) {
	attrs := []string{a.Type}
	if a.Required {
		attrs = append(attrs, "required")
	}
	if a.Sequence {
		attrs = append(attrs, "sequence")
	}
	if len(a.MediaTypes) > 0 {
		attrs = append(attrs, strings.Join(a.MediaTypes, ","))
	}
	fmt.Printf("     %-25s (%s)\n", a.Name, strings.Join(attrs, ", "))
}

func init() {
	rootCmd.AddCommand(scriptsCmd)
}
