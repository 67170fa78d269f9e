package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/llm-guardrails/pkg/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage guardrail prompt templates",
}

var promptsExportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write the built-in prompts to a directory for editing",
	Long: `Write every built-in prompt template to dir. Point prompts_dir (or
GUARDRAILS_PROMPTS_DIR) at the directory to use edited copies; the newest
version of a template in the directory wins over the built-in one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := prompts.NewFileStore(args[0])
		if err != nil {
			return err
		}
		if err := prompts.NewLibrary(nil).Export(context.Background(), store); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Exported prompts to " + args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)
	promptsCmd.AddCommand(promptsExportCmd)
}
