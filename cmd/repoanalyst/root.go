package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "repoanalyst",
	Short: "Ask questions about a source repository and get cited, judged answers",
	Long: `repoanalyst indexes a source repository into an embedding index and answers
natural-language questions about it. Answers cite file locations, are checked
by deterministic validation rules, and can be graded by an LLM judge that
retries weak answers before giving up.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ./config.yaml, then ~/.config/repoanalyst/config.yaml)")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(infoCmd)
}
