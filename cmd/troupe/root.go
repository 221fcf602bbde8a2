package main

import (
	"os"

	"github.com/spf13/cobra"
)

var debugLogPath string

var rootCmd = &cobra.Command{
	Use:   "troupe",
	Short: "Multi-character dialogue generation",
	Long: `Troupe turns one question into a short scene: every requested
character answers in voice, aware of what the others already said.

Core capabilities:
- Classifies question complexity to size the token budget
- Composes character sheets and relationship-aware prompts
- Streams turns and emits them the moment they complete
- Deduplicates retried output so nobody speaks twice
- Repairs missing turns so every character is represented`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&debugLogPath, "debug-log", "", "Write a debug log to this path")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(versionCmd)
}
