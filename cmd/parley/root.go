package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Multi-agent chat orchestrator",
	Long: `Parley is a chat client that orchestrates a team of AI assistant
agents. A planner agent decomposes each request into a task list; the
tasks fan out to named worker agents over a shared conversation thread,
with one agent's output chained into another's input.

With no arguments, launches the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(versionCmd)
}
