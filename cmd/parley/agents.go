package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Check the agent roster",
	Long: `Loads every configured agent and reports its status.

Each agent is loaded from <agents.dir>/<name>_assistant_config.yaml.
Agents with missing or malformed configuration are flagged; the chat
runs with whatever subset loads cleanly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		failures := make(map[string]error)
		registry := config.NewAssistantRegistry(cfg.Agents.Dir)
		registry.LoadAll(cfg.Agents.Names, func(name string, err error) {
			failures[name] = err
		})

		for _, name := range cfg.Agents.Names {
			if err, broken := failures[name]; broken {
				printStatus("✗", fmt.Sprintf("%s: %v", name, err), color.FgRed)
				continue
			}
			agent := registry.Get(name)
			detail := name
			if agent.Role != "" {
				detail = fmt.Sprintf("%s (%s)", name, agent.Role)
			}
			printStatus("✓", detail, color.FgGreen)
		}

		key, err := config.GetAPIKey(cfg)
		if err != nil {
			printStatus("⚠", "no Anthropic API key configured", color.FgYellow)
			return nil
		}
		if err := config.ValidateAPIKey(key); err != nil {
			printStatus("⚠", fmt.Sprintf("API key (%s): %v", config.GetAPIKeySource(cfg), err), color.FgYellow)
			return nil
		}
		printStatus("✓", fmt.Sprintf("API key %s from %s",
			config.MaskAPIKey(key), config.GetAPIKeySource(cfg)), color.FgGreen)
		return nil
	},
}

// printStatus prints a colored status line.
func printStatus(symbol, message string, attr color.Attribute) {
	c := color.New(attr)
	c.Fprintf(os.Stdout, "%s %s\n", symbol, message)
}
