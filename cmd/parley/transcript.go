package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/conversation"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Open the rendered conversation transcript",
	Long: `Opens the HTML transcript written during chat sessions with the
OS default handler. The transcript lives under the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		path := filepath.Join(cfg.Output.Dir, "transcript.html")
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("no transcript yet at %s", path)
		}
		return conversation.OpenWithDefaultHandler(path)
	},
}
