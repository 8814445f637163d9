// Package cmd implements the coursechat command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursechat/coursechat/internal/config"
	"github.com/coursechat/coursechat/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "coursechat",
	Short: "AI assistant for course materials",
	Long: `coursechat answers questions about ingested course materials using
retrieval-augmented generation over a PostgreSQL vector index.

Running coursechat with no subcommand starts an interactive chat.`,
	SilenceUsage: true,
	RunE:         runChat,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.AddCommand(chatCmd, askCmd, ingestCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initRuntime prepares the logger and configuration shared by all
// subcommands.
func initRuntime() (*config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		if os.Getenv("GEMINI_API_KEY") == "" {
			fmt.Fprintln(os.Stderr, "Hint: set the GEMINI_API_KEY environment variable:")
			fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		}
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, logger, nil
}
