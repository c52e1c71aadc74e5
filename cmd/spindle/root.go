package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/spindle/internal/config"
	"github.com/aretw0/spindle/internal/logging"
)

var (
	cfg    = config.Default()
	logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "spindle",
	Short: "Spindle plays branching dialog scripts",
	Long:  `Spindle loads Yarn-style dialog scripts and plays them in the terminal, over HTTP or as MCP tools.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("library") {
			cfg.Library, _ = cmd.Flags().GetString("library")
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.Log.Level = slog.LevelDebug.String()
		}
		logger = logging.NewWithOptions(logging.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
		})
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().String("library", ".", "Directory of dialog documents")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
}
