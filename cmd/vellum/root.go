package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/common"
)

var (
	configFiles []string
	serverPort  int
	serverHost  string

	config *common.Config
	logger arbor.ILogger
)

// NewRootCmd builds the vellum command tree. Every subcommand depends on
// config/logger being populated, so PersistentPreRunE does that once
// before any subcommand's RunE runs.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vellum",
		Short:         "Job application pipeline engine",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigAndLogger()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil,
		"Configuration file path (can be specified multiple times, later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// loadConfigAndLogger runs the startup sequence in the required order:
// load config (defaults -> files -> env), apply CLI overrides, then build
// the logger from the fully-resolved config.
func loadConfigAndLogger() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("vellum.toml"); err == nil {
			configFiles = append(configFiles, "vellum.toml")
		}
	}

	loaded, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	config = loaded

	common.ApplyFlagOverrides(config, serverPort, serverHost)

	logger = common.SetupLogger(config)
	common.InitLogger(logger)
	common.PrintBanner(config, logger)
	return nil
}
