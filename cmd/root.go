// Package cmd implements the CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/config"
	"github.com/zorak1103/logsieve/internal/logging"
	"github.com/zorak1103/logsieve/internal/version"
)

var (
	cfgFile       string
	verbose       bool
	cfg           *config.Config
	errConfigLoad error
	logger        = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "logsieve",
	Short: "Pattern-based log filtering and reporting",
	Long: `logsieve loads log files and sieves them through user-defined regular expressions.

It features:
  - Ignore patterns that strip noise lines from log text
  - Report patterns that count and group matches into a report
  - Log file sources: local directories, remote log servers and Docker containers
  - Downloading (and gunzipping) log files from remote log servers
  - Watching a directory and re-running on changes
  - Markdown reports and notifications via Shoutrrr`,
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		skipConfig := cmd.Name() == "init" || cmd.Name() == "help" || cmd.Name() == "version"
		if skipConfig {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		errConfigLoad = err
		if err != nil {
			// Commands that need the config fail with validateConfigOrExit() in their RunE handlers
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Could not load config: %v\n", err)
			}
		}

		logCfg := config.LoggingConfig{Level: "warn", Format: "console"}
		if cfg != nil {
			logCfg = cfg.Logging
		}
		if verbose {
			logCfg.Level = "debug"
		}
		l, err := logging.New(logCfg, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l

		if verbose && cfg != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Loaded configuration from: %s\n", cfg.ConfigFilePath)
		}

		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync() // stderr sync errors are not actionable
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// GetConfig returns the loaded configuration or nil if not loaded.
// Must be called after rootCmd.PersistentPreRunE has executed.
func GetConfig() *config.Config {
	return cfg
}

// GetConfigLoadError returns any error encountered during config loading.
func GetConfigLoadError() error {
	return errConfigLoad
}

// IsVerbose returns whether verbose mode is enabled via the -v flag.
func IsVerbose() bool {
	return verbose
}
