package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/config"
	"github.com/zorak1103/logsieve/internal/pattern"
)

// validateConfigOrExit validates that the configuration is properly initialized
// and all required directories exist. Returns a user-friendly error if validation fails.
func validateConfigOrExit(cfg *config.Config, _ string) error {
	if cfg == nil {
		msg := "configuration not loaded\n\nlogsieve has not been initialized in this directory.\nRun 'logsieve init' to set up logsieve and create the necessary configuration"
		if errConfigLoad != nil {
			return fmt.Errorf("%s\n\ncause: %w", msg, errConfigLoad)
		}
		return fmt.Errorf("%s", msg)
	}

	// Check if config file exists (using DI approach - config file path stored in Config struct)
	if cfg.ConfigFilePath == "" {
		return fmt.Errorf("no configuration file found\n\nlogsieve requires a configuration file to run.\nRun 'logsieve init' to create config.yaml in the current directory")
	}

	var missingDirs []string

	if _, err := os.Stat(cfg.Output.ReportsDir); os.IsNotExist(err) {
		missingDirs = append(missingDirs, fmt.Sprintf("Reports directory: %s", cfg.Output.ReportsDir))
	}

	stateDir := filepath.Dir(cfg.Output.StateFile)
	if stateDir != "." && stateDir != "" {
		if _, err := os.Stat(stateDir); os.IsNotExist(err) {
			missingDirs = append(missingDirs, fmt.Sprintf("State file directory: %s", stateDir))
		}
	}

	dbDir := filepath.Dir(cfg.Database.Path)
	if dbDir != "." && dbDir != "" {
		if _, err := os.Stat(dbDir); os.IsNotExist(err) {
			missingDirs = append(missingDirs, fmt.Sprintf("Database directory: %s", dbDir))
		}
	}

	if len(missingDirs) > 0 {
		errMsg := "required directories are missing:\n\n"
		for _, dir := range missingDirs {
			errMsg += fmt.Sprintf("  - %s\n", dir)
		}
		errMsg += "\nRun 'logsieve init' to create the required directory structure"
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the effective configuration",
	Long: `Display the effective configuration that logsieve will use at runtime.

This shows the merged configuration from:
  1. Default values
  2. Configuration file (config.yaml)
  3. Environment variables (highest priority)

Sensitive values like notification URLs are masked for security.`,
	Example: `  # Show current configuration
  logsieve config

  # Show with custom config file
  logsieve config --config /etc/logsieve/config.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded\n\nTo get started, run: logsieve init")
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "=== logsieve Effective Configuration ===")
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, "💾 Database:")
		_, _ = fmt.Fprintf(out, "   Path:           %s\n", cfg.Database.Path)
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, "🔎 Processing:")
		_, _ = fmt.Fprintf(out, "   Engine:         %s\n", cfg.Engine())
		_, _ = fmt.Fprintf(out, "   Match Timeout:  %s\n", cfg.Processing.MatchTimeout)
		_, _ = fmt.Fprintf(out, "   Seed Ignore:    %s\n", describePatterns(cfg.Processing.IgnorePatterns))
		_, _ = fmt.Fprintf(out, "   Seed Report:    %s\n", describePatterns(cfg.Processing.ReportPatterns))
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, "🌐 Remote Servers:")
		_, _ = fmt.Fprintf(out, "   Timeout:        %s\n", cfg.Remote.Timeout)
		_, _ = fmt.Fprintf(out, "   Max Retries:    %d\n", cfg.Remote.MaxRetries)
		_, _ = fmt.Fprintf(out, "   Ignore SSL:     %v\n", cfg.Remote.IgnoreSSLErrors)
		_, _ = fmt.Fprintf(out, "   Download Dir:   %s\n", cfg.Remote.DownloadDir)
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, "🐳 Docker Configuration:")
		_, _ = fmt.Fprintf(out, "   Socket Path:    %s\n", cfg.Docker.SocketPath)
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, "🔔 Notification Configuration:")
		_, _ = fmt.Fprintf(out, "   Enabled:        %v\n", cfg.Notification.Enabled)
		_, _ = fmt.Fprintf(out, "   Shoutrrr URL:   %s\n", maskShoutrrrURL(cfg.Notification.ShoutrrURL))
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, "📁 Output Configuration:")
		_, _ = fmt.Fprintf(out, "   Reports Dir:    %s\n", cfg.Output.ReportsDir)
		_, _ = fmt.Fprintf(out, "   State File:     %s\n", cfg.Output.StateFile)
		_, _ = fmt.Fprintf(out, "   Report Retention: %d days\n", cfg.Output.ReportRetentionDays)
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, "👀 Watch / Logging:")
		_, _ = fmt.Fprintf(out, "   Debounce:       %s\n", cfg.Watch.Debounce)
		_, _ = fmt.Fprintf(out, "   Log Level:      %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		_, _ = fmt.Fprintln(out)

		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(configCmd)
}

// describePatterns summarizes a seed pattern list, e.g. "3 (2 enabled)".
func describePatterns(list pattern.List) string {
	if len(list) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d (%d enabled)", len(list), len(list.Enabled()))
}

// maskPassword hides a stored password while showing whether one is set.
func maskPassword(pw string) string {
	if pw == "" {
		return "❌ Not set"
	}
	return "***"
}

// maskShoutrrrURL masks sensitive parts of Shoutrrr URL
func maskShoutrrrURL(url string) string {
	if url == "" {
		return "❌ Not configured"
	}

	// Extract service type (e.g., discord://, slack://, smtp://)
	parts := strings.SplitN(url, "://", 2)
	if len(parts) != 2 {
		return "✅ Configured (invalid format)"
	}

	service := parts[0]
	// Mask the credentials/tokens
	return fmt.Sprintf("✅ Configured (%s://***)", service)
}
