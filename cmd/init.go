package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/config"
	"github.com/zorak1103/logsieve/internal/templates"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize logsieve configuration, directories and database",
	Long: `Init creates the necessary configuration files, directories and the database for logsieve.

This command will create:
  - config.yaml (sample configuration file)
  - .env (environment variable template)
  - reports/ (directory for saved reports)
  - downloads/ (directory for files fetched from remote servers)
  - the SQLite database with the pattern and source tables

The ignore and report patterns of config.yaml are copied into the database
when the pattern lists are still empty.

Run this once when setting up logsieve for the first time.`,
	Example: `  # Initialize in current directory
  logsieve init

  # Force overwrite existing files
  logsieve init --force`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return fmt.Errorf("failed to get force flag: %w", err)
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "🔧 Initializing logsieve...")

		configPath := cfgFile
		if configPath == "" {
			configPath = defaultConfigFile
		}

		files := []struct {
			name    string
			content []byte
		}{
			{configPath, templates.ConfigYAML},
			{filepath.Join(filepath.Dir(configPath), defaultEnvFile), templates.EnvFile},
		}

		for _, f := range files {
			if _, err := os.Stat(f.name); err == nil && !force {
				_, _ = fmt.Fprintf(out, "⚠️  Skipping %s (already exists, use --force to overwrite)\n", f.name)
				continue
			}

			if err := os.WriteFile(f.name, f.content, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", f.name, err)
			}

			_, _ = fmt.Fprintf(out, "✅ Created %s\n", f.name)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", configPath, err)
		}
		cfg = loaded

		dirs := []string{
			loaded.Output.ReportsDir,
			loaded.Remote.DownloadDir,
			filepath.Dir(loaded.Output.StateFile),
			filepath.Dir(loaded.Database.Path),
		}

		for _, dir := range dirs {
			if dir == "." || dir == "" {
				continue
			}
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
			_, _ = fmt.Fprintf(out, "✅ Created directory: %s\n", dir)
		}

		a, err := openApp(cmd.Context(), loaded)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer a.Close()
		_, _ = fmt.Fprintf(out, "✅ Database ready: %s\n", loaded.Database.Path)

		seeded, err := a.seedPatterns(cmd.Context())
		if err != nil {
			return err
		}
		if seeded > 0 {
			_, _ = fmt.Fprintf(out, "✅ Seeded %d pattern(s) from %s\n", seeded, configPath)
		}

		_, _ = fmt.Fprintln(out, "\n🎉 Initialization complete!")
		_, _ = fmt.Fprintln(out, "\n📝 Next steps:")
		_, _ = fmt.Fprintln(out, "   1. Add a log source: logsieve sources add --type local --name app --path /var/log/app")
		_, _ = fmt.Fprintln(out, "   2. Review the patterns: logsieve patterns list")
		_, _ = fmt.Fprintln(out, "   3. Run 'logsieve ignore' to strip noise lines")
		_, _ = fmt.Fprintln(out, "   4. Run 'logsieve report' to count what is left")

		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "overwrite existing configuration files")
}
