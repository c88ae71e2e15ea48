package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/pattern"
	patternstore "github.com/zorak1103/logsieve/internal/pattern/store"
	"github.com/zorak1103/logsieve/internal/storage"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect or reset the database",
	Long:  `The database stores the pattern lists, the log file sources and the active source.`,
}

var dbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database location, schema version and contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			version, err := a.db.Version(ctx)
			if err != nil {
				return err
			}
			sources, err := a.sources.Count(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "💾 Database:")
			_, _ = fmt.Fprintf(out, "   Path:           %s\n", a.db.Path())
			_, _ = fmt.Fprintf(out, "   Schema Version: %d (current: %d)\n", version, storage.SchemaVersion)
			_, _ = fmt.Fprintf(out, "   Sources:        %d\n", sources)

			for _, kind := range pattern.Kinds {
				list, err := a.patternList(ctx, kind)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "   %-15s %s\n", capitalize(string(kind))+" patterns:", describePatterns(list))
			}
			return nil
		})
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all patterns and sources",
	Long: `Reset removes the database file and creates an empty one. All patterns and
sources are lost. With --seed the patterns of config.yaml are stored again, with
--state the session files and container cursors are cleared as well.`,
	Example: `  # Reset after confirming
  logsieve db reset

  # Reset without asking and restore the configured patterns
  logsieve db reset --force --seed`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return fmt.Errorf("failed to get force flag: %w", err)
		}
		seed, err := cmd.Flags().GetBool("seed")
		if err != nil {
			return fmt.Errorf("failed to get seed flag: %w", err)
		}
		resetState, err := cmd.Flags().GetBool("state")
		if err != nil {
			return fmt.Errorf("failed to get state flag: %w", err)
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			out := cmd.OutOrStdout()
			if !force && !confirm(cmd, fmt.Sprintf("⚠️  Delete all patterns and sources in %s? (y/N): ", a.db.Path())) {
				_, _ = fmt.Fprintln(out, "")
				_, _ = fmt.Fprintln(out, "❌ Reset canceled")
				return nil
			}

			if err := a.db.Reinitialize(ctx); err != nil {
				return err
			}
			// The repository holds the handle of the removed database
			a.patterns = patternstore.NewSQLiteRepository(a.db)
			_, _ = fmt.Fprintf(out, "✅ Database reset: %s\n", a.db.Path())

			if resetState {
				st, err := a.loadState()
				if err != nil {
					return err
				}
				if err := st.ResetAll(); err != nil {
					return fmt.Errorf("failed to reset state: %w", err)
				}
				_, _ = fmt.Fprintf(out, "✅ Session state reset: %s\n", st.Path())
			}

			if seed {
				n, err := a.seedPatterns(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "✅ Seeded %d pattern(s) from the configuration\n", n)
			}
			return nil
		})
	},
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInfoCmd, dbResetCmd)

	dbResetCmd.Flags().Bool("force", false, "skip confirmation prompt")
	dbResetCmd.Flags().Bool("seed", false, "store the patterns of the configuration after the reset")
	dbResetCmd.Flags().Bool("state", false, "also clear the session files and container cursors")
}
