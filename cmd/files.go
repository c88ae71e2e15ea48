package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/loader"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage the log files of the current session",
	Long: `Manage the list of log files the processing commands read when no files are
given on the command line. The list is kept in the state file across runs.`,
	Example: `  # Open two files for analysis
  logsieve files add /var/log/app/error.log /var/log/app/error.log.1.gz

  # Show the session files
  logsieve files list

  # Start over
  logsieve files clear`,
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the session files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			st, err := a.loadState()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			files := st.Files()
			if len(files) == 0 {
				_, _ = fmt.Fprintln(out, "No files in the session. Add some with 'logsieve files add'.")
				return nil
			}

			_, _ = fmt.Fprintf(out, "📎 Session files (%s):\n", st.Path())
			for _, f := range files {
				info, err := os.Stat(f)
				if err != nil {
					_, _ = fmt.Fprintf(out, "  ✗ %s (missing)\n", f)
					continue
				}
				_, _ = fmt.Fprintf(out, "  • %s (%s)\n", f, units.HumanSize(float64(info.Size())))
			}
			return nil
		})
	},
}

var filesAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Add files to the session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			st, err := a.loadState()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range args {
				info, err := os.Stat(f)
				if err != nil {
					return fmt.Errorf("cannot add %s: %w", f, err)
				}
				if !info.Mode().IsRegular() {
					return fmt.Errorf("cannot add %s: %w", f, loader.ErrNotRegularFile)
				}

				added, err := st.AddFile(f)
				if err != nil {
					return err
				}
				if added {
					_, _ = fmt.Fprintf(out, "✅ Added %s\n", f)
				} else {
					_, _ = fmt.Fprintf(out, "⚠️  %s is already in the session\n", f)
				}
			}
			return st.Save()
		})
	},
}

var filesRemoveCmd = &cobra.Command{
	Use:     "remove <file>...",
	Aliases: []string{"rm"},
	Short:   "Remove files from the session",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			st, err := a.loadState()
			if err != nil {
				return err
			}
			n := st.RemoveFiles(args...)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed %d file(s) from the session\n", n)
			return st.Save()
		})
	},
}

var filesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all files from the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			st, err := a.loadState()
			if err != nil {
				return err
			}
			n := len(st.Files())
			st.Clear()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Cleared %d file(s) from the session\n", n)
			return st.Save()
		})
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesListCmd, filesAddCmd, filesRemoveCmd, filesClearCmd)
}
