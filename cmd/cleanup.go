package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	checkmark = "✓"
)

var (
	cleanupDryRun bool
	cleanupForce  bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired reports and obsolete state",
	Long: `Identify and remove data logsieve no longer needs.

The cleanup command looks for saved reports older than
output.report_retention_days and for container cursors in the state file
whose container no docker source refers to anymore. It can list this data
or remove it with confirmation.

Note: This command requires logsieve to be initialized. Run 'logsieve init' first if
you encounter configuration errors.`,
	Example: `  # List expired and obsolete data
  logsieve cleanup list

  # Preview what would be deleted (dry-run)
  logsieve cleanup execute --dry-run

  # Delete with confirmation prompt
  logsieve cleanup execute

  # Delete without confirmation
  logsieve cleanup execute --force`,
}

var cleanupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expired reports and obsolete state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			st, err := a.loadState()
			if err != nil {
				return err
			}

			plan, err := planCleanup(ctx, a, st, time.Now())
			if err != nil {
				return fmt.Errorf("failed to find obsolete data: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "🧹 Obsolete Data:")
			_, _ = fmt.Fprintln(out, "")

			if plan.Empty() {
				_, _ = fmt.Fprintf(out, "%s No obsolete data found\n", checkmark)
				_, _ = fmt.Fprintln(out, "  All storage is clean!")
				return nil
			}

			printCleanupPlan(cmd, plan, a.cfg.Output.ReportRetentionDays)
			_, _ = fmt.Fprintln(out, "")
			_, _ = fmt.Fprintln(out, "Run 'logsieve cleanup execute' to remove this data")
			return nil
		})
	},
}

var cleanupExecuteCmd = &cobra.Command{
	Use:   "execute",
	Short: "Remove expired reports and obsolete state",
	Long: `Remove expired reports and obsolete container cursors.

By default, displays what will be deleted and prompts for confirmation.
Use --dry-run to preview without deleting, or --force to skip confirmation.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			st, err := a.loadState()
			if err != nil {
				return err
			}

			now := time.Now()
			plan, err := planCleanup(ctx, a, st, now)
			if err != nil {
				return fmt.Errorf("failed to find obsolete data: %w", err)
			}

			out := cmd.OutOrStdout()
			if plan.Empty() {
				_, _ = fmt.Fprintf(out, "%s No obsolete data found\n", checkmark)
				_, _ = fmt.Fprintln(out, "  All storage is clean!")
				return nil
			}

			printCleanupPlan(cmd, plan, a.cfg.Output.ReportRetentionDays)
			_, _ = fmt.Fprintln(out, "")

			// Dry-run mode - exit without deleting
			if cleanupDryRun {
				_, _ = fmt.Fprintln(out, "🔍 DRY RUN - No changes made")
				_, _ = fmt.Fprintln(out, "   Run without --dry-run to perform the cleanup")
				return nil
			}

			// Confirmation prompt (unless --force)
			if !cleanupForce && !confirm(cmd, "⚠️  Proceed with cleanup? (y/N): ") {
				_, _ = fmt.Fprintln(out, "")
				_, _ = fmt.Fprintln(out, "❌ Cleanup canceled")
				return nil
			}

			_, _ = fmt.Fprintln(out, "")
			_, _ = fmt.Fprintln(out, "🧹 Cleaning up...")

			removed, errs := executeCleanup(a, st, plan, now)

			_, _ = fmt.Fprintln(out, "")
			_, _ = fmt.Fprintln(out, "✅ Cleanup complete")
			_, _ = fmt.Fprintf(out, "   Removed: %d item(s)\n", removed)
			if len(errs) > 0 {
				_, _ = fmt.Fprintln(out, "")
				_, _ = fmt.Fprintln(out, "⚠️  Errors encountered:")
				for _, errMsg := range errs {
					_, _ = fmt.Fprintf(out, "   - %s\n", errMsg)
				}
			}
			return nil
		})
	},
}

func printCleanupPlan(cmd *cobra.Command, plan cleanupPlan, retentionDays int) {
	out := cmd.OutOrStdout()
	if len(plan.Reports) > 0 {
		_, _ = fmt.Fprintf(out, "📄 Reports older than %d days (%d):\n", retentionDays, len(plan.Reports))
		for _, r := range plan.Reports {
			_, _ = fmt.Fprintf(out, "  • %s\n", r)
		}
	}
	if len(plan.Cursors) > 0 {
		_, _ = fmt.Fprintf(out, "🐳 Container cursors without a docker source (%d):\n", len(plan.Cursors))
		for _, c := range plan.Cursors {
			_, _ = fmt.Fprintf(out, "  • %s\n", c)
		}
	}
}

// confirm asks a yes/no question on the command's input. Anything but y/yes is a no.
func confirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)
	var response string
	if _, scanErr := fmt.Fscanln(cmd.InOrStdin(), &response); scanErr != nil {
		// Treat scan error as "no" response
		response = "n"
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.AddCommand(cleanupListCmd)
	cleanupCmd.AddCommand(cleanupExecuteCmd)

	// Global cleanup flags
	cleanupCmd.PersistentFlags().BoolVar(&cleanupDryRun, "dry-run", false, "show what would be deleted without actually deleting")
	cleanupCmd.PersistentFlags().BoolVar(&cleanupForce, "force", false, "skip confirmation prompt")
}
