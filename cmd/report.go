package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zorak1103/logsieve/internal/notification"
	"github.com/zorak1103/logsieve/internal/pattern"
	"github.com/zorak1103/logsieve/internal/reporting"
)

// reportConfig holds the report command flags
type reportConfig struct {
	Markdown    bool
	Save        bool
	Notify      bool
	ApplyIgnore bool
}

var reportCmd = &cobra.Command{
	Use:   "report [files...]",
	Short: "Count and group the matches of the report patterns",
	Long: `Report evaluates every enabled report pattern against the log text and counts its matches.

Each pattern produces one section. Matches are grouped by the first non-empty
capture group, or by the whole match when the pattern has no groups. Values are
listed by count, most frequent first.

Ignore patterns are applied first unless --apply-ignore=false is given.
The input is selected the same way as for 'logsieve ignore'.`,
	Example: `  # Report on the session files or the active source
  logsieve report

  # Print the markdown report and save it under the reports directory
  logsieve report --markdown --save

  # Report on raw files, skipping the ignore patterns, and send a notification
  logsieve report app.log --apply-ignore=false --notify`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := validateConfigOrExit(cfg, "report"); err != nil {
		return err
	}

	rc, err := parseReportFlags(cmd)
	if err != nil {
		return err
	}

	var notifier *notification.Notifier
	if rc.Notify {
		notifier, err = notification.NewNotifier(cfg)
		if err != nil {
			return err
		}
		if !notifier.IsEnabled() {
			return fmt.Errorf("--notify given but notifications are disabled (set notification.enabled in %s)", cfg.ConfigFilePath)
		}
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	in, err := readInput(ctx, cmd, a, args)
	if err != nil {
		return err
	}

	run, err := buildReportRun(ctx, a, in, rc.ApplyIgnore)
	if err != nil {
		return err
	}
	printPatternErrors(cmd.ErrOrStderr(), pattern.KindIgnore, run.IgnoreErrors)
	printPatternErrors(cmd.ErrOrStderr(), pattern.KindReport, run.Result.Errors)

	out := cmd.OutOrStdout()
	markdown := reporting.RenderMarkdown(run.Result, run.Meta)

	if rc.Markdown {
		_, _ = fmt.Fprint(out, markdown)
	} else {
		if run.Result.Empty() {
			_, _ = fmt.Fprintf(out, "%s No report pattern matched (%d lines analyzed)\n", checkmark, run.Meta.Lines)
		}
		if err := reporting.RenderTable(out, run.Result); err != nil {
			return err
		}
	}

	if rc.Save {
		path, err := reporting.SaveReport(cfg.Output.ReportsDir, in.Source, markdown)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "💾 Report saved: %s\n", path)
	}

	if notifier != nil {
		title := in.Source
		if title == "" {
			title = "ad-hoc"
		}
		if err := notifier.SendReportSummary(title, run.Result); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "🔔 Notification sent")
	}

	return nil
}

func parseReportFlags(cmd *cobra.Command) (reportConfig, error) {
	var rc reportConfig
	var err error

	if rc.Markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return rc, fmt.Errorf("failed to get markdown flag: %w", err)
	}
	if rc.Save, err = cmd.Flags().GetBool("save"); err != nil {
		return rc, fmt.Errorf("failed to get save flag: %w", err)
	}
	if rc.Notify, err = cmd.Flags().GetBool("notify"); err != nil {
		return rc, fmt.Errorf("failed to get notify flag: %w", err)
	}
	if rc.ApplyIgnore, err = cmd.Flags().GetBool("apply-ignore"); err != nil {
		return rc, fmt.Errorf("failed to get apply-ignore flag: %w", err)
	}
	return rc, nil
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(reportCmd)

	addInputFlags(reportCmd)
	reportCmd.Flags().Bool("markdown", false, "Print the report as markdown instead of tables")
	reportCmd.Flags().Bool("save", false, "Save the markdown report under the reports directory")
	reportCmd.Flags().Bool("notify", false, "Send a summary via the configured notification URL")
	reportCmd.Flags().Bool("apply-ignore", true, "Remove ignored lines before building the report")
}
