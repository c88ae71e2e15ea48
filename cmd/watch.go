package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zorak1103/logsieve/internal/loader"
	"github.com/zorak1103/logsieve/internal/pattern"
	"github.com/zorak1103/logsieve/internal/reporting"
	"github.com/zorak1103/logsieve/internal/source"
	"github.com/zorak1103/logsieve/internal/watch"
)

const (
	watchModeIgnore = "ignore"
	watchModeReport = "report"
)

// watchConfig holds the watch command flags
type watchConfig struct {
	Dir      string
	Glob     string
	Mode     string
	Save     bool
	SourceID int64
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run ignore or report whenever log files change",
	Long: `Watch a log directory and re-run 'ignore' or 'report' over its files after every
burst of changes. Events are debounced by watch.debounce from the configuration.

The directory is --dir, or the path of the local source given with --source,
or the path of the active source. Stop with Ctrl+C.`,
	Example: `  # Report on the active local source whenever it changes
  logsieve watch

  # Print the cleaned text of *.log files in a directory on every change
  logsieve watch --dir /var/log/app --glob '*.log' --mode ignore`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()
	if err := validateConfigOrExit(cfg, "watch"); err != nil {
		return err
	}

	wc, err := parseWatchFlags(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sourceName, err := resolveWatchDir(ctx, a, &wc)
	if err != nil {
		return err
	}

	w, err := watch.New(watch.Options{
		Dir:      wc.Dir,
		Glob:     wc.Glob,
		Debounce: cfg.Watch.Debounce,
		Logger:   a.logger,
	}, func(ctx context.Context, paths []string) {
		names := make([]string, len(paths))
		for i, p := range paths {
			names[i] = filepath.Base(p)
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\n🔄 Changed: %s\n", strings.Join(names, ", "))
		if err := watchCycle(ctx, cmd, a, wc, sourceName); err != nil {
			a.logger.Error("watch cycle failed", zap.Error(err))
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
		}
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "👀 Watching %s (%s) in %s mode, press Ctrl+C to stop\n", wc.Dir, wc.Glob, wc.Mode)
	if err := watchCycle(ctx, cmd, a, wc, sourceName); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
	}

	return w.Run(ctx)
}

// resolveWatchDir fills in wc.Dir from the selected source when no --dir was given
// and returns the source name used for saved reports.
func resolveWatchDir(ctx context.Context, a *app, wc *watchConfig) (string, error) {
	if wc.Dir != "" {
		return filepath.Base(filepath.Clean(wc.Dir)), nil
	}

	s, err := a.resolveSource(ctx, wc.SourceID)
	if err != nil {
		return "", err
	}

	switch s.Type {
	case source.TypeLocal:
		wc.Dir = s.LocalPath
	case source.TypeRemote:
		wc.Dir = downloadDir(a, s)
	default:
		return "", fmt.Errorf("source %q is a %s source, watch needs a directory (use --dir)", s.Name, s.Type)
	}
	return s.Name, nil
}

// watchCycle processes all matching files of the watched directory once.
func watchCycle(ctx context.Context, cmd *cobra.Command, a *app, wc watchConfig, sourceName string) error {
	paths, err := loader.ListDir(wc.Dir, wc.Glob)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "⏳ No files matching %q in %s yet\n", wc.Glob, wc.Dir)
		return nil
	}

	in, err := readFiles(ctx, sourceName, paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch wc.Mode {
	case watchModeIgnore:
		res, err := removeIgnored(ctx, a, in.Text)
		if err != nil {
			return err
		}
		printPatternErrors(cmd.ErrOrStderr(), pattern.KindIgnore, res.Errors)
		if res.Text != "" {
			_, _ = fmt.Fprintln(out, res.Text)
		}
		printIgnoreStats(cmd.ErrOrStderr(), res.Stats)

	case watchModeReport:
		run, err := buildReportRun(ctx, a, in, true)
		if err != nil {
			return err
		}
		printPatternErrors(cmd.ErrOrStderr(), pattern.KindIgnore, run.IgnoreErrors)
		printPatternErrors(cmd.ErrOrStderr(), pattern.KindReport, run.Result.Errors)

		_, _ = fmt.Fprintf(out, "📋 %s, %d line(s) at %s\n", sourceName, run.Meta.Lines, run.Meta.GeneratedAt.Format(time.TimeOnly))
		if err := reporting.RenderTable(out, run.Result); err != nil {
			return err
		}
		if wc.Save {
			path, err := reporting.SaveReport(a.cfg.Output.ReportsDir, sourceName, reporting.RenderMarkdown(run.Result, run.Meta))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "💾 Report saved: %s\n", path)
		}
	}
	return nil
}

func parseWatchFlags(cmd *cobra.Command) (watchConfig, error) {
	var wc watchConfig
	var err error

	if wc.Dir, err = cmd.Flags().GetString("dir"); err != nil {
		return wc, fmt.Errorf("failed to get dir flag: %w", err)
	}
	if wc.Glob, err = cmd.Flags().GetString("glob"); err != nil {
		return wc, fmt.Errorf("failed to get glob flag: %w", err)
	}
	if wc.Mode, err = cmd.Flags().GetString("mode"); err != nil {
		return wc, fmt.Errorf("failed to get mode flag: %w", err)
	}
	if wc.Save, err = cmd.Flags().GetBool("save"); err != nil {
		return wc, fmt.Errorf("failed to get save flag: %w", err)
	}
	if wc.SourceID, err = cmd.Flags().GetInt64("source"); err != nil {
		return wc, fmt.Errorf("failed to get source flag: %w", err)
	}

	if wc.Mode != watchModeIgnore && wc.Mode != watchModeReport {
		return wc, fmt.Errorf("invalid mode %q: must be %q or %q", wc.Mode, watchModeIgnore, watchModeReport)
	}
	return wc, nil
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("dir", "", "Directory to watch (default: the source's directory)")
	watchCmd.Flags().String("glob", defaultFileGlob, "File name pattern of the watched files")
	watchCmd.Flags().String("mode", watchModeReport, "What to run on changes: report or ignore")
	watchCmd.Flags().Bool("save", false, "Save a markdown report after every run (report mode)")
	watchCmd.Flags().Int64("source", 0, "Source ID (default: the active source)")
}
