package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zorak1103/logsieve/internal/docker"
	"github.com/zorak1103/logsieve/internal/loader"
	"github.com/zorak1103/logsieve/internal/remote"
	"github.com/zorak1103/logsieve/internal/sanitize"
	"github.com/zorak1103/logsieve/internal/source"
	"github.com/zorak1103/logsieve/internal/state"
)

const containerLogLayout = "2006-01-02_15-04-05"

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "List and download log files of a source",
	Long: `Fetch talks to the source behind --source (default: the active source).

For remote log servers it lists the files the server offers and downloads them,
gunzipping compressed files. For docker sources it lists containers and saves
the container logs to a file; a repeated download only fetches lines newer than
the last one saved.`,
	Example: `  # List the files of the active source
  logsieve fetch list

  # Download two files and add them to the session
  logsieve fetch download error.log debug.log.gz --add

  # Download every file a remote server offers
  logsieve fetch download --all --source 2`,
}

var fetchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the log files a source offers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := cmd.Flags().GetInt64("source")
		if err != nil {
			return fmt.Errorf("failed to get source flag: %w", err)
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			s, err := a.resolveSource(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "📂 %s\n", s)

			switch s.Type {
			case source.TypeLocal:
				return listLocalFiles(out, s)
			case source.TypeRemote:
				return listRemoteFiles(ctx, out, a, s)
			case source.TypeDocker:
				return listContainers(ctx, out, a, s)
			default:
				return fmt.Errorf("%w: unknown type %d", source.ErrInvalidSource, int(s.Type))
			}
		})
	},
}

var fetchDownloadCmd = &cobra.Command{
	Use:   "download [files...]",
	Short: "Download log files of a remote or docker source",
	Long: `Download log files from a remote log server into the download directory, or save
the logs of a docker source's container. With --add the saved files are added to the
session so that 'logsieve ignore' and 'logsieve report' pick them up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmd.Flags().GetInt64("source")
		if err != nil {
			return fmt.Errorf("failed to get source flag: %w", err)
		}
		all, err := cmd.Flags().GetBool("all")
		if err != nil {
			return fmt.Errorf("failed to get all flag: %w", err)
		}
		add, err := cmd.Flags().GetBool("add")
		if err != nil {
			return fmt.Errorf("failed to get add flag: %w", err)
		}
		full, err := cmd.Flags().GetBool("full")
		if err != nil {
			return fmt.Errorf("failed to get full flag: %w", err)
		}
		tail, err := cmd.Flags().GetInt("tail")
		if err != nil {
			return fmt.Errorf("failed to get tail flag: %w", err)
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			s, err := a.resolveSource(ctx, id)
			if err != nil {
				return err
			}

			st, err := a.loadState()
			if err != nil {
				return err
			}

			var saved []string
			switch s.Type {
			case source.TypeLocal:
				return fmt.Errorf("source %q is a local directory and is read in place, nothing to download", s.Name)
			case source.TypeRemote:
				if len(args) == 0 && !all {
					return fmt.Errorf("name the files to download or pass --all (see 'logsieve fetch list')")
				}
				saved, err = downloadRemote(ctx, cmd, a, s, args)
			case source.TypeDocker:
				var path string
				path, err = saveContainerLogs(ctx, cmd, a, st, s, full, tail)
				if path != "" {
					saved = append(saved, path)
				}
			default:
				return fmt.Errorf("%w: unknown type %d", source.ErrInvalidSource, int(s.Type))
			}
			if err != nil {
				return err
			}

			if add {
				for _, p := range saved {
					if _, err := st.AddFile(p); err != nil {
						return err
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "📎 Added %d file(s) to the session\n", len(saved))
			}
			return st.Save()
		})
	},
}

func listLocalFiles(out io.Writer, s source.Source) error {
	paths, err := loader.ListDir(s.LocalPath, defaultFileGlob)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "File\tSize\tModified")
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue // File vanished between listing and stat
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", filepath.Base(p), units.HumanSize(float64(info.Size())), info.ModTime().Format(time.DateTime))
	}
	_ = w.Flush() // Flush buffered output; error not actionable in CLI display context
	_, _ = fmt.Fprintf(out, "%d file(s)\n", len(paths))
	return nil
}

func listRemoteFiles(ctx context.Context, out io.Writer, a *app, s source.Source) error {
	client, err := remote.FromSource(s, a.remoteOptions())
	if err != nil {
		return err
	}

	names, err := client.ListLogFiles(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		_, _ = fmt.Fprintf(out, "  • %s\n", name)
	}
	_, _ = fmt.Fprintf(out, "%d file(s)\n", len(names))
	return nil
}

func listContainers(ctx context.Context, out io.Writer, a *app, s source.Source) error {
	cli, err := newDockerClient(a.cfg.Docker.SocketPath)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }() // Close client; error not actionable in defer context

	containers, err := cli.ListContainers(ctx, docker.FilterOptions{IncludeAll: true})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "Source\tContainer ID\tName\tState\tImage")
	for _, c := range containers {
		marker := " "
		if c.Name == s.ContainerName {
			marker = checkmark
		}
		shortID := c.ID
		if len(shortID) > 12 {
			shortID = shortID[:12]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, shortID, c.Name, c.State, c.Image)
	}
	_ = w.Flush() // Flush buffered output; error not actionable in CLI display context
	return nil
}

// downloadRemote downloads names (all offered files when empty) and returns the saved paths.
func downloadRemote(ctx context.Context, cmd *cobra.Command, a *app, s source.Source, names []string) ([]string, error) {
	client, err := remote.FromSource(s, a.remoteOptions())
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		if names, err = client.ListLogFiles(ctx); err != nil {
			return nil, err
		}
	}

	dir := downloadDir(a, s)
	saved := make([]string, 0, len(names))
	for _, name := range names {
		path, n, err := client.DownloadToFile(ctx, name, dir, progressPrinter(cmd.ErrOrStderr(), name))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return saved, fmt.Errorf("failed to download %s: %w", name, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %s -> %s (%s)\n", name, path, units.HumanSize(float64(n)))
		saved = append(saved, path)
	}
	return saved, nil
}

// progressPrinter redraws a single progress line for a download.
func progressPrinter(w io.Writer, name string) func(received, total int64) {
	return func(received, total int64) {
		if total > 0 {
			_, _ = fmt.Fprintf(w, "\r⬇️  %s: %s / %s", name, units.HumanSize(float64(received)), units.HumanSize(float64(total)))
			return
		}
		_, _ = fmt.Fprintf(w, "\r⬇️  %s: %s", name, units.HumanSize(float64(received)))
	}
}

// saveContainerLogs writes the container's new log lines to a file in the download
// directory and advances the container's cursor in the session state.
// It returns an empty path when there were no new lines.
func saveContainerLogs(ctx context.Context, cmd *cobra.Command, a *app, st *state.State, s source.Source, full bool, tail int) (string, error) {
	cli, err := newDockerClient(a.cfg.Docker.SocketPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = cli.Close() }() // Close client; error not actionable in defer context

	since, known := st.LastLog(s.ContainerName)

	var entries []docker.LogEntry
	if known && !full && !since.IsZero() {
		// Docker's since is inclusive at second granularity, so skip what was already saved
		entries, err = cli.ReadLogsSince(ctx, s.ContainerName, since)
		entries = newerThan(entries, since)
	} else {
		entries, err = cli.ReadLogsTail(ctx, s.ContainerName, tail)
	}
	if err != nil {
		return "", err
	}

	now := time.Now()
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s No new log lines for container %s\n", checkmark, s.ContainerName)
		return "", nil
	}

	dir := downloadDir(a, s)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create download directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", sanitize.Name(s.ContainerName), now.Format(containerLogLayout)))
	if err := os.WriteFile(path, []byte(docker.FormatText(entries, true)), 0o600); err != nil {
		return "", fmt.Errorf("failed to write container logs %s: %w", path, err)
	}

	if latest := docker.LatestLogTime(entries); !latest.IsZero() {
		st.UpdateContainer(s.ContainerName, now, latest)
	}

	a.logger.Debug("container logs saved",
		zap.String("container", s.ContainerName),
		zap.Int("lines", len(entries)),
		zap.String("path", path),
	)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %d line(s) of container %s -> %s\n", len(entries), s.ContainerName, path)
	return path, nil
}

func newerThan(entries []docker.LogEntry, t time.Time) []docker.LogEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Timestamp.After(t) {
			out = append(out, e)
		}
	}
	return out
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.AddCommand(fetchListCmd, fetchDownloadCmd)

	fetchCmd.PersistentFlags().Int64("source", 0, "Source ID (default: the active source)")

	fetchDownloadCmd.Flags().Bool("all", false, "Download every file the remote server offers")
	fetchDownloadCmd.Flags().Bool("add", false, "Add the saved files to the session")
	fetchDownloadCmd.Flags().Bool("full", false, "Docker: ignore the saved cursor and read the last --tail lines")
	fetchDownloadCmd.Flags().Int("tail", defaultTail, "Docker: number of lines to read without a cursor")
}
