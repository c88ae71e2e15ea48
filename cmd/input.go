package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zorak1103/logsieve/internal/docker"
	"github.com/zorak1103/logsieve/internal/loader"
	"github.com/zorak1103/logsieve/internal/sanitize"
	"github.com/zorak1103/logsieve/internal/source"
)

const (
	stdinArg        = "-"
	defaultTail     = 1000
	defaultFileGlob = "*"
)

// errNoInput is returned when neither arguments, session files nor a source provide text.
var errNoInput = errors.New("no log input: pass files, '-' for stdin, add files with 'logsieve files add' or activate a source")

// logInput is the text a processing command works on and where it came from.
type logInput struct {
	Text   string
	Files  []string
	Source string // Source name, empty for ad-hoc input
}

// inputConfig holds the flags that select the log input.
type inputConfig struct {
	SourceID int64
	Glob     string
	Tail     int
}

// addInputFlags registers the input selection flags on a processing command.
func addInputFlags(c *cobra.Command) {
	c.Flags().Int64("source", 0, "Read from the source with this ID instead of the session files or the active source")
	c.Flags().String("glob", defaultFileGlob, "File name pattern for local and downloaded sources")
	c.Flags().Int("tail", defaultTail, "Number of log lines to read from docker sources")
}

func parseInputFlags(c *cobra.Command) (inputConfig, error) {
	var ic inputConfig
	var err error

	if ic.SourceID, err = c.Flags().GetInt64("source"); err != nil {
		return ic, fmt.Errorf("failed to get source flag: %w", err)
	}
	if ic.Glob, err = c.Flags().GetString("glob"); err != nil {
		return ic, fmt.Errorf("failed to get glob flag: %w", err)
	}
	if ic.Tail, err = c.Flags().GetInt("tail"); err != nil {
		return ic, fmt.Errorf("failed to get tail flag: %w", err)
	}
	return ic, nil
}

// readInput resolves the log text. Precedence: file arguments ("-" reads stdin),
// --source, the session files, then the active source.
func readInput(ctx context.Context, c *cobra.Command, a *app, args []string) (logInput, error) {
	ic, err := parseInputFlags(c)
	if err != nil {
		return logInput{}, err
	}

	if len(args) == 1 && args[0] == stdinArg {
		text, _, err := loader.Decompress(c.InOrStdin())
		if err != nil {
			return logInput{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		return logInput{Text: text}, nil
	}

	if len(args) > 0 {
		return readFiles(ctx, "", args)
	}

	if ic.SourceID == 0 {
		st, err := a.loadState()
		if err != nil {
			return logInput{}, err
		}
		if files := st.Files(); len(files) > 0 {
			return readFiles(ctx, "", files)
		}
	}

	s, err := a.resolveSource(ctx, ic.SourceID)
	if err != nil {
		if errors.Is(err, source.ErrNoActive) {
			return logInput{}, errNoInput
		}
		return logInput{}, err
	}
	return readSource(ctx, a, s, ic)
}

func readFiles(ctx context.Context, sourceName string, paths []string) (logInput, error) {
	text, err := loader.Load(ctx, paths...)
	if err != nil {
		return logInput{}, err
	}
	return logInput{Text: text, Files: paths, Source: sourceName}, nil
}

// readSource loads the text of a configured source.
func readSource(ctx context.Context, a *app, s source.Source, ic inputConfig) (logInput, error) {
	a.logger.Debug("reading source", zap.String("source", s.Name), zap.Stringer("type", s.Type))

	switch s.Type {
	case source.TypeLocal:
		paths, err := loader.ListDir(s.LocalPath, ic.Glob)
		if err != nil {
			return logInput{}, err
		}
		if len(paths) == 0 {
			return logInput{}, fmt.Errorf("no files matching %q in %s", ic.Glob, s.LocalPath)
		}
		return readFiles(ctx, s.Name, paths)

	case source.TypeRemote:
		dir := downloadDir(a, s)
		paths, err := loader.ListDir(dir, ic.Glob)
		if err != nil || len(paths) == 0 {
			return logInput{}, fmt.Errorf("no downloaded files for source %q in %s: run 'logsieve fetch download' first", s.Name, dir)
		}
		return readFiles(ctx, s.Name, paths)

	case source.TypeDocker:
		entries, err := readContainerTail(ctx, a, s.ContainerName, ic.Tail)
		if err != nil {
			return logInput{}, err
		}
		return logInput{Text: docker.FormatText(entries, false), Source: s.Name}, nil

	default:
		return logInput{}, fmt.Errorf("%w: unknown type %d", source.ErrInvalidSource, int(s.Type))
	}
}

func readContainerTail(ctx context.Context, a *app, containerName string, n int) ([]docker.LogEntry, error) {
	cli, err := newDockerClient(a.cfg.Docker.SocketPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cli.Close()
	}()

	return cli.ReadLogsTail(ctx, containerName, n)
}

// downloadDir is where files of a remote or docker source are stored locally.
// A remote source's LocalPath overrides the default.
func downloadDir(a *app, s source.Source) string {
	if s.Type == source.TypeRemote && s.LocalPath != "" {
		return s.LocalPath
	}
	return filepath.Join(a.cfg.Remote.DownloadDir, sanitize.Name(s.Name))
}
