// Package watch reports changes of log files in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/zorak1103/logsieve/pkg/debounce"
)

// ErrNotDirectory is returned when the watched path is not a directory.
var ErrNotDirectory = errors.New("watch path is not a directory")

// ChangeFunc receives the sorted paths that changed since the previous call.
type ChangeFunc func(ctx context.Context, paths []string)

// Options configures a Watcher.
type Options struct {
	Dir      string
	Glob     string // Matched against base names, empty matches everything
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher watches one directory and calls a ChangeFunc after bursts of file events.
type Watcher struct {
	opts     Options
	onChange ChangeFunc
	logger   *zap.Logger

	mu      sync.Mutex
	changed map[string]struct{}
}

// New creates a watcher. The glob is validated here so Run only fails on I/O.
func New(opts Options, onChange ChangeFunc) (*Watcher, error) {
	if opts.Glob != "" {
		if _, err := filepath.Match(opts.Glob, ""); err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", opts.Glob, err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		opts:     opts,
		onChange: onChange,
		logger:   logger,
		changed:  make(map[string]struct{}),
	}, nil
}

func (w *Watcher) matches(path string) bool {
	if w.opts.Glob == "" {
		return true
	}
	ok, _ := filepath.Match(w.opts.Glob, filepath.Base(path))
	return ok
}

func (w *Watcher) record(path string) {
	w.mu.Lock()
	w.changed[path] = struct{}{}
	w.mu.Unlock()
}

// drain returns and clears the recorded paths.
func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.changed))
	for p := range w.changed {
		paths = append(paths, p)
	}
	clear(w.changed)
	slices.Sort(paths)
	return paths
}

// Run watches until ctx is canceled. A canceled context is not an error.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = fsw.Close() // error not actionable on shutdown
	}()

	if err := fsw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotDirectory, w.opts.Dir, err)
	}

	d := debounce.New(func() {
		if paths := w.drain(); len(paths) > 0 {
			w.onChange(ctx, paths)
		}
	}, w.opts.Debounce)
	d.Start()
	defer d.Stop()

	w.logger.Info("watching directory",
		zap.String("dir", w.opts.Dir),
		zap.String("glob", w.opts.Glob),
		zap.Duration("debounce", w.opts.Debounce),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.logger.Debug("file event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			w.record(event.Name)
			d.Emit()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}
