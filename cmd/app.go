package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zorak1103/logsieve/internal/config"
	"github.com/zorak1103/logsieve/internal/docker"
	"github.com/zorak1103/logsieve/internal/pattern"
	patternstore "github.com/zorak1103/logsieve/internal/pattern/store"
	"github.com/zorak1103/logsieve/internal/processor"
	"github.com/zorak1103/logsieve/internal/remote"
	"github.com/zorak1103/logsieve/internal/source"
	"github.com/zorak1103/logsieve/internal/state"
	"github.com/zorak1103/logsieve/internal/storage"
)

// newDockerClient connects to the Docker daemon. Tests replace it.
var newDockerClient = docker.NewClient

// app bundles the services a command needs. Close releases them.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *storage.Database
	sources   *source.Registry
	patterns  patternstore.Repository
	processor *processor.Processor
}

// openApp opens and migrates the database and wires the services on top of it.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := storage.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close() // Best effort cleanup
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		sources:   source.NewRegistry(db),
		patterns:  patternstore.NewSQLiteRepository(db),
		processor: processor.New(processor.Options{
			Engine:       cfg.Engine(),
			MatchTimeout: cfg.Processing.MatchTimeout,
		}, logger),
	}, nil
}

// Close releases the database handle.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
}

// patternList returns the stored patterns of kind in order.
func (a *app) patternList(ctx context.Context, kind pattern.Kind) (pattern.List, error) {
	entries, err := a.patterns.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	return patternstore.Patterns(entries), nil
}

// loadState reads the session state file.
func (a *app) loadState() (*state.State, error) {
	st, err := state.Load(a.cfg.Output.StateFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return st, nil
}

// remoteOptions derives the remote client options from the configuration.
func (a *app) remoteOptions() remote.Options {
	return remote.Options{
		Timeout:         a.cfg.Remote.Timeout,
		IgnoreSSLErrors: a.cfg.Remote.IgnoreSSLErrors,
		MaxRetries:      a.cfg.Remote.MaxRetries,
		Logger:          a.logger,
	}
}

// resolveSource returns the source with id, or the active source when id is 0.
func (a *app) resolveSource(ctx context.Context, id int64) (source.Source, error) {
	if id > 0 {
		return a.sources.Fetch(ctx, id)
	}
	s, err := a.sources.Active(ctx)
	if err != nil {
		return source.Source{}, fmt.Errorf("no source given and no active source: %w (use --source or 'logsieve sources activate')", err)
	}
	return s, nil
}

// seedPatterns copies the configured patterns into empty pattern lists.
// Lists that already hold entries are left alone. It returns the number of
// patterns written.
func (a *app) seedPatterns(ctx context.Context) (int, error) {
	seeds := map[pattern.Kind]pattern.List{
		pattern.KindIgnore: a.cfg.Processing.IgnorePatterns,
		pattern.KindReport: a.cfg.Processing.ReportPatterns,
	}

	seeded := 0
	for _, kind := range pattern.Kinds {
		list := seeds[kind]
		if len(list) == 0 {
			continue
		}
		existing, err := a.patterns.List(ctx, kind)
		if err != nil {
			return seeded, err
		}
		if len(existing) > 0 {
			continue
		}
		if err := a.patterns.Replace(ctx, kind, list); err != nil {
			return seeded, fmt.Errorf("failed to seed %s patterns: %w", kind, err)
		}
		seeded += len(list)
	}
	return seeded, nil
}
