// Package storage owns the SQLite database holding log sources, patterns and app data.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	apperrors "github.com/zorak1103/logsieve/internal/errors"
)

// MemoryPath opens a private in-memory database, used by tests.
const MemoryPath = ":memory:"

const versionKey = "database_version"

// Database wraps the SQLite connection pool.
type Database struct {
	path   string
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (and creates when missing) the database at path.
// Call Migrate before using the tables.
func Open(path string, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := openSQL(path)
	if err != nil {
		return nil, &apperrors.StorageError{Path: path, Operation: "open", Err: err}
	}

	return &Database{path: path, db: db, logger: logger}, nil
}

func openSQL(path string) (*sql.DB, error) {
	sourceName := path

	// In-memory databases have no directory and take no file parameters
	if !strings.HasPrefix(sourceName, ":") {
		dir := filepath.Dir(sourceName)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory for sqlite database: %w", err)
		}

		params := url.Values{}
		params.Set("_journal_mode", "wal")
		params.Set("_synchronous", "normal")
		params.Set("_busy_timeout", "5000")

		sourceName = fmt.Sprintf("%s?%s", sourceName, params.Encode())
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if strings.HasPrefix(path, ":") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		return &apperrors.StorageError{Path: d.path, Operation: "close", Err: err}
	}
	return nil
}

// DB returns the underlying connection pool.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

// migration is one schema step. Steps run in order; the step index plus one
// is the schema version reached after it.
type migration struct {
	name       string
	statements []string
}

var migrations = []migration{
	{
		name: "create logFileSource",
		statements: []string{
			`CREATE TABLE logFileSource (
				id INTEGER PRIMARY KEY,
				type INTEGER,
				name VARCHAR(255),
				local_path VARCHAR(255),
				server_url VARCHAR(255),
				username VARCHAR(255),
				password VARCHAR(255),
				priority INTEGER DEFAULT 0
			)`,
		},
	},
	{
		name: "create pattern",
		statements: []string{
			`CREATE TABLE pattern (
				id INTEGER PRIMARY KEY,
				kind VARCHAR(16) NOT NULL,
				text TEXT NOT NULL,
				enabled INTEGER NOT NULL DEFAULT 1,
				position INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX pattern_kind_position ON pattern (kind, position)`,
		},
	},
	{
		name: "add logFileSource.container_name",
		statements: []string{
			`ALTER TABLE logFileSource ADD COLUMN container_name VARCHAR(255) DEFAULT ''`,
		},
	},
}

// SchemaVersion is the version Migrate brings the database to.
var SchemaVersion = len(migrations)

// Migrate creates the appData table and applies every missing schema step.
func (d *Database) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS appData (
		name VARCHAR(255) PRIMARY KEY,
		value VARCHAR(255)
	)`); err != nil {
		return &apperrors.StorageError{Path: d.path, Operation: "create appData", Err: err}
	}

	version, err := d.Version(ctx)
	if err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		m := migrations[i]
		if err := d.applyMigration(ctx, i+1, m); err != nil {
			return &apperrors.StorageError{Path: d.path, Operation: "migrate: " + m.name, Err: err}
		}
		d.logger.Info("database migrated", zap.Int("version", i+1), zap.String("step", m.name))
	}

	return nil
}

func (d *Database) applyMigration(ctx context.Context, version int, m migration) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `REPLACE INTO appData (name, value) VALUES (?, ?)`,
		versionKey, strconv.Itoa(version)); err != nil {
		return fmt.Errorf("store schema version: %w", err)
	}

	return tx.Commit()
}

// Version returns the stored schema version, 0 for a fresh database.
func (d *Database) Version(ctx context.Context) (int, error) {
	value, err := d.GetAppData(ctx, versionKey)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}

	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, &apperrors.StorageError{Path: d.path, Operation: "read schema version",
			Err: fmt.Errorf("invalid %s %q: %w", versionKey, value, err)}
	}
	return version, nil
}

// SetAppData stores a named value, replacing any previous value.
func (d *Database) SetAppData(ctx context.Context, name, value string) error {
	if _, err := d.db.ExecContext(ctx, `REPLACE INTO appData (name, value) VALUES (?, ?)`, name, value); err != nil {
		return &apperrors.StorageError{Path: d.path, Operation: "set app data " + name, Err: err}
	}
	return nil
}

// GetAppData returns the named value or "" when it was never set.
func (d *Database) GetAppData(ctx context.Context, name string) (string, error) {
	var value sql.NullString
	err := d.db.QueryRowContext(ctx, `SELECT value FROM appData WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &apperrors.StorageError{Path: d.path, Operation: "get app data " + name, Err: err}
	}
	return value.String, nil
}

// Reinitialize discards all data: the database file is removed, re-created and migrated.
func (d *Database) Reinitialize(ctx context.Context) error {
	if err := d.db.Close(); err != nil {
		return &apperrors.StorageError{Path: d.path, Operation: "close", Err: err}
	}

	if !strings.HasPrefix(d.path, ":") {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(d.path + suffix); err != nil && !os.IsNotExist(err) {
				return &apperrors.StorageError{Path: d.path, Operation: "remove", Err: err}
			}
		}
	}

	db, err := openSQL(d.path)
	if err != nil {
		return &apperrors.StorageError{Path: d.path, Operation: "open", Err: err}
	}
	d.db = db

	d.logger.Warn("database reinitialized", zap.String("path", d.path))

	return d.Migrate(ctx)
}
