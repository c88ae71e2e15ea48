// Package patternstore persists the ordered ignore and report pattern lists.
package patternstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zorak1103/logsieve/internal/pattern"
	"github.com/zorak1103/logsieve/internal/storage"
)

// Errors returned by the repository
var (
	ErrNotFound     = errors.New("pattern not found")
	ErrEmptyPattern = errors.New("pattern text is empty")
)

// Entry is a stored pattern with its identity and list position.
type Entry struct {
	ID       int64
	Kind     pattern.Kind
	Pattern  pattern.Pattern
	Position int // 0-based, contiguous per kind
}

// Patterns returns the patterns of entries in order.
func Patterns(entries []Entry) pattern.List {
	list := make(pattern.List, len(entries))
	for i, e := range entries {
		list[i] = e.Pattern
	}
	return list
}

// Repository stores pattern lists. Only the command layer uses it;
// processing code receives a plain pattern.List.
type Repository interface {
	List(ctx context.Context, kind pattern.Kind) ([]Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	Add(ctx context.Context, kind pattern.Kind, p pattern.Pattern) (Entry, error)
	Update(ctx context.Context, e Entry) error
	Remove(ctx context.Context, id int64) error
	Move(ctx context.Context, id int64, position int) error
	Replace(ctx context.Context, kind pattern.Kind, list pattern.List) error
}

// SQLiteRepository implements Repository on the pattern table.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository on a migrated database.
func NewSQLiteRepository(db *storage.Database) *SQLiteRepository {
	return &SQLiteRepository{db: db.DB()}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listEntries(ctx context.Context, q querier, kind pattern.Kind) ([]Entry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, kind, text, enabled, position FROM pattern WHERE kind = ? ORDER BY position ASC, id ASC`,
		string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s patterns: %w", kind, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s patterns: %w", kind, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s patterns: %w", kind, err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e    Entry
		kind string
	)
	if err := s.Scan(&e.ID, &kind, &e.Pattern.Text, &e.Pattern.Enabled, &e.Position); err != nil {
		return Entry{}, err
	}
	e.Kind = pattern.Kind(kind)
	return e, nil
}

// List returns the patterns of kind in list order.
func (r *SQLiteRepository) List(ctx context.Context, kind pattern.Kind) ([]Entry, error) {
	return listEntries(ctx, r.db, kind)
}

// Get returns a single entry.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, text, enabled, position FROM pattern WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get pattern #%d: %w", id, err)
	}
	return e, nil
}

// Add appends p to the end of the kind's list.
func (r *SQLiteRepository) Add(ctx context.Context, kind pattern.Kind, p pattern.Pattern) (Entry, error) {
	if strings.TrimSpace(p.Text) == "" {
		return Entry{}, ErrEmptyPattern
	}

	var position int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM pattern WHERE kind = ?`, string(kind)).Scan(&position); err != nil {
		return Entry{}, fmt.Errorf("add %s pattern: %w", kind, err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO pattern (kind, text, enabled, position) VALUES (?, ?, ?, ?)`,
		string(kind), p.Text, p.Enabled, position)
	if err != nil {
		return Entry{}, fmt.Errorf("add %s pattern: %w", kind, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("add %s pattern: %w", kind, err)
	}

	return Entry{ID: id, Kind: kind, Pattern: p, Position: position}, nil
}

// Update stores the text and enabled flag of e. Kind and position are not changed.
func (r *SQLiteRepository) Update(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.Pattern.Text) == "" {
		return ErrEmptyPattern
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE pattern SET text = ?, enabled = ? WHERE id = ?`,
		e.Pattern.Text, e.Pattern.Enabled, e.ID)
	if err != nil {
		return fmt.Errorf("update pattern #%d: %w", e.ID, err)
	}
	return requireAffected(res, e.ID)
}

// Remove deletes the entry and closes the gap in its list.
func (r *SQLiteRepository) Remove(ctx context.Context, id int64) error {
	e, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pattern WHERE id = ?`, id); err != nil {
			return fmt.Errorf("remove pattern #%d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE pattern SET position = position - 1 WHERE kind = ? AND position > ?`,
			string(e.Kind), e.Position); err != nil {
			return fmt.Errorf("remove pattern #%d: %w", id, err)
		}
		return nil
	})
}

// Move places the entry at position within its list. Positions outside the
// list are clamped to its ends.
func (r *SQLiteRepository) Move(ctx context.Context, id int64, position int) error {
	e, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		entries, err := listEntries(ctx, tx, e.Kind)
		if err != nil {
			return err
		}

		ordered := make([]Entry, 0, len(entries))
		for _, other := range entries {
			if other.ID != id {
				ordered = append(ordered, other)
			}
		}

		position = max(0, min(position, len(ordered)))
		ordered = slices.Insert(ordered, position, e)

		return renumber(ctx, tx, ordered)
	})
}

// Replace swaps the whole list of kind for list, used by `patterns import`.
func (r *SQLiteRepository) Replace(ctx context.Context, kind pattern.Kind, list pattern.List) error {
	for _, p := range list {
		if strings.TrimSpace(p.Text) == "" {
			return ErrEmptyPattern
		}
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pattern WHERE kind = ?`, string(kind)); err != nil {
			return fmt.Errorf("replace %s patterns: %w", kind, err)
		}
		for i, p := range list {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pattern (kind, text, enabled, position) VALUES (?, ?, ?, ?)`,
				string(kind), p.Text, p.Enabled, i); err != nil {
				return fmt.Errorf("replace %s patterns: %w", kind, err)
			}
		}
		return nil
	})
}

func renumber(ctx context.Context, tx *sql.Tx, ordered []Entry) error {
	for i, e := range ordered {
		if _, err := tx.ExecContext(ctx, `UPDATE pattern SET position = ? WHERE id = ?`, i, e.ID); err != nil {
			return fmt.Errorf("renumber pattern #%d: %w", e.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	return nil
}
