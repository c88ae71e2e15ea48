package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/zorak1103/logsieve/internal/storage"
)

// activeKey is the appData entry holding the active source id.
const activeKey = "active_log_file_source_id"

const selectColumns = `SELECT id, type, name, local_path, server_url, username, password,
	container_name, priority FROM logFileSource`

// Registry stores sources in the database.
type Registry struct {
	db *storage.Database
}

// NewRegistry creates a registry on a migrated database.
func NewRegistry(db *storage.Database) *Registry {
	return &Registry{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (Source, error) {
	var (
		s                                                   Source
		name, localPath, serverURL, user, pass, containerNm sql.NullString
		priority                                            sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Type, &name, &localPath, &serverURL, &user, &pass, &containerNm, &priority); err != nil {
		return Source{}, err
	}

	s.Name = name.String
	s.LocalPath = localPath.String
	s.ServerURL = serverURL.String
	s.Username = user.String
	s.Password = pass.String
	s.ContainerName = containerNm.String
	s.Priority = int(priority.Int64)
	return s, nil
}

// Fetch returns the source with id.
func (r *Registry) Fetch(ctx context.Context, id int64) (Source, error) {
	row := r.db.DB().QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	s, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	if err != nil {
		return Source{}, fmt.Errorf("fetch log file source #%d: %w", id, err)
	}
	return s, nil
}

// FetchAll returns all sources ordered by priority, then id.
func (r *Registry) FetchAll(ctx context.Context) ([]Source, error) {
	rows, err := r.db.DB().QueryContext(ctx, selectColumns+` ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetch log file sources: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sources []Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("fetch log file sources: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch log file sources: %w", err)
	}
	return sources, nil
}

// Store inserts s when it has no id yet and updates it otherwise.
// On insert the new id is written back to s.
func (r *Registry) Store(ctx context.Context, s *Source) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if s.IsStored() {
		res, err := r.db.DB().ExecContext(ctx, `UPDATE logFileSource SET name = ?, type = ?, local_path = ?,
			server_url = ?, username = ?, password = ?, container_name = ?, priority = ? WHERE id = ?`,
			s.Name, int(s.Type), s.LocalPath, s.ServerURL, s.Username, s.Password, s.ContainerName, s.Priority, s.ID)
		if err != nil {
			return fmt.Errorf("update log file source #%d: %w", s.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update log file source #%d: %w", s.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: #%d", ErrNotFound, s.ID)
		}
		return nil
	}

	res, err := r.db.DB().ExecContext(ctx, `INSERT INTO logFileSource (name, type, local_path,
		server_url, username, password, container_name, priority) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, int(s.Type), s.LocalPath, s.ServerURL, s.Username, s.Password, s.ContainerName, s.Priority)
	if err != nil {
		return fmt.Errorf("insert log file source %q: %w", s.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert log file source %q: %w", s.Name, err)
	}
	s.ID = id
	return nil
}

// Remove deletes the source. Removing the active source clears the active marker.
func (r *Registry) Remove(ctx context.Context, id int64) error {
	res, err := r.db.DB().ExecContext(ctx, `DELETE FROM logFileSource WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove log file source #%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove log file source #%d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: #%d", ErrNotFound, id)
	}

	activeID, err := r.activeID(ctx)
	if err != nil {
		return err
	}
	if activeID == id {
		return r.db.SetAppData(ctx, activeKey, "")
	}
	return nil
}

// Count returns the number of stored sources.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM logFileSource`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count log file sources: %w", err)
	}
	return n, nil
}

// Exists reports whether a source with id is stored.
func (r *Registry) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := r.Fetch(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// SetActive marks the source with id as the active one.
func (r *Registry) SetActive(ctx context.Context, id int64) error {
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	return r.db.SetAppData(ctx, activeKey, strconv.FormatInt(id, 10))
}

// Active returns the active source, or ErrNoActive when none is set.
func (r *Registry) Active(ctx context.Context) (Source, error) {
	id, err := r.activeID(ctx)
	if err != nil {
		return Source{}, err
	}
	if id == 0 {
		return Source{}, ErrNoActive
	}

	s, err := r.Fetch(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Source{}, ErrNoActive
	}
	return s, err
}

// IsActive reports whether s is the active source.
func (r *Registry) IsActive(ctx context.Context, s Source) (bool, error) {
	id, err := r.activeID(ctx)
	if err != nil {
		return false, err
	}
	return s.IsStored() && id == s.ID, nil
}

func (r *Registry) activeID(ctx context.Context) (int64, error) {
	value, err := r.db.GetAppData(ctx, activeKey)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", activeKey, value, err)
	}
	return id, nil
}
