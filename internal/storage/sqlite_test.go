package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Database {
	t.Helper()
	db, err := Open(MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableColumns(t *testing.T, db *Database, table string) []string {
	t.Helper()
	rows, err := db.DB().Query("SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	return cols
}

func TestMigrate_FreshDatabase(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	require.NoError(t, db.Migrate(ctx))

	version, err := db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	assert.Equal(t, []string{
		"id", "type", "name", "local_path", "server_url", "username", "password", "priority", "container_name",
	}, tableColumns(t, db, "logFileSource"))
	assert.Equal(t, []string{"id", "kind", "text", "enabled", "position"}, tableColumns(t, db, "pattern"))
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "second run must not re-apply steps")

	version, err := db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestMigrate_FromVersion1(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	// Database as written by the first schema version
	_, err := db.DB().Exec(`CREATE TABLE appData (name VARCHAR(255) PRIMARY KEY, value VARCHAR(255))`)
	require.NoError(t, err)
	_, err = db.DB().Exec(migrations[0].statements[0])
	require.NoError(t, err)
	_, err = db.DB().Exec(`INSERT INTO logFileSource (type, name, local_path) VALUES (1, 'old', '/var/log')`)
	require.NoError(t, err)
	require.NoError(t, db.SetAppData(ctx, versionKey, "1"))

	require.NoError(t, db.Migrate(ctx))

	var name, container string
	require.NoError(t, db.DB().QueryRow(`SELECT name, container_name FROM logFileSource`).Scan(&name, &container))
	assert.Equal(t, "old", name)
	assert.Empty(t, container)
}

func TestAppData(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, db.Migrate(ctx))

	value, err := db.GetAppData(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, db.SetAppData(ctx, "active", "1"))
	require.NoError(t, db.SetAppData(ctx, "active", "2"))

	value, err = db.GetAppData(ctx, "active")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}

func TestVersion_Invalid(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.SetAppData(ctx, versionKey, "two"))

	_, err := db.Version(ctx)
	assert.Error(t, err)
}

func TestReinitialize_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "logsieve.sqlite")

	db, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	assert.Equal(t, path, db.Path())

	_, err = db.DB().Exec(`INSERT INTO pattern (kind, text) VALUES ('ignore', 'x')`)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "parent directory and file are created")

	require.NoError(t, db.Reinitialize(ctx))

	var count int
	require.NoError(t, db.DB().QueryRow(`SELECT COUNT(*) FROM pattern`).Scan(&count))
	assert.Zero(t, count)

	version, err := db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}
