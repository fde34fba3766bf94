package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_EnablesWAL(t *testing.T) {
	db := setupTestDB(t)

	var journalMode string
	require.NoError(t, db.Conn().QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
	assert.NoError(t, db.Health(context.Background()))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := OpenWithConfig(Config{})
	assert.Error(t, err)
}

func TestMigrate_AppliesOnce(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrations := []Migration{
		{Version: 2, Name: "add_index", Up: "CREATE INDEX idx_items_name ON items(name)"},
		{Version: 1, Name: "items", Up: "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT);"},
	}

	require.NoError(t, db.Migrate(ctx, migrations))
	version, err := db.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	// second run is a no-op
	require.NoError(t, db.Migrate(ctx, migrations))
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.Migrate(ctx, []Migration{{Version: 1, Name: "broken", Up: "CREATE TABLE t (id INTEGER); NOT SQL"}})
	require.Error(t, err)

	version, err := db.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	var name string
	err = db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='t'").Scan(&name)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
