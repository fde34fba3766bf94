package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Migration is a single forward schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// Migrate applies every migration newer than the recorded schema version.
// Each migration runs in its own transaction.
func (db *DB) Migrate(ctx context.Context, migrations []Migration) error {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	current, err := db.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Version < ordered[j].Version
	})

	for _, mig := range ordered {
		if mig.Version <= current {
			continue
		}
		if err := db.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, or 0.
func (db *DB) CurrentVersion(ctx context.Context) (int, error) {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return 0, err
	}

	var version int
	err := db.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}
	return version, nil
}

func (db *DB) ensureMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := db.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, mig Migration) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range strings.Split(mig.Up, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
			mig.Version, mig.Name)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}
