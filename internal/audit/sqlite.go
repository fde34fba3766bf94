package audit

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/zero-day-ai/forensiq/internal/database"
	"github.com/zero-day-ai/forensiq/internal/types"
)

var sqliteMigrations = []database.Migration{
	{
		Version: 1,
		Name:    "audit_entries",
		Up: `
CREATE TABLE IF NOT EXISTS audit_entries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	timestamp TEXT NOT NULL,
	event_type TEXT NOT NULL,
	user_role TEXT NOT NULL,
	request_id TEXT,
	input_preview TEXT NOT NULL,
	output_preview TEXT,
	blocked INTEGER NOT NULL,
	block_reason TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_event_type ON audit_entries(event_type);
CREATE INDEX IF NOT EXISTS idx_audit_user_role ON audit_entries(user_role)`,
	},
}

// SQLiteStore keeps audit entries in a SQLite table. Each Append is a single
// INSERT, so concurrent writers never produce partial rows.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore opens the database at path and applies the audit schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, types.WrapError(types.AUDIT_OPEN_FAILED, "failed to open audit database", err)
	}
	if err := db.Health(ctx); err != nil {
		db.Close()
		return nil, types.WrapError(types.AUDIT_OPEN_FAILED, "audit database is not usable", err)
	}
	if err := db.Migrate(ctx, sqliteMigrations); err != nil {
		db.Close()
		return nil, types.WrapError(types.AUDIT_OPEN_FAILED, "failed to migrate audit database", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.db.Path()
}

// Append inserts e.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO audit_entries (
			id, timestamp, event_type, user_role, request_id,
			input_preview, output_preview, blocked, block_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Conn().ExecContext(ctx, query,
		e.ID,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		string(e.EventType),
		e.Role,
		nullString(e.RequestID),
		e.InputPreview,
		e.OutputPreview,
		e.Blocked,
		e.BlockReason,
	)
	if err != nil {
		return types.WrapError(types.AUDIT_WRITE_FAILED, "failed to insert audit entry", err)
	}
	return nil
}

// Tail returns up to n of the most recent matching entries, oldest first.
func (s *SQLiteStore) Tail(ctx context.Context, n int, f Filter) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTailSize
	}

	var (
		where []string
		args  []any
	)
	if f.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, string(f.EventType))
	}
	if f.Role != "" {
		where = append(where, "user_role = ? COLLATE NOCASE")
		args = append(args, f.Role)
	}
	if f.BlockedOnly {
		where = append(where, "blocked = 1")
	}

	query := `
		SELECT id, timestamp, event_type, user_role, request_id,
			input_preview, output_preview, blocked, block_reason
		FROM audit_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, n)

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.AUDIT_READ_FAILED, "failed to query audit entries", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, min(n, DefaultTailSize))
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, types.WrapError(types.AUDIT_READ_FAILED, "failed to scan audit entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.AUDIT_READ_FAILED, "failed to iterate audit entries", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e           Entry
		ts          string
		eventType   string
		requestID   sql.NullString
		output      sql.NullString
		blockReason sql.NullString
	)
	if err := rows.Scan(&e.ID, &ts, &eventType, &e.Role, &requestID,
		&e.InputPreview, &output, &e.Blocked, &blockReason); err != nil {
		return Entry{}, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Entry{}, err
	}
	e.Timestamp = parsed
	e.EventType = EventType(eventType)
	e.RequestID = requestID.String
	if output.Valid {
		v := output.String
		e.OutputPreview = &v
	}
	if blockReason.Valid {
		v := blockReason.String
		e.BlockReason = &v
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
