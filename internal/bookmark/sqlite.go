package bookmark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLiteKV stores values in a single-table SQLite database.
type SQLiteKV struct {
	sqlDB *sql.DB
}

// OpenSQLiteKV opens (and creates if needed) the database at path.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(createKVTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLiteKV{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *SQLiteKV) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}
	var value []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get kv %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put kv %q: %w", key, err)
	}
	return nil
}
