package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQLite is a Store persisted in a single SQLite table.
type SQLite struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the database at path, creating the file and table if needed.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
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
	return &SQLite{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLite) Get(key string) (string, bool, error) {
	if s == nil || s.sqlDB == nil {
		return "", false, ErrUnavailable
	}
	var value string
	err := s.sqlDB.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, mapSQLiteErr(err))
	}
	return value, true, nil
}

func (s *SQLite) Set(key, value string) error {
	if s == nil || s.sqlDB == nil {
		return ErrUnavailable
	}
	_, err := s.sqlDB.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, mapSQLiteErr(err))
	}
	return nil
}

func (s *SQLite) Remove(key string) error {
	if s == nil || s.sqlDB == nil {
		return ErrUnavailable
	}
	if _, err := s.sqlDB.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, mapSQLiteErr(err))
	}
	return nil
}

func (s *SQLite) Keys() ([]string, error) {
	return s.queryKeys(`SELECT key FROM kv ORDER BY key`)
}

// KeysWithPrefix compares the leading bytes of each key instead of using
// LIKE, so '%' and '_' in the prefix are matched literally.
func (s *SQLite) KeysWithPrefix(prefix string) ([]string, error) {
	return s.queryKeys(
		`SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key`,
		len([]rune(prefix)), prefix,
	)
}

func (s *SQLite) queryKeys(query string, args ...any) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, ErrUnavailable
	}
	rows, err := s.sqlDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func mapSQLiteErr(err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_FULL:
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case sqlite3lib.SQLITE_READONLY, sqlite3lib.SQLITE_CANTOPEN, sqlite3lib.SQLITE_PERM:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return err
}
