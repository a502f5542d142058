package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps the trips in a key/value table, one row per storage key
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens (and creates if needed) the SQLite database at dbPath
func OpenSQLite(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	b := &SQLiteBackend{db: db, dbPath: dbPath}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate SQLite database: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP
		);`,
	}
	for _, stmt := range stmts {
		if _, err := b.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the stored trips document
func (b *SQLiteBackend) Read() ([]byte, error) {
	var value string
	err := b.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, StorageKey).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotExist
	case err != nil:
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	return []byte(value), nil
}

// Write upserts the trips document
func (b *SQLiteBackend) Write(data []byte) error {
	_, err := b.db.Exec(`INSERT INTO kv(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		StorageKey, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write trips: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error     { return b.db.Close() }
func (b *SQLiteBackend) Describe() string { return "sqlite:" + b.dbPath }
