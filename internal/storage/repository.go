package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"presupuesto/internal/kv"

	_ "modernc.org/sqlite"
)

const (
	getEntrySQL = `SELECT value FROM kv_entries WHERE key = ?`
	hasEntrySQL = `SELECT EXISTS(SELECT 1 FROM kv_entries WHERE key = ?)`
	putEntrySQL = `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	countEntriesSQL = `SELECT COUNT(*) FROM kv_entries`
)

// SQLiteStore is a kv.Store backed by a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure interface conformance
var (
	_ kv.Store       = (*SQLiteStore)(nil)
	_ kv.BatchWriter = (*SQLiteStore)(nil)
	_ kv.Pinger      = (*SQLiteStore)(nil)
)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get implements kv.Store
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, getEntrySQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get entry %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements kv.Store
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if _, err := s.db.ExecContext(ctx, putEntrySQL, key, value, now()); err != nil {
		return fmt.Errorf("put entry %q: %w", key, err)
	}
	slog.DebugContext(ctx, "Entry saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

// Has implements kv.Store
func (s *SQLiteStore) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, hasEntrySQL, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("check entry %q: %w", key, err)
	}
	return exists, nil
}

// SetMany implements kv.BatchWriter. All entries are written in one
// transaction.
func (s *SQLiteStore) SetMany(ctx context.Context, entries map[string]string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, putEntrySQL)
	if err != nil {
		return fmt.Errorf("prepare put: %w", err)
	}
	defer stmt.Close()

	ts := now()
	for k, v := range entries {
		if k == "" {
			return fmt.Errorf("empty key")
		}
		if _, err = stmt.ExecContext(ctx, k, v, ts); err != nil {
			return fmt.Errorf("put entry %q: %w", k, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.DebugContext(ctx, "Entries saved to SQLite", "count", len(entries))
	return nil
}

// Count returns the number of stored keys.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, countEntriesSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
