package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	chronoerrors "git.home.luguber.info/inful/chronodeck/internal/errors"
	"git.home.luguber.info/inful/chronodeck/internal/retry"
)

// SQLiteStore implements Store using SQLite. Writes are retried while
// another process holds the database locked.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	retry retry.Policy
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithRetryPolicy replaces the default backoff used while the database is busy.
func WithRetryPolicy(p retry.Policy) SQLiteOption {
	return func(s *SQLiteStore) { s.retry = p }
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, chronoerrors.StorageFailure("open", "", fmt.Errorf("open sqlite database: %w", err)).
			WithContext("path", dbPath)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, retry: retry.DefaultPolicy()}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, chronoerrors.StorageFailure("open", "", fmt.Errorf("initialize schema: %w", err)).
			WithContext("path", dbPath)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, chronoerrors.StorageFailure("get", key, err)
	}
	return value, true, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, Entry{Key: key, Value: value})
}

// SetMany implements Store using a single transaction.
func (s *SQLiteStore) SetMany(ctx context.Context, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retry.Do(ctx, isBusy, func() error { return s.setMany(ctx, entries) })
}

func (s *SQLiteStore) setMany(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return chronoerrors.StorageFailure("begin", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%s','now'))
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			e.Key, e.Value,
		)
		if err != nil {
			return chronoerrors.StorageFailure("set", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return chronoerrors.StorageFailure("commit", "", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		err := s.retry.Do(ctx, isBusy, func() error {
			_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", k)
			return err
		})
		if err != nil {
			return chronoerrors.StorageFailure("delete", k, err)
		}
	}
	return nil
}

// isBusy reports whether err is SQLite's "database is locked".
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
