// Package storage is the durable key-value store behind collection snapshots.
//
// Values are opaque JSON documents. Three drivers are provided: sqlite (a
// single kv table in a modernc.org/sqlite database), file (one JSON object
// rewritten atomically) and memory (tests and ephemeral runs).
package storage

import (
	"context"
	"strings"

	chronoerrors "git.home.luguber.info/inful/chronodeck/internal/errors"
)

// Well-known keys. The names match the layout earlier releases wrote.
const (
	KeyTimers           = "timers"
	KeyTimerCounter     = "nextId"
	KeyStopwatches      = "stopwatches"
	KeyStopwatchCounter = "nextStopwatchId"
)

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Entry is one key/value pair written by SetMany.
type Entry struct {
	Key   string
	Value []byte
}

// Store defines durable key-value persistence.
type Store interface {
	// Get returns the value for key; ok is false when it was never written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set writes a single key.
	Set(ctx context.Context, key string, value []byte) error

	// SetMany writes all entries atomically: either every entry is stored or none is.
	SetMany(ctx context.Context, entries ...Entry) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases resources.
	Close() error
}

// Open returns the store for driver. path is ignored by the memory driver and
// opts only apply to sqlite.
func Open(driver, path string, opts ...SQLiteOption) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "":
		return NewSQLiteStore(path, opts...)
	case DriverFile:
		return NewFileStore(path)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, chronoerrors.ConfigInvalid("storage.driver", "unsupported driver "+driver)
	}
}
