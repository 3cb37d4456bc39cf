package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherAppliesValidChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronodeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autosave:\n  interval: 5s\n"), 0o600))

	applied := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { applied <- c })
	require.NoError(t, err)
	w.debounceTime = 20 * time.Millisecond
	require.NoError(t, w.Start(t.Context()))
	defer func() { _ = w.Stop() }()

	// An invalid edit is ignored.
	require.NoError(t, os.WriteFile(path, []byte("autosave:\n  interval: 1ms\n"), 0o600))
	select {
	case c := <-applied:
		t.Fatalf("invalid config applied: %+v", c)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("autosave:\n  interval: 9s\n"), 0o600))
	select {
	case c := <-applied:
		assert.Equal(t, 9*time.Second, c.Autosave.Interval.Std())
	case <-time.After(3 * time.Second):
		t.Fatal("config change was not applied")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronodeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
	w, err := NewWatcher(path, func(*Config) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
