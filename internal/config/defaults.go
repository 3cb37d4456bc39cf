package config

import (
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/retry"
)

// Default values applied to omitted fields.
const (
	DefaultStoragePath      = "chronodeck.db"
	DefaultFileStoragePath  = "chronodeck.json"
	DefaultHistoryPath      = "chronodeck-history.db"
	DefaultAutosaveInterval = 5 * time.Second
	DefaultTimerTick        = time.Second
	DefaultStopwatchTick    = 10 * time.Millisecond
	DefaultTimerMinutes     = 5
)

func intPtr(v int) *int { return &v }

// applyDefaults fills omitted fields. It runs after normalization so that
// canonical values drive the defaults.
func applyDefaults(c *Config) {
	if c.Version == "" {
		c.Version = CurrentVersion
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageSQLite
	}
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case StorageSQLite:
			c.Storage.Path = DefaultStoragePath
		case StorageFile:
			c.Storage.Path = DefaultFileStoragePath
		}
	}

	retryDefaults := retry.DefaultPolicy()
	if c.Storage.Retry.Mode == "" {
		c.Storage.Retry.Mode = retryDefaults.Mode
	}
	if c.Storage.Retry.Initial == 0 {
		c.Storage.Retry.Initial = Duration(retryDefaults.Initial)
	}
	if c.Storage.Retry.Max == 0 {
		c.Storage.Retry.Max = Duration(retryDefaults.Max)
	}
	if c.Storage.Retry.MaxRetries == nil {
		c.Storage.Retry.MaxRetries = intPtr(retryDefaults.MaxRetries)
	}

	if c.Autosave.Interval == 0 {
		c.Autosave.Interval = Duration(DefaultAutosaveInterval)
	}

	if c.Timer.DefaultHours == nil {
		c.Timer.DefaultHours = intPtr(0)
	}
	if c.Timer.DefaultMinutes == nil {
		c.Timer.DefaultMinutes = intPtr(DefaultTimerMinutes)
	}
	if c.Timer.DefaultSeconds == nil {
		c.Timer.DefaultSeconds = intPtr(0)
	}
	if c.Timer.Tick == 0 {
		c.Timer.Tick = Duration(DefaultTimerTick)
	}

	if c.Stopwatch.Tick == 0 {
		c.Stopwatch.Tick = Duration(DefaultStopwatchTick)
	}

	if c.History.Enabled == nil {
		enabled := true
		c.History.Enabled = &enabled
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}

	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}
