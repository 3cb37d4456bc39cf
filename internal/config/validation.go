package config

import (
	"fmt"
	"strings"
	"time"

	chronoerrors "git.home.luguber.info/inful/chronodeck/internal/errors"
	"git.home.luguber.info/inful/chronodeck/internal/retry"
	"git.home.luguber.info/inful/chronodeck/internal/timer"
)

// MinAutosaveInterval bounds how often the autosave job may run.
const MinAutosaveInterval = 100 * time.Millisecond

// validateConfig checks a normalized, defaulted configuration.
func validateConfig(c *Config) error {
	if c.Version != CurrentVersion {
		return chronoerrors.ConfigInvalid("version", fmt.Sprintf("unsupported version %q (expected %s)", c.Version, CurrentVersion))
	}
	if _, ok := storageDriverNormalizer.normalize(c.Storage.Driver); !ok {
		return chronoerrors.ConfigInvalid("storage.driver",
			fmt.Sprintf("unknown driver %q, valid options: %s", c.Storage.Driver, strings.Join(storageDriverNormalizer.validKeys(), ", ")))
	}
	if c.Storage.Driver != StorageMemory && c.Storage.Path == "" {
		return chronoerrors.ConfigInvalid("storage.path", "required for driver "+string(c.Storage.Driver))
	}
	if err := validateRetry(c.Storage.Retry); err != nil {
		return err
	}
	if c.Autosave.Interval.Std() < MinAutosaveInterval {
		return chronoerrors.ConfigInvalid("autosave.interval", "must be at least "+MinAutosaveInterval.String())
	}
	var total int64
	for _, f := range []struct {
		field string
		v     *int
		unit  int64
	}{
		{"timer.default_hours", c.Timer.DefaultHours, 3600},
		{"timer.default_minutes", c.Timer.DefaultMinutes, 60},
		{"timer.default_seconds", c.Timer.DefaultSeconds, 1},
	} {
		if f.v == nil {
			continue
		}
		if *f.v < 0 {
			return chronoerrors.ConfigInvalid(f.field, "must not be negative")
		}
		if int64(*f.v) > timer.MaxTotalSeconds/f.unit {
			return chronoerrors.ConfigInvalid(f.field, "too large")
		}
		total += int64(*f.v) * f.unit
	}
	if total > timer.MaxTotalSeconds {
		return chronoerrors.ConfigInvalid("timer", fmt.Sprintf("default duration exceeds %d seconds", timer.MaxTotalSeconds))
	}
	if c.Timer.Tick <= 0 {
		return chronoerrors.ConfigInvalid("timer.tick", "must be positive")
	}
	if c.Stopwatch.Tick <= 0 {
		return chronoerrors.ConfigInvalid("stopwatch.tick", "must be positive")
	}
	if _, ok := logLevelNormalizer.normalize(c.Logging.Level); !ok {
		return chronoerrors.ConfigInvalid("logging.level",
			fmt.Sprintf("unknown level %q, valid options: %s", c.Logging.Level, strings.Join(logLevelNormalizer.validKeys(), ", ")))
	}
	if _, ok := logFormatNormalizer.normalize(c.Logging.Format); !ok {
		return chronoerrors.ConfigInvalid("logging.format",
			fmt.Sprintf("unknown format %q, valid options: %s", c.Logging.Format, strings.Join(logFormatNormalizer.validKeys(), ", ")))
	}
	return nil
}

func validateRetry(r RetryConfig) error {
	if _, ok := backoffModeNormalizer.normalize(r.Mode); !ok {
		return chronoerrors.ConfigInvalid("storage.retry.mode",
			fmt.Sprintf("unknown mode %q, valid options: %s", r.Mode, strings.Join(backoffModeNormalizer.validKeys(), ", ")))
	}
	p := retry.Policy{Mode: r.Mode, Initial: r.Initial.Std(), Max: r.Max.Std(), MaxRetries: -1}
	if r.MaxRetries != nil {
		p.MaxRetries = *r.MaxRetries
	}
	if err := p.Validate(); err != nil {
		return chronoerrors.ConfigInvalid("storage.retry", err.Error())
	}
	if p.Initial > p.Max {
		return chronoerrors.ConfigInvalid("storage.retry.initial", "must not exceed storage.retry.max")
	}
	return nil
}
