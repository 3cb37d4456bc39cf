package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	chronoerrors "git.home.luguber.info/inful/chronodeck/internal/errors"
	"git.home.luguber.info/inful/chronodeck/internal/retry"
)

// CurrentVersion is the configuration format version.
const CurrentVersion = "1.0"

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "chronodeck.yaml"

// Config is the chronodeck configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	Storage   StorageConfig   `yaml:"storage"`
	Autosave  AutosaveConfig  `yaml:"autosave"`
	Timer     TimerConfig     `yaml:"timer"`
	Stopwatch StopwatchConfig `yaml:"stopwatch"`
	History   HistoryConfig   `yaml:"history"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig selects where collections are persisted.
type StorageConfig struct {
	Driver StorageDriver `yaml:"driver"` // sqlite|file|memory
	Path   string        `yaml:"path"`   // database or JSON file; ignored for memory
	Retry  RetryConfig   `yaml:"retry"`
}

// RetryConfig is the backoff applied while the sqlite database is locked by
// another process.
type RetryConfig struct {
	Mode       retry.BackoffMode `yaml:"mode"` // fixed|linear|exponential
	Initial    Duration          `yaml:"initial"`
	Max        Duration          `yaml:"max"`
	MaxRetries *int              `yaml:"max_retries,omitempty"`
}

// Policy returns the retry policy described by r. Omitted fields take the
// retry package defaults.
func (r RetryConfig) Policy() retry.Policy {
	maxRetries := -1
	if r.MaxRetries != nil {
		maxRetries = *r.MaxRetries
	}
	return retry.NewPolicy(r.Mode, r.Initial.Std(), r.Max.Std(), maxRetries)
}

// AutosaveConfig controls the periodic persist job.
type AutosaveConfig struct {
	Interval Duration `yaml:"interval"`
}

// TimerConfig holds the defaults for new timers. Pointers distinguish an
// explicit zero from an omitted field.
type TimerConfig struct {
	DefaultHours   *int     `yaml:"default_hours,omitempty"`
	DefaultMinutes *int     `yaml:"default_minutes,omitempty"`
	DefaultSeconds *int     `yaml:"default_seconds,omitempty"`
	Tick           Duration `yaml:"tick"`
}

// StopwatchConfig holds stopwatch settings.
type StopwatchConfig struct {
	Tick Duration `yaml:"tick"`
	// CompensateDrift counts the time the process was down for stopwatches
	// that were running when it exited.
	CompensateDrift bool `yaml:"compensate_drift"`
}

// HistoryConfig controls the activity log.
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path"`
}

// IsEnabled reports whether the activity log is on (default true).
func (h HistoryConfig) IsEnabled() bool { return h.Enabled == nil || *h.Enabled }

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Duration is a time.Duration written as a Go duration string ("5s") in YAML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Load reads, normalizes, defaults and validates the configuration at path.
// .env and .env.local in the working directory are loaded first so the file
// can reference ${VARIABLES}.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, chronoerrors.ConfigNotFound(path)
	}
	if err != nil {
		return nil, chronoerrors.Wrap(err, chronoerrors.CategoryConfig, chronoerrors.SeverityFatal, "failed to read config file").
			WithContext("path", path)
	}
	return parse(data, path)
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		loadEnvFiles()
		slog.Debug("No configuration file, using defaults", "path", path)
		return Default(), nil
	}
	return Load(path)
}

func parse(data []byte, source string) (*Config, error) {
	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, chronoerrors.Wrap(err, chronoerrors.CategoryConfig, chronoerrors.SeverityFatal, "failed to parse configuration").
			WithContext("path", source)
	}

	for _, w := range normalizeConfig(&cfg) {
		slog.Warn("config normalization", "warning", w)
	}
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return chronoerrors.New(chronoerrors.CategoryValidation, chronoerrors.SeverityError,
			"configuration file already exists (use --force to overwrite)").WithContext("path", path)
	}

	example := Default()
	data, err := yaml.Marshal(example)
	if err != nil {
		return chronoerrors.InternalError("marshal example configuration", err)
	}
	header := "# chronodeck configuration\n# Values may reference environment variables as ${NAME}.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return chronoerrors.Wrap(err, chronoerrors.CategoryConfig, chronoerrors.SeverityFatal, "failed to write configuration").
			WithContext("path", path)
	}
	return nil
}
