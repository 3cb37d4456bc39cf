package config

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/chronodeck/internal/retry"
)

// enumNormalizer maps case-insensitive, whitespace-tolerant input onto the
// canonical value of a string enum.
type enumNormalizer[T ~string] struct {
	values map[string]T
	keys   []string
}

func newEnumNormalizer[T ~string](values ...T) *enumNormalizer[T] {
	n := &enumNormalizer[T]{values: make(map[string]T, len(values))}
	for _, v := range values {
		key := cleanEnum(string(v))
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// normalize returns the canonical value. Unknown input is returned cleaned
// with ok=false so validation can report it.
func (n *enumNormalizer[T]) normalize(raw T) (T, bool) {
	cleaned := cleanEnum(string(raw))
	if v, ok := n.values[cleaned]; ok {
		return v, true
	}
	return T(cleaned), false
}

func (n *enumNormalizer[T]) validKeys() []string {
	return append([]string(nil), n.keys...)
}

func cleanEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeConfig canonicalizes enumerations and trims paths. It returns
// human-readable warnings for values that changed.
func normalizeConfig(c *Config) []string {
	var warnings []string
	note := func(field string, before, after string) {
		if before != "" && before != after {
			warnings = append(warnings, fmt.Sprintf("%s normalized from %q to %q", field, before, after))
		}
	}

	before := c.Storage.Driver
	c.Storage.Driver, _ = storageDriverNormalizer.normalize(c.Storage.Driver)
	note("storage.driver", string(before), string(c.Storage.Driver))

	beforeMode := c.Storage.Retry.Mode
	c.Storage.Retry.Mode, _ = backoffModeNormalizer.normalize(c.Storage.Retry.Mode)
	note("storage.retry.mode", string(beforeMode), string(c.Storage.Retry.Mode))

	beforeLevel := c.Logging.Level
	c.Logging.Level, _ = logLevelNormalizer.normalize(c.Logging.Level)
	note("logging.level", string(beforeLevel), string(c.Logging.Level))

	beforeFormat := c.Logging.Format
	c.Logging.Format, _ = logFormatNormalizer.normalize(c.Logging.Format)
	note("logging.format", string(beforeFormat), string(c.Logging.Format))

	c.Version = strings.TrimSpace(c.Version)
	c.Storage.Path = strings.TrimSpace(c.Storage.Path)
	c.History.Path = strings.TrimSpace(c.History.Path)
	return warnings
}

// StorageDriver enumerates the persistence drivers.
type StorageDriver string

const (
	StorageSQLite StorageDriver = "sqlite"
	StorageFile   StorageDriver = "file"
	StorageMemory StorageDriver = "memory"
)

var storageDriverNormalizer = newEnumNormalizer(StorageSQLite, StorageFile, StorageMemory)

var backoffModeNormalizer = newEnumNormalizer(retry.BackoffFixed, retry.BackoffLinear, retry.BackoffExponential)
