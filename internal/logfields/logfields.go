package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyEntityKind    = "entity_kind"
	KeyEntityID      = "entity_id"
	KeyLabel         = "label"
	KeyStorageKey    = "storage_key"
	KeyStorageDriver = "storage_driver"
	KeyPath          = "path"
	KeyJobID         = "job_id"
	KeyJobName       = "job_name"
	KeyDurationMS    = "duration_ms"
	KeyCount         = "count"
	KeyError         = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func EntityKind(k string) slog.Attr    { return slog.String(KeyEntityKind, k) }
func EntityID(id int) slog.Attr        { return slog.Int(KeyEntityID, id) }
func Label(l string) slog.Attr         { return slog.String(KeyLabel, l) }
func StorageKey(k string) slog.Attr    { return slog.String(KeyStorageKey, k) }
func StorageDriver(d string) slog.Attr { return slog.String(KeyStorageDriver, d) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func JobID(id string) slog.Attr        { return slog.String(KeyJobID, id) }
func JobName(n string) slog.Attr       { return slog.String(KeyJobName, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
