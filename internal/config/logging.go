package config

import (
	"io"
	"log/slog"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = newEnumNormalizer(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)

// SlogLevel maps the level onto slog, defaulting to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = newEnumNormalizer(LogFormatJSON, LogFormatText)

// NewLogger builds a logger writing to w in the configured format. The level
// is read through lv so it can be changed at runtime by a config reload.
func NewLogger(cfg LoggingConfig, w io.Writer, lv *slog.LevelVar) *slog.Logger {
	if lv == nil {
		lv = new(slog.LevelVar)
	}
	lv.Set(cfg.Level.SlogLevel())
	opts := &slog.HandlerOptions{Level: lv}
	if cfg.Format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
