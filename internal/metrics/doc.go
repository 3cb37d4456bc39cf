// Package metrics provides the observability hooks for timers, stopwatches and
// their persistence.
//
// The package follows the Null Object pattern: every component receives a
// Recorder and defaults to NoopRecorder, so call sites never check for nil.
// When metrics are enabled in configuration the composition root injects a
// PrometheusRecorder bound to a private registry. The registry is not served
// over HTTP; WriteText renders it for the interactive `stats` command.
package metrics
