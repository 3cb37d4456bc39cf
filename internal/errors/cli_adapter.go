package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	ce, ok := As(err)
	if !ok {
		return 1
	}

	switch ce.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryStorage, CategorySnapshot:
		return 9 // Persistence error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// HandleError logs the error and exits the process with the mapped exit code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	code := a.ExitCodeFor(err)

	if ce, ok := As(err); ok {
		attrs := []any{"category", ce.Category, "severity", ce.Severity}
		if a.verbose {
			for k, v := range ce.Context {
				attrs = append(attrs, k, v)
			}
		}
		a.logger.Error(ce.Message, attrs...)
		if a.verbose && ce.Cause != nil {
			fmt.Fprintf(os.Stderr, "cause: %v\n", ce.Cause)
		}
	} else {
		a.logger.Error(err.Error())
	}

	os.Exit(code)
}
