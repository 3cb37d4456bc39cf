package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *ChronoError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *ChronoError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

func ValidationFailed(field, reason string) *ChronoError {
	return New(CategoryValidation, SeverityWarning, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Persistence errors

func StorageFailure(operation, key string, cause error) *ChronoError {
	return Wrap(cause, CategoryStorage, SeverityError, "storage operation failed").
		WithContext("operation", operation).
		WithContext("key", key)
}

func CorruptSnapshot(key string, cause error) *ChronoError {
	return Wrap(cause, CategorySnapshot, SeverityWarning, "persisted snapshot is malformed").
		WithContext("key", key)
}

// Internal errors

func InternalError(message string, cause error) *ChronoError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
