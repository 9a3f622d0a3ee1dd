package enhancements

import "errors"

var (
	ErrNotFound        = errors.New("job not found")
	ErrNotConfigured   = errors.New("reasoning service not configured")
	ErrEmptyInsightSet = errors.New("insight set is empty")
	ErrMissingInsight  = errors.New("insight id is required")
	ErrPollTimeout     = errors.New("job poll timed out")
)

const (
	ErrorCodeValidation     = "VALIDATION_ERROR"
	ErrorCodeTimeout        = "REASONING_TIMEOUT"
	ErrorCodeSchemaMismatch = "REASONING_SCHEMA_MISMATCH"
	ErrorCodeStorage        = "STORAGE_ERROR"
	ErrorCodeInternal       = "INTERNAL_ERROR"
)
