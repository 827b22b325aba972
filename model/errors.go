package model

import "fmt"

// FieldError reports a request field that failed validation. Domain
// outcomes (denied or conflicted decisions) are never FieldErrors; only
// malformed input is.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func fieldError(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
