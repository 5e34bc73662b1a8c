package services

import "fmt"

// ErrorKind is a stable machine-readable error classification. Handlers map
// kinds to HTTP status codes; clients must not infer state from status codes
// alone.
type ErrorKind string

const (
	ErrDuplicateRegistration ErrorKind = "duplicate_registration"
	ErrRegistrationClosed    ErrorKind = "registration_closed"
	ErrInvalidTransition     ErrorKind = "invalid_transition"
	ErrPhaseNotOpen          ErrorKind = "phase_not_open"
	ErrValidation            ErrorKind = "validation_error"
	ErrForbidden             ErrorKind = "forbidden"
	ErrRateLimited           ErrorKind = "rate_limited"
	ErrNotFound              ErrorKind = "not_found"
)

// WorkflowError is a typed error carrying a stable kind and a human-readable
// message
type WorkflowError struct {
	Kind    ErrorKind
	Message string
}

func (e *WorkflowError) Error() string {
	return e.Message
}

// NewWorkflowError creates a workflow error with a formatted message
func NewWorkflowError(kind ErrorKind, format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf extracts the error kind from an error, or empty when err is not a
// WorkflowError
func KindOf(err error) ErrorKind {
	if wErr, ok := err.(*WorkflowError); ok {
		return wErr.Kind
	}
	return ""
}
