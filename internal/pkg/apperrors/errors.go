package apperrors

import "errors"

// Error kinds. Every error returned by a service wraps exactly one of these.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("conflict")
	ErrLocked            = errors.New("application is locked")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrValidation        = errors.New("validation failed")
	ErrDependencyFailure = errors.New("dependency failure")
)

// Specific errors, each wrapping its kind
var (
	ErrInvalidCredentials = NewUnauthorizedError("invalid credentials")
	ErrTokenInvalid       = NewUnauthorizedError("invalid token")
	ErrTokenExpired       = NewUnauthorizedError("token expired")
	ErrEmailNotVerified   = NewForbiddenError("account not verified")
	ErrEmailAlreadyExists = NewConflictError("email already exists")
	ErrApplicationLocked  = NewLockedError("application has been submitted and is locked")
)

// Kind names an error category in API responses and logs
type Kind string

const (
	KindUnauthorized      Kind = "Unauthorized"
	KindForbidden         Kind = "Forbidden"
	KindNotFound          Kind = "NotFound"
	KindConflict          Kind = "Conflict"
	KindLocked            Kind = "Locked"
	KindInvalidStatus     Kind = "InvalidStatus"
	KindValidation        Kind = "ValidationError"
	KindDependencyFailure Kind = "DependencyFailure"
	KindInternal          Kind = "Internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrUnauthorized, KindUnauthorized},
	{ErrForbidden, KindForbidden},
	{ErrNotFound, KindNotFound},
	{ErrConflict, KindConflict},
	{ErrLocked, KindLocked},
	{ErrInvalidStatus, KindInvalidStatus},
	{ErrValidation, KindValidation},
	{ErrDependencyFailure, KindDependencyFailure},
}

// KindOf returns the kind of err, or KindInternal when it wraps none.
// A CustomError reports its own kind first, so a dependency failure caused by
// a not-found error is still a dependency failure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *CustomError
	if errors.As(err, &ce) && ce.Err != nil {
		for _, k := range kinds {
			if errors.Is(ce.Err, k.err) {
				return k.kind
			}
		}
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// NewUnauthorizedError creates a new custom error for missing or invalid credentials
func NewUnauthorizedError(message string) *CustomError {
	return &CustomError{Err: ErrUnauthorized, Message: message}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) *CustomError {
	return &CustomError{Err: ErrForbidden, Message: message}
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) *CustomError {
	return &CustomError{Err: ErrNotFound, Message: message}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) *CustomError {
	return &CustomError{Err: ErrConflict, Message: message}
}

// NewLockedError creates a new custom error for edits against a locked cycle
func NewLockedError(message string) *CustomError {
	return &CustomError{Err: ErrLocked, Message: message}
}

// NewInvalidStatusError creates a new custom error for a disallowed status value
func NewInvalidStatusError(message string) *CustomError {
	return &CustomError{Err: ErrInvalidStatus, Message: message}
}

// NewValidationError creates a new custom error for malformed input
func NewValidationError(message string) *CustomError {
	return &CustomError{Err: ErrValidation, Message: message}
}

// NewDependencyError wraps a storage or collaborator failure. The cause is kept
// for errors.Is/As and logging but never shown to the caller.
func NewDependencyError(message string, cause error) *CustomError {
	return &CustomError{Err: ErrDependencyFailure, Message: message, Cause: cause}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Cause   error
	Field   string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap exposes both the kind and the hidden cause
func (e *CustomError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// WithField names the offending input field
func (e *CustomError) WithField(field string) *CustomError {
	e.Field = field
	return e
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// Message returns the user-facing message of err, falling back to its kind
func Message(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err.Error()
		}
	}
	return "internal server error"
}
