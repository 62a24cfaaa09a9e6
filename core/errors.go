package core

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned (possibly wrapped) by every repository when a lookup finds nothing.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned by services when the acting user's role cannot perform an operation.
	ErrForbidden = errors.New("permission denied")

	ErrTooLong = errors.New("Some fields are too long")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries a user-facing message, optionally detailed per field.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name, or nil if there are none.
func (err ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// IsValidationError reports whether err (or its cause) is a *ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

type notFound struct {
	message string
}

// NewNotFoundError returns an error reading msg that still matches ErrNotFound.
func NewNotFoundError(msg string) error {
	return &notFound{msg}
}

func (e *notFound) Error() string {
	return e.message
}

func (e *notFound) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type shutdown struct {
	message string
}

// NewShutdownError returns an error that causes the API to shut down gracefully when handled.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
