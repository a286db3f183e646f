package grading

import (
	"errors"
)

// Sentinel error kinds for request validation. These allow errors.Is from callers.
var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrOutOfRange       = errors.New("out of range")
	ErrInvalidRules     = errors.New("invalid grading rules")
)

// ValidationError describes a rejected request. Msg is safe to show to callers.
type ValidationError struct {
	Kind  error
	Field string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Is reports whether target matches the error kind.
func (e *ValidationError) Is(target error) bool {
	return target == e.Kind
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(kind error, field, msg string, cause error) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Msg: msg, Err: cause}
}
