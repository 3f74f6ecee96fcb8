package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnknownFunction indicates no function is registered under the name.
	ErrCodeUnknownFunction ErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeBadArgument indicates an argument could not be decoded.
	ErrCodeBadArgument ErrorCode = "BAD_ARGUMENT"

	// ErrCodeConstructionFailed indicates the node constructor rejected its inputs.
	ErrCodeConstructionFailed ErrorCode = "CONSTRUCTION_FAILED"

	// ErrCodeNoShape indicates the expression carries no shape.
	ErrCodeNoShape ErrorCode = "NO_SHAPE"
)

// Error is a failure inside a packed function.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Func is the function that failed.
	Func string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Func, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsUnknownFunction returns true if err reports an unregistered function.
func IsUnknownFunction(err error) bool { return hasCode(err, ErrCodeUnknownFunction) }

// IsBadArgument returns true if err reports an undecodable argument.
func IsBadArgument(err error) bool { return hasCode(err, ErrCodeBadArgument) }

// IsConstructionFailed returns true if err reports a rejected construction.
// The constructor's own error is available through errors.As.
func IsConstructionFailed(err error) bool { return hasCode(err, ErrCodeConstructionFailed) }

// IsNoShape returns true if err reports a missing shape.
func IsNoShape(err error) bool { return hasCode(err, ErrCodeNoShape) }

func constructionFailed(fn string, err error) *Error {
	return &Error{Code: ErrCodeConstructionFailed, Func: fn, Message: err.Error(), Err: err}
}
