package bridge

import (
	"errors"
	"fmt"

	"github.com/roach88/relaxir/internal/runtime"
)

// ArgumentError reports a call rejected before dispatch: unknown entry point,
// wrong arity, or an argument that does not match its parameter.
type ArgumentError struct {
	// EntryPoint is the called name.
	EntryPoint string

	// Param names the offending parameter, empty for arity errors.
	Param string

	// Index is the argument position, -1 when not tied to one argument.
	Index int

	Message string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: argument %d (%s): %s", e.EntryPoint, e.Index, e.Param, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.EntryPoint, e.Message)
}

// EngineError reports a failure raised by the engine. Message is the engine's
// error text, unchanged.
type EngineError struct {
	EntryPoint string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error in %s: %s", e.EntryPoint, e.Message)
}

// Unwrap returns the engine's error.
func (e *EngineError) Unwrap() error { return e.Err }

// IsArgumentError returns true if err is or wraps an *ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// IsEngineError returns true if err is or wraps an *EngineError.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}

// IsTypeMismatch returns true if err is or wraps a *runtime.TypeMismatchError.
func IsTypeMismatch(err error) bool {
	return runtime.IsTypeMismatch(err)
}

func argError(ep string, index int, param, format string, args ...any) *ArgumentError {
	return &ArgumentError{
		EntryPoint: ep,
		Param:      param,
		Index:      index,
		Message:    fmt.Sprintf(format, args...),
	}
}
