package ir

import (
	"errors"
	"fmt"

	"github.com/roach88/relaxir/internal/runtime"
)

// ErrInvalidArgument matches every *InvalidArgumentError with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError reports a constructor input that violates a local
// invariant of the node being built. No node is returned alongside it.
type InvalidArgumentError struct {
	Node    string // type key of the node being constructed
	Field   string // offending field, with an index for sequence elements
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Node, e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidArgument) hold.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// IsInvalidArgument reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ia *InvalidArgumentError
	return errors.As(err, &ia)
}

func invalid(node, field, format string, args ...any) error {
	return &InvalidArgumentError{Node: node, Field: field, Message: fmt.Sprintf(format, args...)}
}

// required rejects a nil child, which is what a failed construction leaves
// behind, and a child that has already been disposed.
func required(node, field string, obj runtime.Object) error {
	if runtime.IsNil(obj) {
		return invalid(node, field, "required value is missing")
	}
	if !runtime.Alive(obj) {
		return invalid(node, field, "value has been released")
	}
	return nil
}

func requiredEach[T runtime.Object](node, field string, objs []T) error {
	for i, obj := range objs {
		if err := required(node, fmt.Sprintf("%s[%d]", field, i), obj); err != nil {
			return err
		}
	}
	return nil
}

// optional normalizes a typed nil to the zero value and rejects released
// objects. Absent is a legitimate state for optional fields.
func optional[T runtime.Object](node, field string, obj T) (T, error) {
	var zero T
	if runtime.IsNil(obj) {
		return zero, nil
	}
	if !runtime.Alive(obj) {
		return zero, invalid(node, field, "value has been released")
	}
	return obj, nil
}

func retainAll[T runtime.Object](objs []T) []T {
	out := make([]T, len(objs))
	for i, obj := range objs {
		out[i] = runtime.Retain(obj)
	}
	return out
}

func retainOptional[T runtime.Object](obj T) T {
	if runtime.IsNil(obj) {
		return obj
	}
	return runtime.Retain(obj)
}

func releaseAll[T runtime.Object](objs []T) {
	for _, obj := range objs {
		runtime.Release(obj)
	}
}
