package runtime

import (
	"errors"
	"fmt"
	"reflect"
)

// TypeMismatchError is returned when a downcast's runtime tag is not an
// instance of the requested kind.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// IsTypeMismatch reports whether err is, or wraps, a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tm *TypeMismatchError
	return errors.As(err, &tm)
}

// KindOf returns the kind registered for the Go type T in the process-wide
// registry.
func KindOf[T Object]() (*TypeDescriptor, error) {
	t := reflect.TypeFor[T]()
	d, ok := Types().ForGoType(t)
	if !ok {
		return nil, fmt.Errorf("no kind registered for go type %v: %w", t, ErrNotFound)
	}
	return d, nil
}

// KeyOf returns the type key registered for T, or T's Go type name if none is.
func KeyOf[T Object]() string {
	d, err := KindOf[T]()
	if err != nil {
		return reflect.TypeFor[T]().String()
	}
	return d.key
}

// IsInstance reports whether obj's runtime type is T's kind or a descendant.
func IsInstance[T Object](obj Object) bool {
	want, err := KindOf[T]()
	if err != nil {
		return false
	}
	return DescriptorOf(obj).IsA(want)
}

// InstanceOf reports whether obj's runtime type is-a the kind registered under key.
func InstanceOf(obj Object, key string) bool {
	want, err := Types().Resolve(key)
	if err != nil {
		return false
	}
	return DescriptorOf(obj).IsA(want)
}

// Downcast narrows obj to T after checking the runtime tag. The result is a view
// of the same object: no copy is made and no reference is added.
func Downcast[T Object](obj Object) (T, error) {
	var zero T
	want, err := KindOf[T]()
	if err != nil {
		return zero, err
	}

	have := DescriptorOf(obj)
	if have == nil || !have.IsA(want) {
		return zero, &TypeMismatchError{Expected: want.key, Actual: TypeOf(obj)}
	}

	view := Self(obj)
	if want.view != nil {
		v, ok := want.view(view)
		if !ok {
			return zero, &TypeMismatchError{Expected: want.key, Actual: have.key}
		}
		view = v
	}
	t, ok := view.(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: want.key, Actual: have.key}
	}
	return t, nil
}

// MustDowncast is like Downcast but panics on error.
// Use only in tests or when the runtime type is known.
func MustDowncast[T Object](obj Object) T {
	t, err := Downcast[T](obj)
	if err != nil {
		panic(err)
	}
	return t
}
