// Package runtime is the object core every IR node is built on: a shared header
// carrying the runtime type tag and atomic reference counts, a string-keyed type
// registry with O(1) is-a checks, tag-checked downcasts, and the boxed values
// that cross the call bridge.
//
// Inheritance is modeled with struct embedding. Every node struct embeds its
// parent's node struct, and the root of that chain embeds Header exactly once, so
// a pointer to any ancestor view points into the same storage as the outermost
// object and shares its header. Upcasting is taking the address of an embedded
// view; downcasting checks the tag against the registry and then recovers the
// requested view from the outermost object.
package runtime

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
)

// ErrUseAfterFree is reported when a disposed object is retained or released.
var ErrUseAfterFree = errors.New("use of disposed object")

// Object is implemented by every type that embeds Header.
type Object interface {
	objectHeader() *Header
}

// Disposer is implemented by objects that own children. Dispose is called exactly
// once, when the last strong reference is released, and must release every
// child the object retained at construction.
type Disposer interface {
	Dispose()
}

// Equaler lets a kind define equality beyond identity.
type Equaler interface {
	EqualObject(other Object) bool
}

// Header is the common prefix of every object.
type Header struct {
	desc   *TypeDescriptor
	self   Object
	strong atomic.Int32
	weak   atomic.Int32
}

func (h *Header) objectHeader() *Header { return h }

// TypeKey returns the runtime type key fixed at construction.
func (h *Header) TypeKey() string {
	if h.desc == nil {
		return ""
	}
	return h.desc.key
}

// Init stamps obj with its runtime type and a strong count of one owned by the
// caller. It panics if obj was already initialized or if obj's Go type cannot
// be viewed as desc's registered Go type.
func Init(obj Object, desc *TypeDescriptor) {
	if IsNil(obj) || desc == nil {
		panic("runtime.Init: nil object or descriptor")
	}
	h := obj.objectHeader()
	if h.desc != nil {
		panic(fmt.Sprintf("runtime.Init: %s already initialized as %s", desc.key, h.desc.key))
	}
	if desc.view != nil {
		if _, ok := desc.view(obj); !ok {
			panic(fmt.Sprintf("runtime.Init: %T cannot represent %s", obj, desc.key))
		}
	}
	h.desc = desc
	h.self = obj
	h.strong.Store(1)
}

// IsNil reports whether obj is nil or a typed nil pointer. A constructor that
// failed returns a typed nil, and passing that into another constructor must be
// caught rather than dereferenced.
func IsNil(obj Object) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func headerOf(obj Object) *Header {
	if IsNil(obj) {
		return nil
	}
	return obj.objectHeader()
}

// TryRetain increments the strong count unless the object is already disposed.
func TryRetain(obj Object) bool {
	h := headerOf(obj)
	if h == nil {
		return false
	}
	return h.tryRetain()
}

func (h *Header) tryRetain() bool {
	for {
		n := h.strong.Load()
		if n <= 0 {
			return false
		}
		if h.strong.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Retain increments the strong count and returns the same handle as a new owner.
// Retaining a disposed object is a programming error and panics.
func Retain[T Object](obj T) T {
	if !TryRetain(obj) {
		panic(fmt.Errorf("retain %s: %w", TypeOf(obj), ErrUseAfterFree))
	}
	return obj
}

// Release drops one strong reference. It returns true if that was the last one,
// in which case the object has been disposed.
func Release(obj Object) bool {
	h := headerOf(obj)
	if h == nil {
		return false
	}
	n := h.strong.Add(-1)
	switch {
	case n > 0:
		return false
	case n < 0:
		panic(fmt.Errorf("release %s: %w", h.TypeKey(), ErrUseAfterFree))
	}
	if d, ok := h.self.(Disposer); ok {
		d.Dispose()
	}
	return true
}

// RefCount returns the current strong count (0 once disposed).
func RefCount(obj Object) int32 {
	h := headerOf(obj)
	if h == nil {
		return 0
	}
	return h.strong.Load()
}

// Alive reports whether obj still has at least one strong reference.
func Alive(obj Object) bool {
	return RefCount(obj) > 0
}

// TypeOf returns the runtime type key of obj, or "(nil)".
func TypeOf(obj Object) string {
	h := headerOf(obj)
	if h == nil {
		return "(nil)"
	}
	if h.desc == nil {
		return "(uninitialized)"
	}
	return h.desc.key
}

// DescriptorOf returns the runtime descriptor of obj, or nil.
func DescriptorOf(obj Object) *TypeDescriptor {
	h := headerOf(obj)
	if h == nil {
		return nil
	}
	return h.desc
}

// TypeIndexOf returns the registry index of obj's kind, and false for nil or
// uninitialized objects.
func TypeIndexOf(obj Object) (TypeIndex, bool) {
	d := DescriptorOf(obj)
	if d == nil {
		return 0, false
	}
	return d.Index(), true
}

// Self returns the outermost view of obj, the value the object was
// initialized with.
func Self(obj Object) Object {
	h := headerOf(obj)
	if h == nil {
		return nil
	}
	return h.self
}

// Same reports whether a and b are views of the same object.
func Same(a, b Object) bool {
	ha, hb := headerOf(a), headerOf(b)
	return ha != nil && ha == hb
}

// Equal reports identity, or structural equality for kinds implementing Equaler.
// Two nils are equal.
func Equal(a, b Object) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	if Same(a, b) {
		return true
	}
	if eq, ok := Self(a).(Equaler); ok {
		return eq.EqualObject(b)
	}
	return false
}
