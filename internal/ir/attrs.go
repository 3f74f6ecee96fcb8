package ir

import (
	"maps"
	"slices"

	"github.com/roach88/relaxir/internal/runtime"
)

// DictAttrs is an immutable string-keyed attribute map. Values are boxed and
// never interpreted by the IR; objects inside them are owned by the map.
type DictAttrs struct {
	runtime.Header
	entries map[string]runtime.Value
}

// NewDictAttrs copies m into a new attribute map.
func NewDictAttrs(m map[string]runtime.Value) (*DictAttrs, error) {
	for k, v := range m {
		if k == "" {
			return nil, invalid(DictAttrsKey, "entries", "empty attribute key")
		}
		for _, obj := range v.Objects() {
			if !runtime.Alive(obj) {
				return nil, invalid(DictAttrsKey, "entries["+k+"]", "value has been released")
			}
		}
	}
	entries := maps.Clone(m)
	if entries == nil {
		entries = map[string]runtime.Value{}
	}
	for _, v := range entries {
		for _, obj := range v.Objects() {
			runtime.Retain(obj)
		}
	}
	a := &DictAttrs{entries: entries}
	runtime.Init(a, dictAttrsType)
	return a, nil
}

// Dispose releases every object held by the map.
func (a *DictAttrs) Dispose() {
	for _, v := range a.entries {
		runtime.ReleaseValue(v)
	}
}

// Get returns the value stored under key.
func (a *DictAttrs) Get(key string) (runtime.Value, bool) {
	if a == nil {
		return runtime.NullValue(), false
	}
	v, ok := a.entries[key]
	return v, ok
}

// Len returns the number of entries.
func (a *DictAttrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// Keys returns the keys in sorted order.
func (a *DictAttrs) Keys() []string {
	if a == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(a.entries))
}

// Entries returns a copy of the map.
func (a *DictAttrs) Entries() map[string]runtime.Value {
	if a == nil {
		return map[string]runtime.Value{}
	}
	return maps.Clone(a.entries)
}

// WithAttr returns a new map with key set to value. A nil receiver is treated
// as the empty map.
func (a *DictAttrs) WithAttr(key string, value runtime.Value) (*DictAttrs, error) {
	m := a.Entries()
	m[key] = value
	return NewDictAttrs(m)
}

// WithAttrs returns a new map with every entry of update applied.
func (a *DictAttrs) WithAttrs(update map[string]runtime.Value) (*DictAttrs, error) {
	m := a.Entries()
	maps.Copy(m, update)
	return NewDictAttrs(m)
}

// WithoutAttr returns a new map without key.
func (a *DictAttrs) WithoutAttr(key string) (*DictAttrs, error) {
	m := a.Entries()
	delete(m, key)
	return NewDictAttrs(m)
}

// EqualObject compares entries by value.
func (a *DictAttrs) EqualObject(other runtime.Object) bool {
	o, ok := runtime.Self(other).(*DictAttrs)
	if !ok || len(o.entries) != len(a.entries) {
		return false
	}
	for k, v := range a.entries {
		ov, ok := o.entries[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
