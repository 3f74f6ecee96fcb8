package runtime

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
)

// ErrValueKind is wrapped by every Value accessor failure.
var ErrValueKind = errors.New("unexpected value kind")

// ValueKind tags the payload of a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindObject
	KindArray
	KindMap
	KindDataType
	KindDevice
	KindOpaque
)

var valueKindNames = [...]string{
	KindNull:     "null",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindString:   "string",
	KindObject:   "object",
	KindArray:    "array",
	KindMap:      "map",
	KindDataType: "dtype",
	KindDevice:   "device",
	KindOpaque:   "opaque",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("kind%d", int(k))
}

// Value is the generic boxed representation exchanged with an engine.
// Objects are carried by reference; everything else by value.
type Value struct {
	kind ValueKind
	v    any
}

// NullValue returns the absent value.
func NullValue() Value { return Value{} }

// IntValue boxes an integer.
func IntValue(n int64) Value { return Value{kind: KindInt, v: n} }

// FloatValue boxes a float.
func FloatValue(f float64) Value { return Value{kind: KindFloat, v: f} }

// BoolValue boxes a bool.
func BoolValue(b bool) Value { return Value{kind: KindBool, v: b} }

// StringValue boxes a string.
func StringValue(s string) Value { return Value{kind: KindString, v: s} }

// ObjectValue boxes an object reference. Nil (including typed nil) boxes to null.
func ObjectValue(obj Object) Value {
	if IsNil(obj) {
		return NullValue()
	}
	return Value{kind: KindObject, v: obj}
}

// ArrayValue boxes a sequence.
func ArrayValue(vals ...Value) Value {
	return Value{kind: KindArray, v: slices.Clone(vals)}
}

// ObjectArrayValue boxes a slice of objects.
func ObjectArrayValue[T Object](objs []T) Value {
	vals := make([]Value, len(objs))
	for i, o := range objs {
		vals[i] = ObjectValue(o)
	}
	return Value{kind: KindArray, v: vals}
}

// MapValue boxes a string-keyed map.
func MapValue(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, v: cp}
}

// DataTypeValue boxes a data type.
func DataTypeValue(d DataType) Value { return Value{kind: KindDataType, v: d} }

// DeviceValue boxes a device.
func DeviceValue(d Device) Value { return Value{kind: KindDevice, v: d} }

// OpaqueValue boxes a collaborator value type the core does not interpret.
func OpaqueValue(x any) Value {
	if x == nil {
		return NullValue()
	}
	return Value{kind: KindOpaque, v: x}
}

// Kind returns the payload tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports the absent value.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) kindErr(want ValueKind) error {
	return fmt.Errorf("want %s, got %s: %w", want, v.kind, ErrValueKind)
}

// AsInt unboxes an integer.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, v.kindErr(KindInt)
	}
	return v.v.(int64), nil
}

// AsFloat unboxes a float; integers are widened.
func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.v.(float64), nil
	case KindInt:
		return float64(v.v.(int64)), nil
	}
	return 0, v.kindErr(KindFloat)
}

// AsBool unboxes a bool.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.kindErr(KindBool)
	}
	return v.v.(bool), nil
}

// AsString unboxes a string.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.kindErr(KindString)
	}
	return v.v.(string), nil
}

// AsObject unboxes an object reference.
func (v Value) AsObject() (Object, error) {
	if v.kind != KindObject {
		return nil, v.kindErr(KindObject)
	}
	return v.v.(Object), nil
}

// AsArray unboxes a sequence (a copy of the slice header's elements).
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, v.kindErr(KindArray)
	}
	return slices.Clone(v.v.([]Value)), nil
}

// AsMap unboxes a map (a shallow copy).
func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, v.kindErr(KindMap)
	}
	src := v.v.(map[string]Value)
	cp := make(map[string]Value, len(src))
	for k, e := range src {
		cp[k] = e
	}
	return cp, nil
}

// AsDataType unboxes a data type.
func (v Value) AsDataType() (DataType, error) {
	if v.kind != KindDataType {
		return DataType{}, v.kindErr(KindDataType)
	}
	return v.v.(DataType), nil
}

// AsDevice unboxes a device.
func (v Value) AsDevice() (Device, error) {
	if v.kind != KindDevice {
		return Device{}, v.kindErr(KindDevice)
	}
	return v.v.(Device), nil
}

// AsOpaque unboxes a collaborator value.
func (v Value) AsOpaque() (any, error) {
	if v.kind != KindOpaque {
		return nil, v.kindErr(KindOpaque)
	}
	return v.v, nil
}

// Equal compares payloads. Objects compare with Equal (identity or structure).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindObject:
		return Equal(v.v.(Object), o.v.(Object))
	case KindArray:
		a, b := v.v.([]Value), o.v.([]Value)
		return slices.EqualFunc(a, b, Value.Equal)
	case KindMap:
		a, b := v.v.(map[string]Value), o.v.(map[string]Value)
		if len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	case KindOpaque:
		return reflect.DeepEqual(v.v, o.v)
	default:
		return v.v == o.v
	}
}

// String renders a short description for logs and journals.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindObject:
		return TypeOf(v.v.(Object))
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.v.([]Value)))
	case KindMap:
		m := v.v.(map[string]Value)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("map%v", keys)
	case KindString:
		return fmt.Sprintf("%q", v.v)
	default:
		return fmt.Sprintf("%v", v.v)
	}
}

// Objects returns every object reachable from v through arrays and maps.
func (v Value) Objects() []Object {
	var out []Object
	v.walkObjects(func(o Object) { out = append(out, o) })
	return out
}

func (v Value) walkObjects(fn func(Object)) {
	switch v.kind {
	case KindObject:
		fn(v.v.(Object))
	case KindArray:
		for _, e := range v.v.([]Value) {
			e.walkObjects(fn)
		}
	case KindMap:
		for _, e := range v.v.(map[string]Value) {
			e.walkObjects(fn)
		}
	}
}

// RetainValue retains every object inside v. It fails without retaining
// anything if one of them is already disposed.
func RetainValue(v Value) error {
	objs := v.Objects()
	for i, o := range objs {
		if !TryRetain(o) {
			for _, done := range objs[:i] {
				Release(done)
			}
			return fmt.Errorf("retain %s: %w", TypeOf(o), ErrUseAfterFree)
		}
	}
	return nil
}

// ReleaseValue releases every object inside v.
func ReleaseValue(v Value) {
	v.walkObjects(func(o Object) { Release(o) })
}
