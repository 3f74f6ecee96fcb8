package runtime

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// TypeCode is the numeric class of a DataType.
type TypeCode uint8

const (
	TypeInt TypeCode = iota
	TypeUInt
	TypeFloat
	TypeHandle
	TypeBFloat
)

var typeCodeNames = map[TypeCode]string{
	TypeInt:    "int",
	TypeUInt:   "uint",
	TypeFloat:  "float",
	TypeHandle: "handle",
	TypeBFloat: "bfloat",
}

// DataType is an element type descriptor: code, bit width and vector lanes.
type DataType struct {
	Code  TypeCode
	Bits  uint8
	Lanes uint16
}

// Int returns a scalar signed integer type.
func Int(bits uint8) DataType { return DataType{Code: TypeInt, Bits: bits, Lanes: 1} }

// UInt returns a scalar unsigned integer type.
func UInt(bits uint8) DataType { return DataType{Code: TypeUInt, Bits: bits, Lanes: 1} }

// Float returns a scalar floating point type.
func Float(bits uint8) DataType { return DataType{Code: TypeFloat, Bits: bits, Lanes: 1} }

// Bool returns the boolean type (uint1).
func Bool() DataType { return UInt(1) }

// WithLanes returns d vectorized to n lanes.
func (d DataType) WithLanes(n uint16) DataType {
	d.Lanes = n
	return d
}

// IsInt reports signed or unsigned integer types (including bool).
func (d DataType) IsInt() bool { return d.Code == TypeInt || d.Code == TypeUInt }

// IsFloat reports float and bfloat types.
func (d DataType) IsFloat() bool { return d.Code == TypeFloat || d.Code == TypeBFloat }

// IsScalar reports a single lane.
func (d DataType) IsScalar() bool { return d.Lanes == 1 }

// Valid reports a non-zero width and lane count with a known code.
func (d DataType) Valid() bool {
	_, known := typeCodeNames[d.Code]
	return known && d.Bits > 0 && d.Lanes > 0
}

// ElemBytes returns the storage size of one element, rounded up to a byte.
func (d DataType) ElemBytes() int {
	return (int(d.Bits)*int(d.Lanes) + 7) / 8
}

// String renders the type as "float32", "int64x4" or "bool".
func (d DataType) String() string {
	if d.Code == TypeUInt && d.Bits == 1 && d.Lanes == 1 {
		return "bool"
	}
	name, ok := typeCodeNames[d.Code]
	if !ok {
		name = fmt.Sprintf("code%d", d.Code)
	}
	s := name + strconv.Itoa(int(d.Bits))
	if d.Lanes != 1 {
		s += "x" + strconv.Itoa(int(d.Lanes))
	}
	return s
}

// ParseDataType parses the String form.
func ParseDataType(s string) (DataType, error) {
	if s == "bool" {
		return Bool(), nil
	}
	base, lanesStr, hasLanes := strings.Cut(s, "x")
	lanes := 1
	if hasLanes {
		n, err := strconv.Atoi(lanesStr)
		if err != nil || n <= 0 || n > 0xFFFF {
			return DataType{}, fmt.Errorf("parse dtype %q: invalid lanes", s)
		}
		lanes = n
	}
	// longest prefix first: "bfloat" before "float", "uint" before "int"
	for _, code := range []TypeCode{TypeBFloat, TypeHandle, TypeUInt, TypeFloat, TypeInt} {
		prefix := typeCodeNames[code]
		if !strings.HasPrefix(base, prefix) {
			continue
		}
		bits, err := strconv.Atoi(strings.TrimPrefix(base, prefix))
		if err != nil || bits <= 0 || bits > 255 {
			return DataType{}, fmt.Errorf("parse dtype %q: invalid bit width", s)
		}
		return DataType{Code: code, Bits: uint8(bits), Lanes: uint16(lanes)}, nil
	}
	return DataType{}, fmt.Errorf("parse dtype %q: unknown type code", s)
}

// DeviceType identifies a device class.
type DeviceType int

const (
	DeviceCPU    DeviceType = 1
	DeviceCUDA   DeviceType = 2
	DeviceOpenCL DeviceType = 4
	DeviceVulkan DeviceType = 7
	DeviceMetal  DeviceType = 8
)

var deviceNames = map[DeviceType]string{
	DeviceCPU:    "cpu",
	DeviceCUDA:   "cuda",
	DeviceOpenCL: "opencl",
	DeviceVulkan: "vulkan",
	DeviceMetal:  "metal",
}

func (t DeviceType) String() string {
	if name, ok := deviceNames[t]; ok {
		return name
	}
	return fmt.Sprintf("device%d", int(t))
}

// Device is a device class plus an ordinal.
type Device struct {
	Type DeviceType
	ID   int
}

// CPU returns the CPU device with the given ordinal.
func CPU(id int) Device { return Device{Type: DeviceCPU, ID: id} }

func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Type, d.ID)
}

// ParseDevice parses "cpu", "cpu:0" or "cuda:1".
func ParseDevice(s string) (Device, error) {
	name, idStr, hasID := strings.Cut(s, ":")
	id := 0
	if hasID {
		n, err := strconv.Atoi(idStr)
		if err != nil || n < 0 {
			return Device{}, fmt.Errorf("parse device %q: invalid ordinal", s)
		}
		id = n
	}
	for t, n := range deviceNames {
		if n == name {
			return Device{Type: t, ID: id}, nil
		}
	}
	return Device{}, fmt.Errorf("parse device %q: unknown device type", s)
}

// NDArrayKey is the type key of NDArray.
const NDArrayKey = "runtime.NDArray"

var ndarrayType = MustRegister(Kind{
	Key:    NDArrayKey,
	Parent: ObjectKey,
	Layout: Layout{Fields: []Field{
		{Name: "shape", Kind: "[]int64"},
		{Name: "device", Kind: "Device"},
		{Name: "dtype", Kind: "DataType"},
	}},
	GoType: reflect.TypeFor[*NDArray](),
	View: func(o Object) (Object, bool) {
		a, ok := o.(*NDArray)
		return a, ok
	},
})

// NDArray is an opaque dense tensor. The IR core never interprets its contents;
// it only carries it as the payload of constants.
type NDArray struct {
	Header
	shape  []int64
	device Device
	dtype  DataType
	data   []byte
}

// EmptyNDArray allocates a zero-filled array.
func EmptyNDArray(shape []int64, dev Device, dtype DataType) (*NDArray, error) {
	size, err := checkShape(shape, dtype)
	if err != nil {
		return nil, err
	}
	return newNDArray(shape, dev, dtype, make([]byte, size)), nil
}

// NewNDArray wraps a copy of data, which must be exactly the array's byte size.
func NewNDArray(shape []int64, dev Device, dtype DataType, data []byte) (*NDArray, error) {
	size, err := checkShape(shape, dtype)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, fmt.Errorf("ndarray: %d bytes of data for %d-byte array", len(data), size)
	}
	return newNDArray(shape, dev, dtype, append([]byte(nil), data...)), nil
}

func newNDArray(shape []int64, dev Device, dtype DataType, data []byte) *NDArray {
	a := &NDArray{
		shape:  append([]int64(nil), shape...),
		device: dev,
		dtype:  dtype,
		data:   data,
	}
	Init(a, ndarrayType)
	return a
}

func checkShape(shape []int64, dtype DataType) (int, error) {
	if !dtype.Valid() {
		return 0, fmt.Errorf("ndarray: invalid dtype %v", dtype)
	}
	elems := 1
	for i, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("ndarray: negative extent %d at axis %d", dim, i)
		}
		if dim > math.MaxInt || (dim != 0 && elems > math.MaxInt/int(dim)) {
			return 0, fmt.Errorf("ndarray: shape %v overflows at axis %d", shape, i)
		}
		elems *= int(dim)
	}
	elemBytes := dtype.ElemBytes()
	if elems != 0 && elemBytes > math.MaxInt/elems {
		return 0, fmt.Errorf("ndarray: shape %v of %v overflows the byte size", shape, dtype)
	}
	return elems * elemBytes, nil
}

// Shape returns a copy of the extents.
func (a *NDArray) Shape() []int64 { return append([]int64(nil), a.shape...) }

// NDim returns the rank.
func (a *NDArray) NDim() int { return len(a.shape) }

// Device returns the device the array lives on.
func (a *NDArray) Device() Device { return a.device }

// DType returns the element type.
func (a *NDArray) DType() DataType { return a.dtype }

// NumElements returns the product of the extents.
func (a *NDArray) NumElements() int64 {
	n := int64(1)
	for _, d := range a.shape {
		n *= d
	}
	return n
}

// Bytes returns a copy of the backing data.
func (a *NDArray) Bytes() []byte { return append([]byte(nil), a.data...) }
