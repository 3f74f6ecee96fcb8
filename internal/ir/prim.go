package ir

import (
	"math"

	"github.com/roach88/relaxir/internal/runtime"
)

// PrimExpr is a scalar expression, used for shape dimensions and PrimValue.
type PrimExpr interface {
	runtime.Object
	DType() runtime.DataType
	Span() Span
	primExprBase() *PrimExprBase
}

// PrimExprBase holds the fields shared by every PrimExpr.
type PrimExprBase struct {
	runtime.Header
	dtype runtime.DataType
	span  Span
}

// DType returns the scalar type.
func (p *PrimExprBase) DType() runtime.DataType { return p.dtype }

// Span returns the source location.
func (p *PrimExprBase) Span() Span { return p.span }

func (p *PrimExprBase) primExprBase() *PrimExprBase { return p }

// IntImm is an integer literal of a given integer dtype.
type IntImm struct {
	PrimExprBase
	value int64
}

// NewIntImm builds an integer literal. The dtype must be a scalar integer type
// and the value must fit its width.
func NewIntImm(dtype runtime.DataType, value int64, span Span) (*IntImm, error) {
	if !dtype.Valid() || !dtype.IsInt() || !dtype.IsScalar() {
		return nil, invalid(IntImmKey, "dtype", "%s is not a scalar integer type", dtype)
	}
	if !fitsInt(dtype, value) {
		return nil, invalid(IntImmKey, "value", "%d does not fit in %s", value, dtype)
	}
	imm := &IntImm{
		PrimExprBase: PrimExprBase{dtype: dtype, span: span},
		value:        value,
	}
	runtime.Init(imm, intImmType)
	return imm, nil
}

func fitsInt(dtype runtime.DataType, v int64) bool {
	bits := int(dtype.Bits)
	if dtype.Code == runtime.TypeUInt {
		if v < 0 {
			return false
		}
		return bits >= 64 || v < int64(1)<<bits
	}
	if bits >= 64 {
		return true
	}
	lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)
	return v >= lo && v < hi
}

// Value returns the literal.
func (i *IntImm) Value() int64 { return i.value }

// EqualObject compares dtype and value.
func (i *IntImm) EqualObject(other runtime.Object) bool {
	o, ok := runtime.Self(other).(*IntImm)
	return ok && o.dtype == i.dtype && o.value == i.value
}

// FloatImm is a floating point literal.
type FloatImm struct {
	PrimExprBase
	value float64
}

// NewFloatImm builds a floating point literal of a scalar float dtype.
func NewFloatImm(dtype runtime.DataType, value float64, span Span) (*FloatImm, error) {
	if !dtype.Valid() || !dtype.IsFloat() || !dtype.IsScalar() {
		return nil, invalid(FloatImmKey, "dtype", "%s is not a scalar float type", dtype)
	}
	if dtype.Bits == 32 && !math.IsInf(value, 0) && !math.IsNaN(value) && math.Abs(value) > math.MaxFloat32 {
		return nil, invalid(FloatImmKey, "value", "%g overflows %s", value, dtype)
	}
	imm := &FloatImm{
		PrimExprBase: PrimExprBase{dtype: dtype, span: span},
		value:        value,
	}
	runtime.Init(imm, floatImmType)
	return imm, nil
}

// Value returns the literal.
func (f *FloatImm) Value() float64 { return f.value }

// EqualObject compares dtype and value. NaN never equals itself.
func (f *FloatImm) EqualObject(other runtime.Object) bool {
	o, ok := runtime.Self(other).(*FloatImm)
	return ok && o.dtype == f.dtype && o.value == f.value
}
