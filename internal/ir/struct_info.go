package ir

import "github.com/roach88/relaxir/internal/runtime"

// StructInfo describes the shape and type contract of an expression's result.
type StructInfo interface {
	runtime.Object
	Span() Span
	structInfoBase() *StructInfoBase
}

// StructInfoBase holds the fields shared by every StructInfo.
type StructInfoBase struct {
	runtime.Header
	span Span
}

// Span returns the source location.
func (s *StructInfoBase) Span() Span { return s.span }

func (s *StructInfoBase) structInfoBase() *StructInfoBase { return s }

// ObjectStructInfo is the struct info of a value known only to be an object.
type ObjectStructInfo struct {
	StructInfoBase
}

// NewObjectStructInfo builds the "any object" struct info.
func NewObjectStructInfo(span Span) *ObjectStructInfo {
	s := &ObjectStructInfo{StructInfoBase: StructInfoBase{span: span}}
	runtime.Init(s, objectStructInfoType)
	return s
}

// EqualObject holds for any other ObjectStructInfo.
func (s *ObjectStructInfo) EqualObject(other runtime.Object) bool {
	_, ok := runtime.Self(other).(*ObjectStructInfo)
	return ok
}

// UnknownNDim marks a tensor whose rank is not known.
const UnknownNDim = -1

// TensorStructInfo describes a tensor by optional shape, element type and rank.
type TensorStructInfo struct {
	StructInfoBase
	shape Expr
	dtype runtime.DataType
	ndim  int
}

// NewTensorStructInfo builds tensor struct info. shape may be nil. When shape
// is a ShapeExpr its length fixes the rank, and an explicit ndim must agree.
// The zero DataType means the element type is unknown.
func NewTensorStructInfo(shape Expr, dtype runtime.DataType, ndim int, span Span) (*TensorStructInfo, error) {
	shape, err := optional(TensorStructInfoKey, "shape", shape)
	if err != nil {
		return nil, err
	}
	if dtype != (runtime.DataType{}) && !dtype.Valid() {
		return nil, invalid(TensorStructInfoKey, "dtype", "%s is not a valid data type", dtype)
	}
	if ndim < UnknownNDim {
		return nil, invalid(TensorStructInfoKey, "ndim", "%d is below %d", ndim, UnknownNDim)
	}
	if s, ok := shape.(*ShapeExpr); ok {
		n := len(s.values)
		if ndim == UnknownNDim {
			ndim = n
		} else if ndim != n {
			return nil, invalid(TensorStructInfoKey, "ndim", "%d does not match shape of rank %d", ndim, n)
		}
	}

	ts := &TensorStructInfo{
		StructInfoBase: StructInfoBase{span: span},
		shape:          retainOptional(shape),
		dtype:          dtype,
		ndim:           ndim,
	}
	runtime.Init(ts, tensorStructInfoType)
	return ts, nil
}

// Dispose releases the shape.
func (t *TensorStructInfo) Dispose() { runtime.Release(t.shape) }

// Shape returns the shape expression, or nil if unknown.
func (t *TensorStructInfo) Shape() Expr { return t.shape }

// DType returns the element type; the zero value means unknown.
func (t *TensorStructInfo) DType() runtime.DataType { return t.dtype }

// NDim returns the rank, or UnknownNDim.
func (t *TensorStructInfo) NDim() int { return t.ndim }
