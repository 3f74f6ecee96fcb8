package engine

import (
	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// ShapeOf returns the shape of expr with one strong reference owned by the
// caller. A Constant yields the extents of its data; any other expression
// yields the shape recorded in its TensorStructInfo.
func ShapeOf(expr ir.Expr) (ir.Expr, error) {
	if runtime.IsNil(expr) {
		return nil, &Error{Code: ErrCodeBadArgument, Func: bridge.EPGetShapeOf, Message: "expression is nil"}
	}
	if c, err := runtime.Downcast[*ir.Constant](expr); err == nil {
		shape, err := ir.ShapeOfArray(c.Data(), c.Span())
		if err != nil {
			return nil, constructionFailed(bridge.EPGetShapeOf, err)
		}
		return shape, nil
	}

	if tinfo, err := runtime.Downcast[*ir.TensorStructInfo](expr.StructInfo()); err == nil && !runtime.IsNil(tinfo.Shape()) {
		return runtime.Retain(tinfo.Shape()), nil
	}
	return nil, &Error{
		Code:    ErrCodeNoShape,
		Func:    bridge.EPGetShapeOf,
		Message: runtime.TypeOf(expr) + " has no known shape",
	}
}
