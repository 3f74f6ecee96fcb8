package bridge

import (
	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// invokeAs calls name and narrows the result to T.
func invokeAs[T runtime.Object](b *Bridge, name string, args ...runtime.Value) (T, error) {
	var zero T
	obj, err := b.Invoke(name, args...)
	if err != nil {
		return zero, err
	}
	out, err := runtime.Downcast[T](obj)
	if err != nil {
		runtime.Release(obj)
		return zero, err
	}
	return out, nil
}

func spanValue(span ir.Span) runtime.Value { return runtime.OpaqueValue(span) }

// Call builds op(args...).
func (b *Bridge) Call(op ir.Expr, args []ir.Expr, attrs *ir.DictAttrs, sinfoArgs []ir.StructInfo, span ir.Span) (*ir.Call, error) {
	return invokeAs[*ir.Call](b, EPCall,
		runtime.ObjectValue(op),
		runtime.ObjectArrayValue(args),
		runtime.ObjectValue(attrs),
		runtime.ObjectArrayValue(sinfoArgs),
		spanValue(span))
}

// If builds a conditional.
func (b *Bridge) If(cond, trueBranch, falseBranch ir.Expr, span ir.Span) (*ir.If, error) {
	return invokeAs[*ir.If](b, EPIf,
		runtime.ObjectValue(cond),
		runtime.ObjectValue(trueBranch),
		runtime.ObjectValue(falseBranch),
		spanValue(span))
}

// Tuple builds a tuple of fields.
func (b *Bridge) Tuple(fields []ir.Expr, span ir.Span) (*ir.Tuple, error) {
	return invokeAs[*ir.Tuple](b, EPTuple, runtime.ObjectArrayValue(fields), spanValue(span))
}

// TupleGetItem builds tuple[index].
func (b *Bridge) TupleGetItem(tuple ir.Expr, index int, span ir.Span) (*ir.TupleGetItem, error) {
	return invokeAs[*ir.TupleGetItem](b, EPTupleGetItem,
		runtime.ObjectValue(tuple), runtime.IntValue(int64(index)), spanValue(span))
}

// ShapeExpr builds a shape from dimension values.
func (b *Bridge) ShapeExpr(values []ir.PrimExpr, span ir.Span) (*ir.ShapeExpr, error) {
	return invokeAs[*ir.ShapeExpr](b, EPShapeExpr, runtime.ObjectArrayValue(values), spanValue(span))
}

// Var builds a variable with a fresh Id. sinfo may be nil.
func (b *Bridge) Var(nameHint string, sinfo ir.StructInfo, span ir.Span) (*ir.Var, error) {
	return invokeAs[*ir.Var](b, EPVar,
		runtime.StringValue(nameHint), runtime.ObjectValue(sinfo), spanValue(span))
}

// VarFromId builds a variable over an existing Id.
func (b *Bridge) VarFromId(vid *ir.Id, sinfo ir.StructInfo, span ir.Span) (*ir.Var, error) {
	return invokeAs[*ir.Var](b, EPVarFromId,
		runtime.ObjectValue(vid), runtime.ObjectValue(sinfo), spanValue(span))
}

// DataflowVar builds a dataflow variable with a fresh Id.
func (b *Bridge) DataflowVar(nameHint string, sinfo ir.StructInfo, span ir.Span) (*ir.DataflowVar, error) {
	return invokeAs[*ir.DataflowVar](b, EPDataflowVar,
		runtime.StringValue(nameHint), runtime.ObjectValue(sinfo), spanValue(span))
}

// DataflowVarFromId builds a dataflow variable over an existing Id.
func (b *Bridge) DataflowVarFromId(vid *ir.Id, sinfo ir.StructInfo, span ir.Span) (*ir.DataflowVar, error) {
	return invokeAs[*ir.DataflowVar](b, EPDataflowVarFromId,
		runtime.ObjectValue(vid), runtime.ObjectValue(sinfo), spanValue(span))
}

// Constant wraps a tensor. With a nil sinfo the engine infers it from data.
func (b *Bridge) Constant(data *runtime.NDArray, sinfo ir.StructInfo, span ir.Span) (*ir.Constant, error) {
	return invokeAs[*ir.Constant](b, EPConstant,
		runtime.ObjectValue(data), runtime.ObjectValue(sinfo), spanValue(span))
}

// PrimValue wraps a scalar expression.
func (b *Bridge) PrimValue(value ir.PrimExpr, span ir.Span) (*ir.PrimValue, error) {
	return invokeAs[*ir.PrimValue](b, EPPrimValue, runtime.ObjectValue(value), spanValue(span))
}

// StringImm builds a string literal.
func (b *Bridge) StringImm(value string, span ir.Span) (*ir.StringImm, error) {
	return invokeAs[*ir.StringImm](b, EPStringImm, runtime.StringValue(value), spanValue(span))
}

// DataTypeImm builds a data type literal.
func (b *Bridge) DataTypeImm(value runtime.DataType, span ir.Span) (*ir.DataTypeImm, error) {
	return invokeAs[*ir.DataTypeImm](b, EPDataTypeImm, runtime.DataTypeValue(value), spanValue(span))
}

// MatchCast binds v to value under the asserted struct info.
func (b *Bridge) MatchCast(v *ir.Var, value ir.Expr, sinfo ir.StructInfo, span ir.Span) (*ir.MatchCast, error) {
	return invokeAs[*ir.MatchCast](b, EPMatchCast,
		runtime.ObjectValue(v), runtime.ObjectValue(value), runtime.ObjectValue(sinfo), spanValue(span))
}

// VarBinding binds v to value.
func (b *Bridge) VarBinding(v *ir.Var, value ir.Expr, span ir.Span) (*ir.VarBinding, error) {
	return invokeAs[*ir.VarBinding](b, EPVarBinding,
		runtime.ObjectValue(v), runtime.ObjectValue(value), spanValue(span))
}

// BindingBlock builds an ordinary block.
func (b *Bridge) BindingBlock(bindings []ir.Binding, span ir.Span) (*ir.BindingBlock, error) {
	return invokeAs[*ir.BindingBlock](b, EPBindingBlock, runtime.ObjectArrayValue(bindings), spanValue(span))
}

// DataflowBlock builds a dataflow block.
func (b *Bridge) DataflowBlock(bindings []ir.Binding, span ir.Span) (*ir.DataflowBlock, error) {
	return invokeAs[*ir.DataflowBlock](b, EPDataflowBlock, runtime.ObjectArrayValue(bindings), spanValue(span))
}

// SeqExpr builds blocks followed by body.
func (b *Bridge) SeqExpr(blocks []*ir.BindingBlock, body ir.Expr, span ir.Span) (*ir.SeqExpr, error) {
	return invokeAs[*ir.SeqExpr](b, EPSeqExpr,
		runtime.ObjectArrayValue(blocks), runtime.ObjectValue(body), spanValue(span))
}

// Function builds a function. ret may be nil.
func (b *Bridge) Function(params []*ir.Var, body ir.Expr, ret ir.StructInfo, isPure bool, span ir.Span) (*ir.Function, error) {
	return invokeAs[*ir.Function](b, EPFunction,
		runtime.ObjectArrayValue(params),
		runtime.ObjectValue(body),
		runtime.ObjectValue(ret),
		runtime.BoolValue(isPure),
		spanValue(span))
}

// FunctionCreateEmpty builds a placeholder function whose body is a fresh "_"
// variable carrying ret.
func (b *Bridge) FunctionCreateEmpty(params []*ir.Var, ret ir.StructInfo, isPure bool, span ir.Span) (*ir.Function, error) {
	return invokeAs[*ir.Function](b, EPFunctionCreateEmpty,
		runtime.ObjectArrayValue(params),
		runtime.ObjectValue(ret),
		runtime.BoolValue(isPure),
		spanValue(span))
}

// ExternFunc references an external symbol.
func (b *Bridge) ExternFunc(globalSymbol string, span ir.Span) (*ir.ExternFunc, error) {
	return invokeAs[*ir.ExternFunc](b, EPExternFunc, runtime.StringValue(globalSymbol), spanValue(span))
}

// GetShapeOf asks the engine for the shape of expr.
func (b *Bridge) GetShapeOf(expr ir.Expr) (ir.Expr, error) {
	return invokeAs[ir.Expr](b, EPGetShapeOf, runtime.ObjectValue(expr))
}

// FuncWithAttr returns a copy of fn with key set to value.
func (b *Bridge) FuncWithAttr(fn ir.BaseFunc, key string, value runtime.Value) (ir.BaseFunc, error) {
	return invokeAs[ir.BaseFunc](b, EPFuncWithAttr, runtime.ObjectValue(fn), runtime.StringValue(key), value)
}

// FuncWithAttrs returns a copy of fn with every entry of attrs applied.
func (b *Bridge) FuncWithAttrs(fn ir.BaseFunc, attrs map[string]runtime.Value) (ir.BaseFunc, error) {
	return invokeAs[ir.BaseFunc](b, EPFuncWithAttrs, runtime.ObjectValue(fn), runtime.MapValue(attrs))
}

// FuncWithoutAttr returns a copy of fn without key.
func (b *Bridge) FuncWithoutAttr(fn ir.BaseFunc, key string) (ir.BaseFunc, error) {
	return invokeAs[ir.BaseFunc](b, EPFuncWithoutAttr, runtime.ObjectValue(fn), runtime.StringValue(key))
}
