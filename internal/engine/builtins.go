package engine

import (
	"fmt"
	"math"

	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// builtins maps every bridge entry point to its packed function.
func builtins() map[string]PackedFunc {
	return map[string]PackedFunc{
		bridge.EPCall:                callFunc,
		bridge.EPIf:                  ifFunc,
		bridge.EPTuple:               tupleFunc,
		bridge.EPTupleGetItem:        tupleGetItemFunc,
		bridge.EPShapeExpr:           shapeExprFunc,
		bridge.EPVar:                 varFunc,
		bridge.EPVarFromId:           varFromIdFunc,
		bridge.EPDataflowVar:         dataflowVarFunc,
		bridge.EPDataflowVarFromId:   dataflowVarFromIdFunc,
		bridge.EPConstant:            constantFunc,
		bridge.EPPrimValue:           primValueFunc,
		bridge.EPStringImm:           stringImmFunc,
		bridge.EPDataTypeImm:         dataTypeImmFunc,
		bridge.EPMatchCast:           matchCastFunc,
		bridge.EPVarBinding:          varBindingFunc,
		bridge.EPBindingBlock:        bindingBlockFunc,
		bridge.EPDataflowBlock:       dataflowBlockFunc,
		bridge.EPSeqExpr:             seqExprFunc,
		bridge.EPFunction:            functionFunc,
		bridge.EPFunctionCreateEmpty: functionCreateEmptyFunc,
		bridge.EPExternFunc:          externFuncFunc,
		bridge.EPGetShapeOf:          getShapeOfFunc,
		bridge.EPFuncWithAttr:        funcWithAttrFunc,
		bridge.EPFuncWithAttrs:       funcWithAttrsFunc,
		bridge.EPFuncWithoutAttr:     funcWithoutAttrFunc,
	}
}

// built hands node to the caller, or reports the constructor failure.
func built[T runtime.Object](r *argReader, node T, err error) (runtime.Value, error) {
	if err != nil {
		return runtime.NullValue(), constructionFailed(r.fn, err)
	}
	return runtime.ObjectValue(node), nil
}

func callFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPCall, args)
	op := readObject[ir.Expr](r, 0)
	callArgs := readList[ir.Expr](r, 1)
	attrs := readOptional[*ir.DictAttrs](r, 2)
	sinfoArgs := readList[ir.StructInfo](r, 3)
	span := r.span(4)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewCall(op, callArgs, attrs, sinfoArgs, span)
	return built(r, node, err)
}

func ifFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPIf, args)
	cond := readObject[ir.Expr](r, 0)
	trueBranch := readObject[ir.Expr](r, 1)
	falseBranch := readObject[ir.Expr](r, 2)
	span := r.span(3)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewIf(cond, trueBranch, falseBranch, span)
	return built(r, node, err)
}

func tupleFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPTuple, args)
	fields := readList[ir.Expr](r, 0)
	span := r.span(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewTuple(fields, span)
	return built(r, node, err)
}

func tupleGetItemFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPTupleGetItem, args)
	tuple := readObject[ir.Expr](r, 0)
	index := r.integer(1)
	span := r.span(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	if index < 0 || index > math.MaxInt32 {
		msg := fmt.Sprintf("%d is out of range", index)
		if index < 0 {
			msg = fmt.Sprintf("%d is negative", index)
		}
		return built[*ir.TupleGetItem](r, nil, &ir.InvalidArgumentError{
			Node:    ir.TupleGetItemKey,
			Field:   "index",
			Message: msg,
		})
	}
	node, err := ir.NewTupleGetItem(tuple, int(index), span)
	return built(r, node, err)
}

func shapeExprFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPShapeExpr, args)
	values := readList[ir.PrimExpr](r, 0)
	span := r.span(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewShapeExpr(values, span)
	return built(r, node, err)
}

func varFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPVar, args)
	name := r.str(0)
	sinfo := readOptional[ir.StructInfo](r, 1)
	span := r.span(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewVar(name, sinfo, span)
	return built(r, node, err)
}

func varFromIdFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPVarFromId, args)
	vid := readObject[*ir.Id](r, 0)
	sinfo := readOptional[ir.StructInfo](r, 1)
	span := r.span(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewVarFromId(vid, sinfo, span)
	return built(r, node, err)
}

func dataflowVarFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPDataflowVar, args)
	name := r.str(0)
	sinfo := readOptional[ir.StructInfo](r, 1)
	span := r.span(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewDataflowVar(name, sinfo, span)
	return built(r, node, err)
}

func dataflowVarFromIdFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPDataflowVarFromId, args)
	vid := readObject[*ir.Id](r, 0)
	sinfo := readOptional[ir.StructInfo](r, 1)
	span := r.span(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewDataflowVarFromId(vid, sinfo, span)
	return built(r, node, err)
}

func constantFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPConstant, args)
	data := readObject[*runtime.NDArray](r, 0)
	sinfo := readOptional[ir.StructInfo](r, 1)
	span := r.span(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewConstant(data, sinfo, span)
	return built(r, node, err)
}

func primValueFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPPrimValue, args)
	value := readObject[ir.PrimExpr](r, 0)
	span := r.span(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewPrimValue(value, span)
	return built(r, node, err)
}

func stringImmFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPStringImm, args)
	value := r.str(0)
	span := r.span(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewStringImm(value, span)
	return built(r, node, err)
}

func dataTypeImmFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPDataTypeImm, args)
	value := r.dtype(0)
	span := r.span(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewDataTypeImm(value, span)
	return built(r, node, err)
}

func matchCastFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPMatchCast, args)
	v := readObject[*ir.Var](r, 0)
	value := readObject[ir.Expr](r, 1)
	sinfo := readObject[ir.StructInfo](r, 2)
	span := r.span(3)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewMatchCast(v, value, sinfo, span)
	return built(r, node, err)
}

func varBindingFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPVarBinding, args)
	v := readObject[*ir.Var](r, 0)
	value := readObject[ir.Expr](r, 1)
	span := r.span(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewVarBinding(v, value, span)
	return built(r, node, err)
}

func bindingBlockFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPBindingBlock, args)
	bindings := readList[ir.Binding](r, 0)
	span := r.span(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewBindingBlock(bindings, span)
	return built(r, node, err)
}

func dataflowBlockFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPDataflowBlock, args)
	bindings := readList[ir.Binding](r, 0)
	span := r.span(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewDataflowBlock(bindings, span)
	return built(r, node, err)
}

func seqExprFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPSeqExpr, args)
	blocks := readList[*ir.BindingBlock](r, 0)
	body := readObject[ir.Expr](r, 1)
	span := r.span(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewSeqExpr(blocks, body, span)
	return built(r, node, err)
}

func functionFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPFunction, args)
	params := readList[*ir.Var](r, 0)
	body := readObject[ir.Expr](r, 1)
	ret := readOptional[ir.StructInfo](r, 2)
	isPure := r.boolean(3)
	span := r.span(4)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewFunction(params, body, ret, isPure, span)
	return built(r, node, err)
}

func functionCreateEmptyFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPFunctionCreateEmpty, args)
	params := readList[*ir.Var](r, 0)
	ret := readObject[ir.StructInfo](r, 1)
	isPure := r.boolean(2)
	span := r.span(3)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewFunctionCreateEmpty(params, ret, isPure, span)
	return built(r, node, err)
}

func externFuncFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPExternFunc, args)
	symbol := r.str(0)
	span := r.span(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.NewExternFunc(symbol, span)
	return built(r, node, err)
}

func getShapeOfFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPGetShapeOf, args)
	expr := readObject[ir.Expr](r, 0)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	shape, err := ShapeOf(expr)
	if err != nil {
		return runtime.NullValue(), err
	}
	return runtime.ObjectValue(shape), nil
}

func funcWithAttrFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPFuncWithAttr, args)
	fn := readObject[ir.BaseFunc](r, 0)
	key := r.str(1)
	value := r.value(2)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.WithAttr(fn, key, value)
	return built(r, node, err)
}

func funcWithAttrsFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPFuncWithAttrs, args)
	fn := readObject[ir.BaseFunc](r, 0)
	attrs := r.valueMap(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.WithAttrs(fn, attrs)
	return built(r, node, err)
}

func funcWithoutAttrFunc(args []runtime.Value) (runtime.Value, error) {
	r := newArgReader(bridge.EPFuncWithoutAttr, args)
	fn := readObject[ir.BaseFunc](r, 0)
	key := r.str(1)
	if err := r.done(); err != nil {
		return runtime.NullValue(), err
	}
	node, err := ir.WithoutAttr(fn, key)
	return built(r, node, err)
}
