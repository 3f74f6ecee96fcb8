package ir

import (
	"fmt"
	"slices"

	"github.com/roach88/relaxir/internal/runtime"
)

// BaseFunc is a callable with an attribute map.
type BaseFunc interface {
	Expr
	Attrs() *DictAttrs
	baseFunc() *BaseFuncBase
	// withAttrs returns a copy of the function carrying attrs.
	withAttrs(attrs *DictAttrs) (BaseFunc, error)
}

// BaseFuncBase holds the fields shared by every BaseFunc.
type BaseFuncBase struct {
	ExprBase
	attrs *DictAttrs
}

// Attrs returns the function attributes, or nil when there are none.
func (f *BaseFuncBase) Attrs() *DictAttrs { return f.attrs }

func (f *BaseFuncBase) baseFunc() *BaseFuncBase { return f }

// GetAttr returns a single attribute.
func (f *BaseFuncBase) GetAttr(key string) (runtime.Value, bool) {
	return f.attrs.Get(key)
}

func (f *BaseFuncBase) releaseFunc() {
	runtime.Release(f.attrs)
	f.releaseExpr()
}

// Function is a Relax function with parameters, a body and an optional return
// contract.
type Function struct {
	BaseFuncBase
	params        []*Var
	body          Expr
	retStructInfo StructInfo
	isPure        bool
}

// NewFunction builds a function. Parameters must be distinct non-dataflow
// variables. retStructInfo may be nil, meaning the return contract is absent.
func NewFunction(params []*Var, body Expr, retStructInfo StructInfo, isPure bool, span Span) (*Function, error) {
	return newFunction(FunctionKey, params, body, retStructInfo, isPure, nil, span)
}

// NewFunctionCreateEmpty builds a placeholder function for forward references.
// Its body is a fresh variable named "_" carrying retStructInfo, which is
// therefore required.
func NewFunctionCreateEmpty(params []*Var, retStructInfo StructInfo, isPure bool, span Span) (*Function, error) {
	if err := required(FunctionKey, "ret_struct_info", retStructInfo); err != nil {
		return nil, err
	}
	body, err := NewVar("_", retStructInfo, span)
	if err != nil {
		return nil, err
	}
	defer runtime.Release(body)
	return newFunction(FunctionKey, params, body, retStructInfo, isPure, nil, span)
}

func newFunction(node string, params []*Var, body Expr, ret StructInfo, isPure bool, attrs *DictAttrs, span Span) (*Function, error) {
	if err := requiredEach(node, "params", params); err != nil {
		return nil, err
	}
	seen := make(map[*Id]int, len(params))
	for i, p := range params {
		field := fmt.Sprintf("params[%d]", i)
		if IsDataflowVar(p) {
			return nil, invalid(node, field, "dataflow var %q cannot be a function parameter", p.NameHint())
		}
		if j, dup := seen[p.vid]; dup {
			return nil, invalid(node, field, "var %q is already params[%d]", p.NameHint(), j)
		}
		seen[p.vid] = i
	}
	if err := required(node, "body", body); err != nil {
		return nil, err
	}
	ret, err := optional(node, "ret_struct_info", ret)
	if err != nil {
		return nil, err
	}
	attrs, err = optional(node, "attrs", attrs)
	if err != nil {
		return nil, err
	}

	f := &Function{
		params:        retainAll(params),
		body:          runtime.Retain(body),
		retStructInfo: retainOptional(ret),
		isPure:        isPure,
	}
	f.attrs = retainOptional(attrs)
	f.initExpr(span, nil)
	runtime.Init(f, functionType)
	return f, nil
}

// Dispose releases parameters, body, return contract and attributes.
func (f *Function) Dispose() {
	releaseAll(f.params)
	runtime.Release(f.body)
	runtime.Release(f.retStructInfo)
	f.releaseFunc()
}

// Params returns a copy of the parameters.
func (f *Function) Params() []*Var { return slices.Clone(f.params) }

// Body returns the function body.
func (f *Function) Body() Expr { return f.body }

// RetStructInfo returns the return contract, or nil when absent.
func (f *Function) RetStructInfo() StructInfo { return f.retStructInfo }

// IsPure reports whether the function is declared side-effect free.
func (f *Function) IsPure() bool { return f.isPure }

func (f *Function) withAttrs(attrs *DictAttrs) (BaseFunc, error) {
	return newFunction(FunctionKey, f.params, f.body, f.retStructInfo, f.isPure, attrs, f.span)
}

// ExternFunc is a function known only by a symbol the engine resolves.
type ExternFunc struct {
	BaseFuncBase
	globalSymbol string
}

// NewExternFunc builds a reference to an external symbol.
func NewExternFunc(globalSymbol string, span Span) (*ExternFunc, error) {
	return newExternFunc(globalSymbol, nil, span)
}

func newExternFunc(globalSymbol string, attrs *DictAttrs, span Span) (*ExternFunc, error) {
	if globalSymbol == "" {
		return nil, invalid(ExternFuncKey, "global_symbol", "must not be empty")
	}
	attrs, err := optional(ExternFuncKey, "attrs", attrs)
	if err != nil {
		return nil, err
	}
	e := &ExternFunc{globalSymbol: globalSymbol}
	e.attrs = retainOptional(attrs)
	e.initExpr(span, nil)
	runtime.Init(e, externFuncType)
	return e, nil
}

// Dispose releases the attributes.
func (e *ExternFunc) Dispose() { e.releaseFunc() }

// GlobalSymbol returns the external symbol name.
func (e *ExternFunc) GlobalSymbol() string { return e.globalSymbol }

func (e *ExternFunc) withAttrs(attrs *DictAttrs) (BaseFunc, error) {
	return newExternFunc(e.globalSymbol, attrs, e.span)
}

// WithAttr returns a copy of fn with key set to value. fn is not modified.
func WithAttr(fn BaseFunc, key string, value runtime.Value) (BaseFunc, error) {
	if err := required(BaseFuncKey, "func", fn); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, invalid(BaseFuncKey, "key", "must not be empty")
	}
	attrs, err := fn.Attrs().WithAttr(key, value)
	if err != nil {
		return nil, err
	}
	defer runtime.Release(attrs)
	return fn.withAttrs(attrs)
}

// WithAttrs returns a copy of fn with every entry of update applied.
func WithAttrs(fn BaseFunc, update map[string]runtime.Value) (BaseFunc, error) {
	if err := required(BaseFuncKey, "func", fn); err != nil {
		return nil, err
	}
	attrs, err := fn.Attrs().WithAttrs(update)
	if err != nil {
		return nil, err
	}
	defer runtime.Release(attrs)
	return fn.withAttrs(attrs)
}

// WithoutAttr returns a copy of fn without key. Removing a missing key still
// returns a new function.
func WithoutAttr(fn BaseFunc, key string) (BaseFunc, error) {
	if err := required(BaseFuncKey, "func", fn); err != nil {
		return nil, err
	}
	attrs, err := fn.Attrs().WithoutAttr(key)
	if err != nil {
		return nil, err
	}
	defer runtime.Release(attrs)
	return fn.withAttrs(attrs)
}
