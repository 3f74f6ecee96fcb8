package bridge

import (
	"strings"

	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

// ParamKind is the shape of value an entry point parameter accepts.
type ParamKind string

const (
	// ParamObject is a single node whose type is-a Param.TypeKey.
	ParamObject ParamKind = "object"

	// ParamObjectList is an array of nodes, each is-a Param.TypeKey.
	ParamObjectList ParamKind = "object_list"

	ParamString   ParamKind = "string"
	ParamInt      ParamKind = "int"
	ParamBool     ParamKind = "bool"
	ParamDataType ParamKind = "dtype"

	// ParamSpan is an opaque value holding an ir.Span.
	ParamSpan ParamKind = "span"

	// ParamMap is a string-keyed map of values.
	ParamMap ParamKind = "map"

	// ParamAny accepts every value.
	ParamAny ParamKind = "any"
)

// Param describes one positional argument of an entry point.
type Param struct {
	Name     string    `json:"name"`
	Kind     ParamKind `json:"kind"`
	TypeKey  string    `json:"type_key,omitempty"`
	Optional bool      `json:"optional,omitempty"`
}

// EntryPoint is a named engine function with a fixed signature. Result is the
// type key the returned node must satisfy.
type EntryPoint struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
	Result string  `json:"result"`
}

// Entry point names.
const (
	EPCall                = "relax.Call"
	EPIf                  = "relax.If"
	EPTuple               = "relax.Tuple"
	EPTupleGetItem        = "relax.TupleGetItem"
	EPShapeExpr           = "relax.ShapeExpr"
	EPVar                 = "relax.Var"
	EPVarFromId           = "relax.VarFromId"
	EPDataflowVar         = "relax.DataflowVar"
	EPDataflowVarFromId   = "relax.DataflowVarFromId"
	EPConstant            = "relax.Constant"
	EPPrimValue           = "relax.PrimValue"
	EPStringImm           = "relax.StringImm"
	EPDataTypeImm         = "relax.DataTypeImm"
	EPMatchCast           = "relax.MatchCast"
	EPVarBinding          = "relax.VarBinding"
	EPBindingBlock        = "relax.BindingBlock"
	EPDataflowBlock       = "relax.DataflowBlock"
	EPSeqExpr             = "relax.SeqExpr"
	EPFunction            = "relax.Function"
	EPFunctionCreateEmpty = "relax.FunctionCreateEmpty"
	EPExternFunc          = "relax.ExternFunc"
	EPGetShapeOf          = "relax.GetShapeOf"
	EPFuncWithAttr        = "relax.FuncWithAttr"
	EPFuncWithAttrs       = "relax.FuncWithAttrs"
	EPFuncWithoutAttr     = "relax.FuncWithoutAttr"
)

func obj(name, key string) Param {
	return Param{Name: name, Kind: ParamObject, TypeKey: key}
}

func optObj(name, key string) Param {
	return Param{Name: name, Kind: ParamObject, TypeKey: key, Optional: true}
}

func list(name, key string) Param {
	return Param{Name: name, Kind: ParamObjectList, TypeKey: key}
}

func scalar(name string, k ParamKind) Param {
	return Param{Name: name, Kind: k}
}

var spanParam = Param{Name: "span", Kind: ParamSpan, Optional: true}

// EntryPoints is the fixed table the bridge validates against, in a stable
// order.
var EntryPoints = []EntryPoint{
	{EPCall, []Param{
		obj("op", ir.ExprKey), list("args", ir.ExprKey), optObj("attrs", ir.DictAttrsKey),
		list("sinfo_args", ir.StructInfoKey), spanParam,
	}, ir.CallKey},
	{EPIf, []Param{
		obj("cond", ir.ExprKey), obj("true_branch", ir.ExprKey), obj("false_branch", ir.ExprKey), spanParam,
	}, ir.IfKey},
	{EPTuple, []Param{list("fields", ir.ExprKey), spanParam}, ir.TupleKey},
	{EPTupleGetItem, []Param{obj("tuple", ir.ExprKey), scalar("index", ParamInt), spanParam}, ir.TupleGetItemKey},
	{EPShapeExpr, []Param{list("values", ir.PrimExprKey), spanParam}, ir.ShapeExprKey},
	{EPVar, []Param{scalar("name_hint", ParamString), optObj("struct_info", ir.StructInfoKey), spanParam}, ir.VarKey},
	{EPVarFromId, []Param{obj("vid", ir.IdKey), optObj("struct_info", ir.StructInfoKey), spanParam}, ir.VarKey},
	{EPDataflowVar, []Param{
		scalar("name_hint", ParamString), optObj("struct_info", ir.StructInfoKey), spanParam,
	}, ir.DataflowVarKey},
	{EPDataflowVarFromId, []Param{
		obj("vid", ir.IdKey), optObj("struct_info", ir.StructInfoKey), spanParam,
	}, ir.DataflowVarKey},
	{EPConstant, []Param{
		obj("data", runtime.NDArrayKey), optObj("struct_info", ir.StructInfoKey), spanParam,
	}, ir.ConstantKey},
	{EPPrimValue, []Param{obj("value", ir.PrimExprKey), spanParam}, ir.PrimValueKey},
	{EPStringImm, []Param{scalar("value", ParamString), spanParam}, ir.StringImmKey},
	{EPDataTypeImm, []Param{scalar("value", ParamDataType), spanParam}, ir.DataTypeImmKey},
	{EPMatchCast, []Param{
		obj("var", ir.VarKey), obj("value", ir.ExprKey), obj("struct_info", ir.StructInfoKey), spanParam,
	}, ir.MatchCastKey},
	{EPVarBinding, []Param{obj("var", ir.VarKey), obj("value", ir.ExprKey), spanParam}, ir.VarBindingKey},
	{EPBindingBlock, []Param{list("bindings", ir.BindingKey), spanParam}, ir.BindingBlockKey},
	{EPDataflowBlock, []Param{list("bindings", ir.BindingKey), spanParam}, ir.DataflowBlockKey},
	{EPSeqExpr, []Param{list("blocks", ir.BindingBlockKey), obj("body", ir.ExprKey), spanParam}, ir.SeqExprKey},
	{EPFunction, []Param{
		list("params", ir.VarKey), obj("body", ir.ExprKey), optObj("ret_struct_info", ir.StructInfoKey),
		scalar("is_pure", ParamBool), spanParam,
	}, ir.FunctionKey},
	{EPFunctionCreateEmpty, []Param{
		list("params", ir.VarKey), obj("ret_struct_info", ir.StructInfoKey), scalar("is_pure", ParamBool), spanParam,
	}, ir.FunctionKey},
	{EPExternFunc, []Param{scalar("global_symbol", ParamString), spanParam}, ir.ExternFuncKey},
	{EPGetShapeOf, []Param{obj("expr", ir.ExprKey)}, ir.ExprKey},
	{EPFuncWithAttr, []Param{
		obj("func", ir.BaseFuncKey), scalar("key", ParamString), scalar("value", ParamAny),
	}, ir.BaseFuncKey},
	{EPFuncWithAttrs, []Param{obj("func", ir.BaseFuncKey), scalar("attrs", ParamMap)}, ir.BaseFuncKey},
	{EPFuncWithoutAttr, []Param{obj("func", ir.BaseFuncKey), scalar("key", ParamString)}, ir.BaseFuncKey},
}

var entryPointIndex = func() map[string]*EntryPoint {
	m := make(map[string]*EntryPoint, len(EntryPoints))
	for i := range EntryPoints {
		m[EntryPoints[i].Name] = &EntryPoints[i]
	}
	return m
}()

// Lookup returns the entry point registered under name.
func Lookup(name string) (EntryPoint, bool) {
	ep, ok := entryPointIndex[name]
	if !ok {
		return EntryPoint{}, false
	}
	return *ep, true
}

// Names returns every entry point name in table order.
func Names() []string {
	names := make([]string, len(EntryPoints))
	for i, ep := range EntryPoints {
		names[i] = ep.Name
	}
	return names
}

// Required returns the number of leading parameters that must be supplied.
func (ep EntryPoint) Required() int {
	n := len(ep.Params)
	for n > 0 && ep.Params[n-1].Optional {
		n--
	}
	return n
}

// String renders the parameter as name: type, with "?" marking optional ones.
func (p Param) String() string {
	name := p.Name
	if p.Optional {
		name += "?"
	}
	switch p.Kind {
	case ParamObject:
		return name + ": " + p.TypeKey
	case ParamObjectList:
		return name + ": [" + p.TypeKey + "]"
	}
	return name + ": " + string(p.Kind)
}

// Signature renders the entry point as name(params) -> result.
func (ep EntryPoint) Signature() string {
	params := make([]string, len(ep.Params))
	for i, p := range ep.Params {
		params[i] = p.String()
	}
	return ep.Name + "(" + strings.Join(params, ", ") + ") -> " + ep.Result
}
