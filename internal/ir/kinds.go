package ir

import (
	"reflect"

	"github.com/roach88/relaxir/internal/runtime"
)

// Type keys. These are the names the engine and the schema use.
const (
	PrimExprKey  = "ir.PrimExpr"
	IntImmKey    = "IntImm"
	FloatImmKey  = "FloatImm"
	DictAttrsKey = "ir.DictAttrs"

	IdKey               = "relax.Id"
	StructInfoKey       = "relax.StructInfo"
	ObjectStructInfoKey = "relax.ObjectStructInfo"
	TensorStructInfoKey = "relax.TensorStructInfo"

	ExprKey         = "relax.Expr"
	CallKey         = "relax.expr.Call"
	IfKey           = "relax.expr.If"
	TupleKey        = "relax.expr.Tuple"
	TupleGetItemKey = "relax.expr.TupleGetItem"
	LeafExprKey     = "relax.expr.LeafExpr"
	ShapeExprKey    = "relax.expr.ShapeExpr"
	VarKey          = "relax.expr.Var"
	DataflowVarKey  = "relax.expr.DataflowVar"
	ConstantKey     = "relax.expr.Constant"
	PrimValueKey    = "relax.expr.PrimValue"
	StringImmKey    = "relax.expr.StringImm"
	DataTypeImmKey  = "relax.expr.DataTypeImm"
	SeqExprKey      = "relax.expr.SeqExpr"

	BaseFuncKey   = "ir.BaseFunc"
	FunctionKey   = "relax.expr.Function"
	ExternFuncKey = "relax.expr.ExternFunc"

	BindingKey       = "relax.expr.Binding"
	VarBindingKey    = "relax.expr.VarBinding"
	MatchCastKey     = "relax.expr.MatchCast"
	BindingBlockKey  = "relax.expr.BindingBlock"
	DataflowBlockKey = "relax.expr.DataflowBlock"
)

// as narrows the outermost object to T by type assertion.
func as[T runtime.Object](o runtime.Object) (runtime.Object, bool) {
	t, ok := o.(T)
	if !ok {
		return nil, false
	}
	return t, true
}

func fields(pairs ...string) runtime.Layout {
	var l runtime.Layout
	for i := 0; i+1 < len(pairs); i += 2 {
		l.Fields = append(l.Fields, runtime.Field{Name: pairs[i], Kind: pairs[i+1]})
	}
	return l
}

// Registration order matters: each kind's parent is declared above it.
var (
	primExprType = runtime.MustRegister(runtime.Kind{
		Key: PrimExprKey, Parent: runtime.ObjectKey,
		Layout: fields("dtype", "DataType", "span", "Span"),
		GoType: reflect.TypeFor[PrimExpr](), View: as[PrimExpr],
	})
	intImmType = runtime.MustRegister(runtime.Kind{
		Key: IntImmKey, Parent: PrimExprKey,
		Layout: fields("value", "int64"),
		GoType: reflect.TypeFor[*IntImm](), View: as[*IntImm],
	})
	floatImmType = runtime.MustRegister(runtime.Kind{
		Key: FloatImmKey, Parent: PrimExprKey,
		Layout: fields("value", "float64"),
		GoType: reflect.TypeFor[*FloatImm](), View: as[*FloatImm],
	})
	dictAttrsType = runtime.MustRegister(runtime.Kind{
		Key: DictAttrsKey, Parent: runtime.ObjectKey,
		Layout: fields("entries", "map[string]Value"),
		GoType: reflect.TypeFor[*DictAttrs](), View: as[*DictAttrs],
	})

	idType = runtime.MustRegister(runtime.Kind{
		Key: IdKey, Parent: runtime.ObjectKey,
		Layout: fields("name_hint", "string"),
		GoType: reflect.TypeFor[*Id](), View: as[*Id],
	})
	structInfoType = runtime.MustRegister(runtime.Kind{
		Key: StructInfoKey, Parent: runtime.ObjectKey,
		Layout: fields("span", "Span"),
		GoType: reflect.TypeFor[StructInfo](), View: as[StructInfo],
	})
	objectStructInfoType = runtime.MustRegister(runtime.Kind{
		Key: ObjectStructInfoKey, Parent: StructInfoKey,
		GoType: reflect.TypeFor[*ObjectStructInfo](), View: as[*ObjectStructInfo],
	})
	tensorStructInfoType = runtime.MustRegister(runtime.Kind{
		Key: TensorStructInfoKey, Parent: StructInfoKey,
		Layout: fields("shape", "Expr?", "dtype", "DataType", "ndim", "int"),
		GoType: reflect.TypeFor[*TensorStructInfo](), View: as[*TensorStructInfo],
	})

	exprType = runtime.MustRegister(runtime.Kind{
		Key: ExprKey, Parent: runtime.ObjectKey,
		Layout: fields("span", "Span", "struct_info", "StructInfo?"),
		GoType: reflect.TypeFor[Expr](), View: as[Expr],
	})
	callType = runtime.MustRegister(runtime.Kind{
		Key: CallKey, Parent: ExprKey,
		Layout: fields("op", "Expr", "args", "[]Expr", "attrs", "DictAttrs?", "sinfo_args", "[]StructInfo"),
		GoType: reflect.TypeFor[*Call](), View: as[*Call],
	})
	ifType = runtime.MustRegister(runtime.Kind{
		Key: IfKey, Parent: ExprKey,
		Layout: fields("cond", "Expr", "true_branch", "Expr", "false_branch", "Expr"),
		GoType: reflect.TypeFor[*If](), View: as[*If],
	})
	tupleType = runtime.MustRegister(runtime.Kind{
		Key: TupleKey, Parent: ExprKey,
		Layout: fields("fields", "[]Expr"),
		GoType: reflect.TypeFor[*Tuple](), View: as[*Tuple],
	})
	tupleGetItemType = runtime.MustRegister(runtime.Kind{
		Key: TupleGetItemKey, Parent: ExprKey,
		Layout: fields("tuple", "Expr", "index", "int"),
		GoType: reflect.TypeFor[*TupleGetItem](), View: as[*TupleGetItem],
	})
	leafExprType = runtime.MustRegister(runtime.Kind{
		Key: LeafExprKey, Parent: ExprKey,
		GoType: reflect.TypeFor[LeafExpr](), View: as[LeafExpr],
	})
	shapeExprType = runtime.MustRegister(runtime.Kind{
		Key: ShapeExprKey, Parent: LeafExprKey,
		Layout: fields("id", "Id", "values", "[]PrimExpr"),
		GoType: reflect.TypeFor[*ShapeExpr](), View: as[*ShapeExpr],
	})
	varType = runtime.MustRegister(runtime.Kind{
		Key: VarKey, Parent: LeafExprKey,
		Layout: fields("vid", "Id"),
		GoType: reflect.TypeFor[*Var](),
		View: func(o runtime.Object) (runtime.Object, bool) {
			v, ok := o.(interface{ AsVar() *Var })
			if !ok {
				return nil, false
			}
			return v.AsVar(), true
		},
	})
	dataflowVarType = runtime.MustRegister(runtime.Kind{
		Key: DataflowVarKey, Parent: VarKey,
		GoType: reflect.TypeFor[*DataflowVar](), View: as[*DataflowVar],
	})
	constantType = runtime.MustRegister(runtime.Kind{
		Key: ConstantKey, Parent: LeafExprKey,
		Layout: fields("data", "NDArray"),
		GoType: reflect.TypeFor[*Constant](), View: as[*Constant],
	})
	primValueType = runtime.MustRegister(runtime.Kind{
		Key: PrimValueKey, Parent: LeafExprKey,
		Layout: fields("value", "PrimExpr"),
		GoType: reflect.TypeFor[*PrimValue](), View: as[*PrimValue],
	})
	stringImmType = runtime.MustRegister(runtime.Kind{
		Key: StringImmKey, Parent: LeafExprKey,
		Layout: fields("value", "string"),
		GoType: reflect.TypeFor[*StringImm](), View: as[*StringImm],
	})
	dataTypeImmType = runtime.MustRegister(runtime.Kind{
		Key: DataTypeImmKey, Parent: LeafExprKey,
		Layout: fields("value", "DataType"),
		GoType: reflect.TypeFor[*DataTypeImm](), View: as[*DataTypeImm],
	})
	seqExprType = runtime.MustRegister(runtime.Kind{
		Key: SeqExprKey, Parent: ExprKey,
		Layout: fields("blocks", "[]BindingBlock", "body", "Expr"),
		GoType: reflect.TypeFor[*SeqExpr](), View: as[*SeqExpr],
	})

	baseFuncType = runtime.MustRegister(runtime.Kind{
		Key: BaseFuncKey, Parent: ExprKey,
		Layout: fields("attrs", "DictAttrs?"),
		GoType: reflect.TypeFor[BaseFunc](), View: as[BaseFunc],
	})
	functionType = runtime.MustRegister(runtime.Kind{
		Key: FunctionKey, Parent: BaseFuncKey,
		Layout: fields("params", "[]Var", "body", "Expr", "ret_struct_info", "StructInfo?", "is_pure", "bool"),
		GoType: reflect.TypeFor[*Function](), View: as[*Function],
	})
	externFuncType = runtime.MustRegister(runtime.Kind{
		Key: ExternFuncKey, Parent: BaseFuncKey,
		Layout: fields("global_symbol", "string"),
		GoType: reflect.TypeFor[*ExternFunc](), View: as[*ExternFunc],
	})

	bindingType = runtime.MustRegister(runtime.Kind{
		Key: BindingKey, Parent: runtime.ObjectKey,
		Layout: fields("var", "Var", "span", "Span"),
		GoType: reflect.TypeFor[Binding](), View: as[Binding],
	})
	varBindingType = runtime.MustRegister(runtime.Kind{
		Key: VarBindingKey, Parent: BindingKey,
		Layout: fields("value", "Expr"),
		GoType: reflect.TypeFor[*VarBinding](), View: as[*VarBinding],
	})
	matchCastType = runtime.MustRegister(runtime.Kind{
		Key: MatchCastKey, Parent: BindingKey,
		Layout: fields("value", "Expr", "struct_info", "StructInfo"),
		GoType: reflect.TypeFor[*MatchCast](), View: as[*MatchCast],
	})
	bindingBlockType = runtime.MustRegister(runtime.Kind{
		Key: BindingBlockKey, Parent: runtime.ObjectKey,
		Layout: fields("bindings", "[]Binding", "span", "Span"),
		GoType: reflect.TypeFor[*BindingBlock](),
		View: func(o runtime.Object) (runtime.Object, bool) {
			b, ok := o.(interface{ AsBindingBlock() *BindingBlock })
			if !ok {
				return nil, false
			}
			return b.AsBindingBlock(), true
		},
	})
	dataflowBlockType = runtime.MustRegister(runtime.Kind{
		Key: DataflowBlockKey, Parent: BindingBlockKey,
		GoType: reflect.TypeFor[*DataflowBlock](), View: as[*DataflowBlock],
	})
)
