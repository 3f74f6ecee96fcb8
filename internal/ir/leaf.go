package ir

import (
	"slices"

	"github.com/roach88/relaxir/internal/runtime"
)

// Id is a nominal identity token. Two Ids are distinct objects even when their
// name hints are equal; variable equality is decided by Id identity.
type Id struct {
	runtime.Header
	nameHint string
}

// NewId creates a fresh identity.
func NewId(nameHint string) *Id {
	id := &Id{nameHint: nameHint}
	runtime.Init(id, idType)
	return id
}

// NameHint returns the name the Id was created with. It is a hint for
// printing only.
func (id *Id) NameHint() string { return id.nameHint }

// LeafExpr is an atomic expression.
type LeafExpr interface {
	Expr
	leafExprBase() *LeafExprBase
}

// LeafExprBase is the parent of every leaf expression. It adds no fields.
type LeafExprBase struct {
	ExprBase
}

func (l *LeafExprBase) leafExprBase() *LeafExprBase { return l }

// ShapeExpr is a symbolic shape: one integer PrimExpr per dimension.
type ShapeExpr struct {
	LeafExprBase
	id     *Id
	values []PrimExpr
}

// NewShapeExpr builds a shape from its dimensions, each of which must have an
// integer dtype.
func NewShapeExpr(values []PrimExpr, span Span) (*ShapeExpr, error) {
	if err := requiredEach(ShapeExprKey, "values", values); err != nil {
		return nil, err
	}
	for i, v := range values {
		if !v.DType().IsInt() {
			return nil, invalid(ShapeExprKey, "values", "dimension %d has non-integer dtype %s", i, v.DType())
		}
	}
	s := &ShapeExpr{
		id:     NewId("shape"),
		values: retainAll(values),
	}
	s.initExpr(span, nil)
	runtime.Init(s, shapeExprType)
	return s, nil
}

// Dispose releases the id and dimensions.
func (s *ShapeExpr) Dispose() {
	runtime.Release(s.id)
	releaseAll(s.values)
	s.releaseExpr()
}

// ID returns the shape's identity token.
func (s *ShapeExpr) ID() *Id { return s.id }

// Values returns a copy of the dimensions.
func (s *ShapeExpr) Values() []PrimExpr { return slices.Clone(s.values) }

// NDim returns the number of dimensions.
func (s *ShapeExpr) NDim() int { return len(s.values) }

// Var is a variable. Equality is identity of its Id.
type Var struct {
	LeafExprBase
	vid *Id
}

// NewVar creates a variable with a fresh Id. sinfo may be nil: a variable
// without struct info is a first-class state.
func NewVar(nameHint string, sinfo StructInfo, span Span) (*Var, error) {
	vid := NewId(nameHint)
	defer runtime.Release(vid)
	return NewVarFromId(vid, sinfo, span)
}

// NewVarFromId creates a variable bound to an existing Id. Variables built
// from the same Id are equal.
func NewVarFromId(vid *Id, sinfo StructInfo, span Span) (*Var, error) {
	v := &Var{}
	if err := v.initVar(VarKey, vid, sinfo, span); err != nil {
		return nil, err
	}
	runtime.Init(v, varType)
	return v, nil
}

func (v *Var) initVar(node string, vid *Id, sinfo StructInfo, span Span) error {
	if err := required(node, "vid", vid); err != nil {
		return err
	}
	sinfo, err := optional(node, "struct_info", sinfo)
	if err != nil {
		return err
	}
	v.vid = runtime.Retain(vid)
	v.initExpr(span, sinfo)
	return nil
}

// Dispose releases the Id and struct info.
func (v *Var) Dispose() {
	runtime.Release(v.vid)
	v.releaseExpr()
}

// AsVar returns the Var view. DataflowVar inherits it.
func (v *Var) AsVar() *Var { return v }

// Vid returns the identity token.
func (v *Var) Vid() *Id { return v.vid }

// NameHint is shorthand for Vid().NameHint().
func (v *Var) NameHint() string { return v.vid.nameHint }

// EqualObject holds when other is a variable sharing this variable's Id.
func (v *Var) EqualObject(other runtime.Object) bool {
	o, err := runtime.Downcast[*Var](other)
	return err == nil && o.vid == v.vid
}

// DataflowVar is a variable confined to a dataflow block.
type DataflowVar struct {
	Var
}

// NewDataflowVar creates a dataflow variable with a fresh Id.
func NewDataflowVar(nameHint string, sinfo StructInfo, span Span) (*DataflowVar, error) {
	vid := NewId(nameHint)
	defer runtime.Release(vid)
	return NewDataflowVarFromId(vid, sinfo, span)
}

// NewDataflowVarFromId creates a dataflow variable bound to an existing Id.
func NewDataflowVarFromId(vid *Id, sinfo StructInfo, span Span) (*DataflowVar, error) {
	v := &DataflowVar{}
	if err := v.initVar(DataflowVarKey, vid, sinfo, span); err != nil {
		return nil, err
	}
	runtime.Init(v, dataflowVarType)
	return v, nil
}

// IsDataflowVar reports whether v's runtime type is DataflowVar.
func IsDataflowVar(v *Var) bool {
	return runtime.IsInstance[*DataflowVar](v)
}

// Constant is a tensor literal.
type Constant struct {
	LeafExprBase
	data *runtime.NDArray
}

// NewConstant wraps data. When sinfo is nil, the constant carries a
// TensorStructInfo derived from the array's shape and dtype.
func NewConstant(data *runtime.NDArray, sinfo StructInfo, span Span) (*Constant, error) {
	if err := required(ConstantKey, "data", data); err != nil {
		return nil, err
	}
	sinfo, err := optional(ConstantKey, "struct_info", sinfo)
	if err != nil {
		return nil, err
	}
	if sinfo == nil {
		inferred, err := tensorInfoOf(data, span)
		if err != nil {
			return nil, err
		}
		defer runtime.Release(inferred)
		sinfo = inferred
	}

	c := &Constant{data: runtime.Retain(data)}
	c.initExpr(span, sinfo)
	runtime.Init(c, constantType)
	return c, nil
}

func tensorInfoOf(data *runtime.NDArray, span Span) (*TensorStructInfo, error) {
	shape, err := ShapeOfArray(data, span)
	if err != nil {
		return nil, err
	}
	defer runtime.Release(shape)
	return NewTensorStructInfo(shape, data.DType(), data.NDim(), span)
}

// ShapeOfArray returns a ShapeExpr holding the extents of data as int64
// literals.
func ShapeOfArray(data *runtime.NDArray, span Span) (*ShapeExpr, error) {
	extents := data.Shape()
	dims := make([]PrimExpr, 0, len(extents))
	defer func() { releaseAll(dims) }()
	for _, n := range extents {
		imm, err := NewIntImm(runtime.Int(64), n, span)
		if err != nil {
			return nil, err
		}
		dims = append(dims, imm)
	}
	return NewShapeExpr(dims, span)
}

// Dispose releases the data.
func (c *Constant) Dispose() {
	runtime.Release(c.data)
	c.releaseExpr()
}

// Data returns the tensor payload.
func (c *Constant) Data() *runtime.NDArray { return c.data }

// PrimValue lifts a scalar PrimExpr into a Relax expression.
type PrimValue struct {
	LeafExprBase
	value PrimExpr
}

// NewPrimValue wraps value.
func NewPrimValue(value PrimExpr, span Span) (*PrimValue, error) {
	if err := required(PrimValueKey, "value", value); err != nil {
		return nil, err
	}
	p := &PrimValue{value: runtime.Retain(value)}
	p.initExpr(span, nil)
	runtime.Init(p, primValueType)
	return p, nil
}

// Dispose releases the value.
func (p *PrimValue) Dispose() {
	runtime.Release(p.value)
	p.releaseExpr()
}

// Value returns the scalar expression.
func (p *PrimValue) Value() PrimExpr { return p.value }

// StringImm is a string literal.
type StringImm struct {
	LeafExprBase
	value string
}

// NewStringImm builds a string literal.
func NewStringImm(value string, span Span) (*StringImm, error) {
	s := &StringImm{value: value}
	s.initExpr(span, nil)
	runtime.Init(s, stringImmType)
	return s, nil
}

// Value returns the literal.
func (s *StringImm) Value() string { return s.value }

// DataTypeImm is a data type literal.
type DataTypeImm struct {
	LeafExprBase
	value runtime.DataType
}

// NewDataTypeImm builds a data type literal.
func NewDataTypeImm(value runtime.DataType, span Span) (*DataTypeImm, error) {
	if !value.Valid() {
		return nil, invalid(DataTypeImmKey, "value", "%s is not a valid data type", value)
	}
	d := &DataTypeImm{value: value}
	d.initExpr(span, nil)
	runtime.Init(d, dataTypeImmType)
	return d, nil
}

// Value returns the literal.
func (d *DataTypeImm) Value() runtime.DataType { return d.value }
