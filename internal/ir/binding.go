package ir

import (
	"slices"
	"strconv"

	"github.com/roach88/relaxir/internal/runtime"
)

// Binding binds a variable inside a block.
type Binding interface {
	runtime.Object
	Var() *Var
	Value() Expr
	Span() Span
	bindingBase() *BindingBase
}

// BindingBase holds the fields shared by every Binding.
type BindingBase struct {
	runtime.Header
	v    *Var
	span Span
}

// Var returns the bound variable.
func (b *BindingBase) Var() *Var { return b.v }

// Span returns the source location.
func (b *BindingBase) Span() Span { return b.span }

func (b *BindingBase) bindingBase() *BindingBase { return b }

func (b *BindingBase) initBinding(node string, v *Var, value Expr, span Span) error {
	if err := required(node, "var", v); err != nil {
		return err
	}
	if err := required(node, "value", value); err != nil {
		return err
	}
	b.v = runtime.Retain(v)
	b.span = span
	return nil
}

// VarBinding binds Var to Value.
type VarBinding struct {
	BindingBase
	value Expr
}

// NewVarBinding builds var := value.
func NewVarBinding(v *Var, value Expr, span Span) (*VarBinding, error) {
	b := &VarBinding{}
	if err := b.initBinding(VarBindingKey, v, value, span); err != nil {
		return nil, err
	}
	b.value = runtime.Retain(value)
	runtime.Init(b, varBindingType)
	return b, nil
}

// Dispose releases the variable and value.
func (b *VarBinding) Dispose() {
	runtime.Release(b.v)
	runtime.Release(b.value)
}

// Value returns the bound expression.
func (b *VarBinding) Value() Expr { return b.value }

// MatchCast binds Var to Value while asserting that Value matches StructInfo.
type MatchCast struct {
	BindingBase
	value Expr
	sinfo StructInfo
}

// NewMatchCast builds a match-cast binding.
func NewMatchCast(v *Var, value Expr, sinfo StructInfo, span Span) (*MatchCast, error) {
	if err := required(MatchCastKey, "struct_info", sinfo); err != nil {
		return nil, err
	}
	m := &MatchCast{}
	if err := m.initBinding(MatchCastKey, v, value, span); err != nil {
		return nil, err
	}
	m.value = runtime.Retain(value)
	m.sinfo = runtime.Retain(sinfo)
	runtime.Init(m, matchCastType)
	return m, nil
}

// Dispose releases the variable, value and struct info.
func (m *MatchCast) Dispose() {
	runtime.Release(m.v)
	runtime.Release(m.value)
	runtime.Release(m.sinfo)
}

// Value returns the expression being cast.
func (m *MatchCast) Value() Expr { return m.value }

// StructInfo returns the asserted struct info.
func (m *MatchCast) StructInfo() StructInfo { return m.sinfo }

// BindingBlock is an ordered list of bindings.
type BindingBlock struct {
	runtime.Header
	bindings []Binding
	span     Span
}

// NewBindingBlock builds a block. A binding block may not bind a DataflowVar.
func NewBindingBlock(bindings []Binding, span Span) (*BindingBlock, error) {
	if err := requiredEach(BindingBlockKey, "bindings", bindings); err != nil {
		return nil, err
	}
	for i, b := range bindings {
		if IsDataflowVar(b.Var()) {
			return nil, invalid(BindingBlockKey, bindingField(i),
				"dataflow var %q may only be bound inside a dataflow block", b.Var().NameHint())
		}
	}
	bb := &BindingBlock{}
	bb.initBlock(bindings, span)
	runtime.Init(bb, bindingBlockType)
	return bb, nil
}

func (bb *BindingBlock) initBlock(bindings []Binding, span Span) {
	bb.bindings = retainAll(bindings)
	bb.span = span
}

func bindingField(i int) string {
	return "bindings[" + strconv.Itoa(i) + "]"
}

// Dispose releases the bindings.
func (bb *BindingBlock) Dispose() { releaseAll(bb.bindings) }

// AsBindingBlock returns the BindingBlock view. DataflowBlock inherits it.
func (bb *BindingBlock) AsBindingBlock() *BindingBlock { return bb }

// Bindings returns a copy of the bindings.
func (bb *BindingBlock) Bindings() []Binding { return slices.Clone(bb.bindings) }

// Len returns the number of bindings.
func (bb *BindingBlock) Len() int { return len(bb.bindings) }

// Span returns the source location.
func (bb *BindingBlock) Span() Span { return bb.span }

// IsDataflow reports whether the block's runtime type is DataflowBlock.
func (bb *BindingBlock) IsDataflow() bool {
	return runtime.IsInstance[*DataflowBlock](bb)
}

// DataflowBlock is a side-effect-free region. Every binding except the last
// must target a DataflowVar; the last is the value the block exposes.
type DataflowBlock struct {
	BindingBlock
}

// NewDataflowBlock builds a dataflow block.
func NewDataflowBlock(bindings []Binding, span Span) (*DataflowBlock, error) {
	if err := requiredEach(DataflowBlockKey, "bindings", bindings); err != nil {
		return nil, err
	}
	for i, b := range bindings {
		if i == len(bindings)-1 {
			break
		}
		if !IsDataflowVar(b.Var()) {
			return nil, invalid(DataflowBlockKey, bindingField(i),
				"var %q escapes the dataflow block before its last binding", b.Var().NameHint())
		}
	}
	db := &DataflowBlock{}
	db.initBlock(bindings, span)
	runtime.Init(db, dataflowBlockType)
	return db, nil
}
