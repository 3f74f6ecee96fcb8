package ir

import (
	"math"
	"slices"

	"github.com/roach88/relaxir/internal/runtime"
)

// Expr is any Relax expression. Every expression may carry a span and at most
// one StructInfo.
type Expr interface {
	runtime.Object
	Span() Span
	StructInfo() StructInfo
	exprBase() *ExprBase
}

// ExprBase holds the fields shared by every Expr.
type ExprBase struct {
	runtime.Header
	span  Span
	sinfo StructInfo
}

// Span returns the source location.
func (e *ExprBase) Span() Span { return e.span }

// StructInfo returns the attached struct info, or nil when absent.
func (e *ExprBase) StructInfo() StructInfo { return e.sinfo }

func (e *ExprBase) exprBase() *ExprBase { return e }

func (e *ExprBase) releaseExpr() { runtime.Release(e.sinfo) }

func (e *ExprBase) initExpr(span Span, sinfo StructInfo) {
	e.span = span
	e.sinfo = retainOptional(sinfo)
}

// Call applies Op to Args. Op may be any expression, so calls through a Var
// or an ExternFunc are expressible.
type Call struct {
	ExprBase
	op        Expr
	args      []Expr
	attrs     *DictAttrs
	sinfoArgs []StructInfo
}

// NewCall builds a call. attrs may be nil.
func NewCall(op Expr, args []Expr, attrs *DictAttrs, sinfoArgs []StructInfo, span Span) (*Call, error) {
	if err := required(CallKey, "op", op); err != nil {
		return nil, err
	}
	if err := requiredEach(CallKey, "args", args); err != nil {
		return nil, err
	}
	attrs, err := optional(CallKey, "attrs", attrs)
	if err != nil {
		return nil, err
	}
	if err := requiredEach(CallKey, "sinfo_args", sinfoArgs); err != nil {
		return nil, err
	}

	c := &Call{
		op:        runtime.Retain(op),
		args:      retainAll(args),
		attrs:     retainOptional(attrs),
		sinfoArgs: retainAll(sinfoArgs),
	}
	c.initExpr(span, nil)
	runtime.Init(c, callType)
	return c, nil
}

// Dispose releases the operator, arguments, attributes and struct info args.
func (c *Call) Dispose() {
	runtime.Release(c.op)
	releaseAll(c.args)
	runtime.Release(c.attrs)
	releaseAll(c.sinfoArgs)
	c.releaseExpr()
}

// Op returns the callee.
func (c *Call) Op() Expr { return c.op }

// Args returns a copy of the arguments.
func (c *Call) Args() []Expr { return slices.Clone(c.args) }

// Attrs returns the call attributes, or nil.
func (c *Call) Attrs() *DictAttrs { return c.attrs }

// SInfoArgs returns a copy of the struct info arguments.
func (c *Call) SInfoArgs() []StructInfo { return slices.Clone(c.sinfoArgs) }

// If selects between two branches.
type If struct {
	ExprBase
	cond        Expr
	trueBranch  Expr
	falseBranch Expr
}

// NewIf builds a conditional.
func NewIf(cond, trueBranch, falseBranch Expr, span Span) (*If, error) {
	if err := required(IfKey, "cond", cond); err != nil {
		return nil, err
	}
	if err := required(IfKey, "true_branch", trueBranch); err != nil {
		return nil, err
	}
	if err := required(IfKey, "false_branch", falseBranch); err != nil {
		return nil, err
	}

	n := &If{
		cond:        runtime.Retain(cond),
		trueBranch:  runtime.Retain(trueBranch),
		falseBranch: runtime.Retain(falseBranch),
	}
	n.initExpr(span, nil)
	runtime.Init(n, ifType)
	return n, nil
}

// Dispose releases the condition and both branches.
func (n *If) Dispose() {
	runtime.Release(n.cond)
	runtime.Release(n.trueBranch)
	runtime.Release(n.falseBranch)
	n.releaseExpr()
}

func (n *If) Cond() Expr        { return n.cond }
func (n *If) TrueBranch() Expr  { return n.trueBranch }
func (n *If) FalseBranch() Expr { return n.falseBranch }

// Tuple groups expressions.
type Tuple struct {
	ExprBase
	fields []Expr
}

// NewTuple builds a tuple. The empty tuple is valid.
func NewTuple(fields []Expr, span Span) (*Tuple, error) {
	if err := requiredEach(TupleKey, "fields", fields); err != nil {
		return nil, err
	}
	t := &Tuple{
		fields: retainAll(fields),
	}
	t.initExpr(span, nil)
	runtime.Init(t, tupleType)
	return t, nil
}

// Dispose releases the fields.
func (t *Tuple) Dispose() {
	releaseAll(t.fields)
	t.releaseExpr()
}

// Fields returns a copy of the fields.
func (t *Tuple) Fields() []Expr { return slices.Clone(t.fields) }

// Len returns the arity.
func (t *Tuple) Len() int { return len(t.fields) }

// TupleGetItem projects one field out of a tuple-valued expression.
type TupleGetItem struct {
	ExprBase
	tuple Expr
	index int
}

// NewTupleGetItem builds a projection. The index must be non-negative and
// representable as a 32-bit integer. It is not checked against the tuple's
// arity, which may not be known yet.
func NewTupleGetItem(tuple Expr, index int, span Span) (*TupleGetItem, error) {
	if err := required(TupleGetItemKey, "tuple", tuple); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, invalid(TupleGetItemKey, "index", "%d is negative", index)
	}
	if index > math.MaxInt32 {
		return nil, invalid(TupleGetItemKey, "index", "%d is out of range", index)
	}
	g := &TupleGetItem{
		tuple: runtime.Retain(tuple),
		index: index,
	}
	g.initExpr(span, nil)
	runtime.Init(g, tupleGetItemType)
	return g, nil
}

// Dispose releases the tuple.
func (g *TupleGetItem) Dispose() {
	runtime.Release(g.tuple)
	g.releaseExpr()
}

func (g *TupleGetItem) Tuple() Expr { return g.tuple }
func (g *TupleGetItem) Index() int  { return g.index }

// SeqExpr evaluates binding blocks in order and then its body. It carries the
// struct info of its body.
type SeqExpr struct {
	ExprBase
	blocks []*BindingBlock
	body   Expr
}

// NewSeqExpr builds a sequence expression. A DataflowBlock is passed through
// its BindingBlock view.
func NewSeqExpr(blocks []*BindingBlock, body Expr, span Span) (*SeqExpr, error) {
	if err := requiredEach(SeqExprKey, "blocks", blocks); err != nil {
		return nil, err
	}
	if err := required(SeqExprKey, "body", body); err != nil {
		return nil, err
	}
	s := &SeqExpr{
		blocks: retainAll(blocks),
		body:   runtime.Retain(body),
	}
	s.initExpr(span, body.StructInfo())
	runtime.Init(s, seqExprType)
	return s, nil
}

// Dispose releases the blocks and the body.
func (s *SeqExpr) Dispose() {
	releaseAll(s.blocks)
	runtime.Release(s.body)
	s.releaseExpr()
}

// Blocks returns a copy of the blocks.
func (s *SeqExpr) Blocks() []*BindingBlock { return slices.Clone(s.blocks) }

// Body returns the result expression.
func (s *SeqExpr) Body() Expr { return s.body }
