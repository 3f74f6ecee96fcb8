package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relaxir/internal/runtime"
)

func TestVar_NameHintWithoutStructInfo(t *testing.T) {
	obj, err := NewVar("x", nil, NewSpan("test_var", 0, 0, 0, 0))
	require.NoError(t, err)

	v, err := runtime.Downcast[*Var](runtime.Object(obj))
	require.NoError(t, err)
	assert.Equal(t, "x", v.Vid().NameHint())
	assert.Nil(t, v.StructInfo())
}

func TestVar_IdentityEquality(t *testing.T) {
	a := mustVar(t, "x")
	b := mustVar(t, "x")

	assert.False(t, runtime.Equal(a, b), "separately built vars differ")
	assert.True(t, runtime.Equal(a, a))

	// any chain of views is still the same var
	var e Expr = a
	var leaf LeafExpr = a
	back, err := runtime.Downcast[*Var](e)
	require.NoError(t, err)
	assert.True(t, runtime.Equal(a, back))
	assert.True(t, runtime.Equal(leaf, e))
}

func TestVar_FromSharedIdAreEqual(t *testing.T) {
	vid := NewId("x")
	a, err := NewVarFromId(vid, nil, Span{})
	require.NoError(t, err)
	b, err := NewVarFromId(vid, nil, Span{})
	require.NoError(t, err)
	dv, err := NewDataflowVarFromId(vid, nil, Span{})
	require.NoError(t, err)

	assert.False(t, runtime.Same(a, b))
	assert.True(t, runtime.Equal(a, b))
	assert.True(t, runtime.Equal(dv, a))
	assert.Same(t, a.Vid(), dv.Vid())
}

func TestVarFromId_NilIdFails(t *testing.T) {
	_, err := NewVarFromId(nil, nil, Span{})
	requireInvalid(t, err, "vid")

	var failed *Id
	_, err = NewDataflowVarFromId(failed, nil, Span{})
	requireInvalid(t, err, "vid")
}

func TestVar_KeepsStructInfo(t *testing.T) {
	sinfo, err := NewTensorStructInfo(nil, runtime.Float(32), 2, Span{})
	require.NoError(t, err)
	v, err := NewVar("x", sinfo, Span{})
	require.NoError(t, err)

	assert.True(t, runtime.Same(sinfo, v.StructInfo()))
	assert.Equal(t, int32(2), runtime.RefCount(sinfo))
}

func TestConstant_DataShape(t *testing.T) {
	data, err := runtime.EmptyNDArray([]int64{1, 2, 3}, runtime.CPU(0), runtime.Float(32))
	require.NoError(t, err)

	obj, err := NewConstant(data, nil, NewSpan("test_const", 0, 0, 0, 0))
	require.NoError(t, err)

	c, err := runtime.Downcast[*Constant](runtime.Object(obj))
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Data().Shape()[1])
}

func TestConstant_InfersTensorStructInfo(t *testing.T) {
	c := mustConstant(t, 1, 2, 3)

	ts, err := runtime.Downcast[*TensorStructInfo](c.StructInfo())
	require.NoError(t, err)
	assert.Equal(t, 3, ts.NDim())
	assert.Equal(t, runtime.Float(32), ts.DType())

	shape, err := runtime.Downcast[*ShapeExpr](ts.Shape())
	require.NoError(t, err)
	var dims []int64
	for _, v := range shape.Values() {
		dims = append(dims, runtime.MustDowncast[*IntImm](v).Value())
	}
	assert.Equal(t, []int64{1, 2, 3}, dims)
}

func TestConstant_ExplicitStructInfoWins(t *testing.T) {
	sinfo := NewObjectStructInfo(Span{})
	c, err := NewConstant(mustNDArray(t, 4), sinfo, Span{})
	require.NoError(t, err)
	assert.True(t, runtime.Same(sinfo, c.StructInfo()))
}

func TestConstant_NilDataFails(t *testing.T) {
	_, err := NewConstant(nil, nil, Span{})
	requireInvalid(t, err, "data")
}

func TestCall_OpIdentity(t *testing.T) {
	op := mustVar(t, "op")

	obj, err := NewCall(op, []Expr{}, nil, []StructInfo{}, NewSpan("test_call", 0, 0, 0, 0))
	require.NoError(t, err)

	call, err := runtime.Downcast[*Call](runtime.Object(obj))
	require.NoError(t, err)
	assert.True(t, runtime.Equal(call.Op(), op))
	assert.Empty(t, call.Args())
	assert.Nil(t, call.Attrs())
}

func TestCall_ThroughExternFunc(t *testing.T) {
	ext, err := NewExternFunc("vm.builtin.alloc", Span{})
	require.NoError(t, err)
	call, err := NewCall(ext, []Expr{mustConstant(t, 2)}, nil, nil, Span{})
	require.NoError(t, err)
	assert.Equal(t, ExternFuncKey, runtime.TypeOf(call.Op()))
}

func TestCall_MissingChildren(t *testing.T) {
	op := mustVar(t, "op")
	var failed *Var

	_, err := NewCall(nil, nil, nil, nil, Span{})
	requireInvalid(t, err, "op")

	_, err = NewCall(failed, nil, nil, nil, Span{})
	requireInvalid(t, err, "op")

	_, err = NewCall(op, []Expr{op, failed}, nil, nil, Span{})
	requireInvalid(t, err, "args[1]")

	_, err = NewCall(op, nil, nil, []StructInfo{nil}, Span{})
	requireInvalid(t, err, "sinfo_args[0]")

	// nothing was retained by the failed attempts
	assert.Equal(t, int32(1), runtime.RefCount(op))
}

func TestCall_ReleasedChildFails(t *testing.T) {
	op := mustVar(t, "op")
	arg := mustVar(t, "a")
	require.True(t, runtime.Release(arg))

	_, err := NewCall(op, []Expr{arg}, nil, nil, Span{})
	requireInvalid(t, err, "args[0]")
}

func TestCall_ArgsAreCopied(t *testing.T) {
	a, b := mustVar(t, "a"), mustVar(t, "b")
	args := []Expr{a}
	call, err := NewCall(mustVar(t, "f"), args, nil, nil, Span{})
	require.NoError(t, err)

	args[0] = b
	assert.True(t, runtime.Same(call.Args()[0], a))

	got := call.Args()
	got[0] = b
	assert.True(t, runtime.Same(call.Args()[0], a))
}

func TestNode_ReleasingParentReleasesChildren(t *testing.T) {
	op, arg := mustVar(t, "op"), mustVar(t, "arg")
	call, err := NewCall(op, []Expr{arg}, nil, nil, Span{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), runtime.RefCount(op))

	runtime.Release(op)
	runtime.Release(arg)
	assert.True(t, runtime.Alive(op), "the call still owns op")

	require.True(t, runtime.Release(call))
	assert.False(t, runtime.Alive(op))
	assert.False(t, runtime.Alive(arg))
	assert.False(t, runtime.Alive(op.Vid()))
}

func TestTupleGetItem_Index(t *testing.T) {
	tup, err := NewTuple(nil, Span{})
	require.NoError(t, err)

	_, err = NewTupleGetItem(tup, -1, Span{})
	requireInvalid(t, err, "index")

	// arity is not checked at construction
	item, err := NewTupleGetItem(tup, 0, Span{})
	require.NoError(t, err)
	assert.Equal(t, 0, item.Index())

	item, err = NewTupleGetItem(mustVar(t, "t"), 0, Span{})
	require.NoError(t, err)
	assert.Equal(t, VarKey, runtime.TypeOf(item.Tuple()))

	_, err = NewTupleGetItem(tup, math.MaxInt32+1, Span{})
	requireInvalid(t, err, "index")

	_, err = NewTupleGetItem(nil, 0, Span{})
	requireInvalid(t, err, "tuple")
}

func TestIf_RequiresAllBranches(t *testing.T) {
	c := mustVar(t, "c")
	_, err := NewIf(c, c, nil, Span{})
	requireInvalid(t, err, "false_branch")

	n, err := NewIf(c, c, c, testSpan)
	require.NoError(t, err)
	assert.Equal(t, testSpan, n.Span())
	assert.Equal(t, int32(4), runtime.RefCount(c))
}

func TestTuple_Fields(t *testing.T) {
	x, y := mustVar(t, "x"), mustVar(t, "y")
	tup, err := NewTuple([]Expr{x, y, x}, Span{})
	require.NoError(t, err)
	assert.Equal(t, 3, tup.Len())
	assert.True(t, runtime.Same(tup.Fields()[2], x))
}

func TestShapeExpr(t *testing.T) {
	s := mustShape(t, 2, 3)
	assert.Equal(t, 2, s.NDim())
	assert.Equal(t, "shape", s.ID().NameHint())

	f, err := NewFloatImm(runtime.Float(32), 1.5, Span{})
	require.NoError(t, err)
	_, err = NewShapeExpr([]PrimExpr{f}, Span{})
	requireInvalid(t, err, "values")
}

func TestPrimValue(t *testing.T) {
	imm := mustInt64(t, 7)
	pv, err := NewPrimValue(imm, Span{})
	require.NoError(t, err)
	assert.True(t, runtime.Same(imm, pv.Value()))

	_, err = NewPrimValue(nil, Span{})
	requireInvalid(t, err, "value")
}

func TestIntImm_Range(t *testing.T) {
	tests := []struct {
		name  string
		dtype runtime.DataType
		value int64
		ok    bool
	}{
		{"int8 max", runtime.Int(8), 127, true},
		{"int8 overflow", runtime.Int(8), 128, false},
		{"int8 min", runtime.Int(8), -128, true},
		{"uint8 negative", runtime.UInt(8), -1, false},
		{"uint8 max", runtime.UInt(8), 255, true},
		{"bool one", runtime.Bool(), 1, true},
		{"bool two", runtime.Bool(), 2, false},
		{"int64 any", runtime.Int(64), math.MinInt64, true},
		{"float dtype", runtime.Float(32), 1, false},
		{"vector dtype", runtime.Int(32).WithLanes(4), 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIntImm(tt.dtype, tt.value, Span{})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			}
		})
	}
}

func TestPrimExpr_StructuralEquality(t *testing.T) {
	assert.True(t, runtime.Equal(mustInt64(t, 3), mustInt64(t, 3)))
	assert.False(t, runtime.Equal(mustInt64(t, 3), mustInt64(t, 4)))

	i32, err := NewIntImm(runtime.Int(32), 3, Span{})
	require.NoError(t, err)
	assert.False(t, runtime.Equal(mustInt64(t, 3), i32))
}

func TestStringAndDataTypeImm(t *testing.T) {
	s, err := NewStringImm("hello", Span{})
	require.NoError(t, err)
	assert.Equal(t, "hello", s.Value())

	d, err := NewDataTypeImm(runtime.Float(16), Span{})
	require.NoError(t, err)
	assert.Equal(t, "float16", d.Value().String())

	_, err = NewDataTypeImm(runtime.DataType{}, Span{})
	requireInvalid(t, err, "value")
}

func TestTensorStructInfo(t *testing.T) {
	shape := mustShape(t, 2, 3)

	ts, err := NewTensorStructInfo(shape, runtime.Float(32), UnknownNDim, Span{})
	require.NoError(t, err)
	assert.Equal(t, 2, ts.NDim(), "rank comes from the shape")

	_, err = NewTensorStructInfo(shape, runtime.Float(32), 3, Span{})
	requireInvalid(t, err, "ndim")

	_, err = NewTensorStructInfo(nil, runtime.Float(32), -2, Span{})
	requireInvalid(t, err, "ndim")

	unknown, err := NewTensorStructInfo(nil, runtime.DataType{}, UnknownNDim, Span{})
	require.NoError(t, err)
	assert.Nil(t, unknown.Shape())
	assert.Equal(t, UnknownNDim, unknown.NDim())
}

func TestSeqExpr_CarriesBodyStructInfo(t *testing.T) {
	c := mustConstant(t, 2, 2)
	x := mustVar(t, "x")
	bb, err := NewBindingBlock([]Binding{mustVarBinding(t, x, c)}, Span{})
	require.NoError(t, err)

	seq, err := NewSeqExpr([]*BindingBlock{bb}, c, Span{})
	require.NoError(t, err)
	assert.True(t, runtime.Same(seq.StructInfo(), c.StructInfo()))
	assert.Len(t, seq.Blocks(), 1)

	_, err = NewSeqExpr([]*BindingBlock{bb}, nil, Span{})
	requireInvalid(t, err, "body")
}

func TestSeqExpr_AcceptsDataflowBlockView(t *testing.T) {
	lv := mustDataflowVar(t, "lv")
	db, err := NewDataflowBlock([]Binding{mustVarBinding(t, &lv.Var, mustConstant(t, 1))}, Span{})
	require.NoError(t, err)

	seq, err := NewSeqExpr([]*BindingBlock{&db.BindingBlock}, lv, Span{})
	require.NoError(t, err)
	assert.True(t, seq.Blocks()[0].IsDataflow())
	assert.Equal(t, DataflowBlockKey, runtime.TypeOf(seq.Blocks()[0]))
}
