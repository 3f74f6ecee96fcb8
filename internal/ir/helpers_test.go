package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/relaxir/internal/runtime"
)

var testSpan = NewSpan("test", 1, 1, 1, 10)

func mustVar(t *testing.T, name string) *Var {
	t.Helper()
	v, err := NewVar(name, nil, testSpan)
	require.NoError(t, err)
	return v
}

func mustDataflowVar(t *testing.T, name string) *DataflowVar {
	t.Helper()
	v, err := NewDataflowVar(name, nil, testSpan)
	require.NoError(t, err)
	return v
}

func mustNDArray(t *testing.T, shape ...int64) *runtime.NDArray {
	t.Helper()
	a, err := runtime.EmptyNDArray(shape, runtime.CPU(0), runtime.Float(32))
	require.NoError(t, err)
	return a
}

func mustConstant(t *testing.T, shape ...int64) *Constant {
	t.Helper()
	c, err := NewConstant(mustNDArray(t, shape...), nil, testSpan)
	require.NoError(t, err)
	return c
}

func mustInt64(t *testing.T, v int64) *IntImm {
	t.Helper()
	imm, err := NewIntImm(runtime.Int(64), v, Span{})
	require.NoError(t, err)
	return imm
}

func mustShape(t *testing.T, dims ...int64) *ShapeExpr {
	t.Helper()
	values := make([]PrimExpr, len(dims))
	for i, d := range dims {
		values[i] = mustInt64(t, d)
	}
	s, err := NewShapeExpr(values, testSpan)
	require.NoError(t, err)
	return s
}

func mustVarBinding(t *testing.T, v *Var, value Expr) *VarBinding {
	t.Helper()
	b, err := NewVarBinding(v, value, testSpan)
	require.NoError(t, err)
	return b
}

func requireInvalid(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)
	var ia *InvalidArgumentError
	require.ErrorAs(t, err, &ia)
	require.Equal(t, field, ia.Field, "error: %v", err)
}
