package engine

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
)

func newTestEngine(t *testing.T) *Local {
	t.Helper()
	e, err := New(WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	return e
}

// invokeNode calls name and narrows the result to T. The caller owns it.
func invokeNode[T runtime.Object](t *testing.T, e *Local, name string, args ...runtime.Value) T {
	t.Helper()
	out, err := e.Invoke(name, args)
	require.NoError(t, err)
	obj, err := out.AsObject()
	require.NoError(t, err)
	node, err := runtime.Downcast[T](obj)
	require.NoError(t, err)
	t.Cleanup(func() { runtime.Release(obj) })
	return node
}

func mustTensor(t *testing.T, shape ...int64) *runtime.NDArray {
	t.Helper()
	arr, err := runtime.EmptyNDArray(shape, runtime.CPU(0), runtime.Float(32))
	require.NoError(t, err)
	t.Cleanup(func() { runtime.Release(arr) })
	return arr
}

func mustVar(t *testing.T, name string, sinfo ir.StructInfo) *ir.Var {
	t.Helper()
	v, err := ir.NewVar(name, sinfo, ir.Span{})
	require.NoError(t, err)
	t.Cleanup(func() { runtime.Release(v) })
	return v
}

func dimValues(t *testing.T, shape ir.Expr) []int64 {
	t.Helper()
	s, err := runtime.Downcast[*ir.ShapeExpr](shape)
	require.NoError(t, err)
	var out []int64
	for _, v := range s.Values() {
		imm, err := runtime.Downcast[*ir.IntImm](v)
		require.NoError(t, err)
		out = append(out, imm.Value())
	}
	return out
}
