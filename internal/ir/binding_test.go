package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relaxir/internal/runtime"
)

func TestVarBinding(t *testing.T) {
	x := mustVar(t, "x")
	c := mustConstant(t, 2)
	b, err := NewVarBinding(x, c, testSpan)
	require.NoError(t, err)

	assert.True(t, runtime.Same(b.Var(), x))
	assert.True(t, runtime.Same(b.Value(), c))
	assert.Equal(t, testSpan, b.Span())

	_, err = NewVarBinding(nil, c, Span{})
	requireInvalid(t, err, "var")
	_, err = NewVarBinding(x, nil, Span{})
	requireInvalid(t, err, "value")
}

func TestMatchCast(t *testing.T) {
	x := mustVar(t, "x")
	c := mustConstant(t, 2)
	sinfo, err := NewTensorStructInfo(nil, runtime.Float(32), 1, Span{})
	require.NoError(t, err)

	m, err := NewMatchCast(x, c, sinfo, Span{})
	require.NoError(t, err)
	assert.True(t, runtime.Same(m.StructInfo(), sinfo))

	var b Binding = m
	assert.True(t, runtime.Same(b.Var(), x))
	assert.True(t, runtime.Same(b.Value(), c))

	_, err = NewMatchCast(x, c, nil, Span{})
	requireInvalid(t, err, "struct_info")
}

func TestBindingBlock_RejectsDataflowVar(t *testing.T) {
	lv := mustDataflowVar(t, "lv")
	c := mustConstant(t, 2)

	_, err := NewBindingBlock([]Binding{
		mustVarBinding(t, mustVar(t, "x"), c),
		mustVarBinding(t, &lv.Var, c),
	}, Span{})
	requireInvalid(t, err, "bindings[1]")
	assert.Contains(t, err.Error(), "only be bound inside a dataflow block")
}

func TestBindingBlock_Empty(t *testing.T) {
	bb, err := NewBindingBlock(nil, Span{})
	require.NoError(t, err)
	assert.Equal(t, 0, bb.Len())
	assert.False(t, bb.IsDataflow())
}

func TestDataflowBlock_OnlyLastBindingMayEscape(t *testing.T) {
	c := mustConstant(t, 2)
	lv0 := mustDataflowVar(t, "lv0")
	lv1 := mustDataflowVar(t, "lv1")
	gv := mustVar(t, "gv")

	tests := []struct {
		name     string
		bindings []Binding
		badField string
	}{
		{
			name:     "all dataflow",
			bindings: []Binding{mustVarBinding(t, &lv0.Var, c), mustVarBinding(t, &lv1.Var, c)},
		},
		{
			name:     "last escapes",
			bindings: []Binding{mustVarBinding(t, &lv0.Var, c), mustVarBinding(t, gv, lv0)},
		},
		{
			name:     "single escaping binding",
			bindings: []Binding{mustVarBinding(t, gv, c)},
		},
		{
			name:     "empty",
			bindings: nil,
		},
		{
			name:     "escape before last",
			bindings: []Binding{mustVarBinding(t, gv, c), mustVarBinding(t, &lv0.Var, c)},
			badField: "bindings[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewDataflowBlock(tt.bindings, Span{})
			if tt.badField != "" {
				requireInvalid(t, err, tt.badField)
				return
			}
			require.NoError(t, err)
			assert.True(t, db.IsDataflow())
			assert.Equal(t, len(tt.bindings), db.Len())
		})
	}
}

func TestBindingBlock_NilBinding(t *testing.T) {
	var failed *VarBinding
	_, err := NewBindingBlock([]Binding{failed}, Span{})
	requireInvalid(t, err, "bindings[0]")

	_, err = NewDataflowBlock([]Binding{nil}, Span{})
	requireInvalid(t, err, "bindings[0]")
}

func TestBindingBlock_OwnsBindings(t *testing.T) {
	b := mustVarBinding(t, mustVar(t, "x"), mustConstant(t, 1))
	bb, err := NewBindingBlock([]Binding{b}, Span{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), runtime.RefCount(b))

	require.True(t, runtime.Release(bb))
	assert.Equal(t, int32(1), runtime.RefCount(b))
}
