package runtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, k := range []Kind{
		{Key: "test.Expr", Parent: ObjectKey},
		{Key: "test.Leaf", Parent: "test.Expr"},
		{Key: "test.Var", Parent: "test.Leaf", Layout: Layout{Fields: []Field{{Name: "vid", Kind: "Id"}}}},
		{Key: "test.DataflowVar", Parent: "test.Var"},
		{Key: "test.Call", Parent: "test.Expr"},
	} {
		_, err := r.Register(k)
		require.NoError(t, err, "register %s", k.Key)
	}
	return r
}

func TestRegistry_RootIsRegistered(t *testing.T) {
	r := NewRegistry()
	d, err := r.Resolve(ObjectKey)
	require.NoError(t, err)
	assert.Nil(t, d.Parent())
	assert.Equal(t, "", d.ParentKey())
	assert.Equal(t, 0, d.Depth())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_IsAReflexiveAndParentInclusive(t *testing.T) {
	r := newTestRegistry(t)
	for _, d := range r.Kinds() {
		assert.True(t, r.IsA(d.Key(), d.Key()), "%s is-a itself", d.Key())
		if d.Parent() != nil {
			assert.True(t, r.IsA(d.Key(), d.ParentKey()), "%s is-a %s", d.Key(), d.ParentKey())
		}
		assert.True(t, r.IsA(d.Key(), ObjectKey), "%s is-a root", d.Key())
	}
}

func TestRegistry_IsAChain(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		child, ancestor string
		want            bool
	}{
		{"test.DataflowVar", "test.Var", true},
		{"test.DataflowVar", "test.Leaf", true},
		{"test.DataflowVar", "test.Expr", true},
		{"test.Var", "test.DataflowVar", false},
		{"test.Call", "test.Leaf", false},
		{"test.Leaf", "test.Call", false},
		{"test.Expr", "test.Var", false},
		{"test.Missing", "test.Expr", false},
		{"test.Var", "test.Missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.child+"->"+tt.ancestor, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsA(tt.child, tt.ancestor))
		})
	}
}

func TestRegistry_DuplicateKey(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Register(Kind{Key: "test.Var", Parent: "test.Leaf"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestRegistry_UnknownParent(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(Kind{Key: "test.Orphan", Parent: "test.Nowhere"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownParent))

	// only the root may omit a parent
	_, err = r.Register(Kind{Key: "test.SecondRoot"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownParent))
}

func TestRegistry_ResolveNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("test.Nothing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_SealRejectsWrites(t *testing.T) {
	r := newTestRegistry(t)
	r.Seal()
	assert.True(t, r.Sealed())

	_, err := r.Register(Kind{Key: "test.Late", Parent: ObjectKey})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSealed))

	// reads still work without the lock
	assert.True(t, r.IsA("test.DataflowVar", "test.Expr"))
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := newTestRegistry(t)
	assert.Panics(t, func() {
		r.MustRegister(Kind{Key: "test.Var", Parent: ObjectKey})
	})
}

func TestRegistry_DescriptorMetadata(t *testing.T) {
	r := newTestRegistry(t)
	d, err := r.Resolve("test.DataflowVar")
	require.NoError(t, err)

	assert.Equal(t, 4, d.Depth())
	assert.Equal(t, []string{ObjectKey, "test.Expr", "test.Leaf", "test.Var", "test.DataflowVar"}, d.Ancestry())
	assert.Equal(t, "test.Var", d.ParentKey())

	v, err := r.Resolve("test.Var")
	require.NoError(t, err)
	assert.Equal(t, []string{"vid"}, v.Layout().FieldNames())
}

func TestRegistry_KindsInRegistrationOrder(t *testing.T) {
	r := newTestRegistry(t)
	var keys []string
	for _, d := range r.Kinds() {
		keys = append(keys, d.Key())
	}
	assert.Equal(t, []string{ObjectKey, "test.Expr", "test.Leaf", "test.Var", "test.DataflowVar", "test.Call"}, keys)
}

func TestRegistry_DescriptorsFromDifferentRegistriesAreUnrelated(t *testing.T) {
	a := newTestRegistry(t)
	b := newTestRegistry(t)
	da, err := a.Resolve("test.Var")
	require.NoError(t, err)
	db, err := b.Resolve("test.Var")
	require.NoError(t, err)
	assert.False(t, da.IsA(db))
}

func TestRegistry_ConcurrentReadsAfterSeal(t *testing.T) {
	r := newTestRegistry(t)
	r.Seal()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, r.IsA("test.DataflowVar", "test.Var"))
				_, err := r.Resolve("test.Call")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
