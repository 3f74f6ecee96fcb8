package runtime

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// ObjectKey is the type key of the root of every inheritance chain.
const ObjectKey = "runtime.Object"

// Registry errors. Registration problems are fatal at startup (see MustRegister);
// ErrNotFound is returned by Resolve and is recoverable.
var (
	ErrDuplicateKey  = errors.New("duplicate type key")
	ErrUnknownParent = errors.New("unknown parent type key")
	ErrNotFound      = errors.New("type key not found")
	ErrSealed        = errors.New("registry is sealed")
)

// TypeIndex is the dense runtime index of a registered kind.
type TypeIndex uint32

// Field describes one logical field of a node kind.
type Field struct {
	Name string
	Kind string
}

// Layout is the field layout a kind adds on top of its parent.
type Layout struct {
	Fields []Field
}

// FieldNames returns the field names in declaration order.
func (l Layout) FieldNames() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

// Kind is a registration request.
//
// GoType is the static Go type that Downcast[T] resolves to this kind (a pointer
// type for concrete nodes, an interface type for abstract ones). View narrows the
// outermost object of an instance to that Go type; it is what turns a tag check
// into a reinterpretation of the same storage. Both may be nil for kinds that
// exist only as vocabulary.
type Kind struct {
	Key    string
	Parent string
	Layout Layout
	GoType reflect.Type
	View   func(Object) (Object, bool)
}

// TypeDescriptor is the immutable runtime description of a registered kind.
type TypeDescriptor struct {
	registry *Registry
	key      string
	index    TypeIndex
	parent   *TypeDescriptor
	depth    int
	chain    []TypeIndex // root-first ancestor indexes, ending with index
	layout   Layout
	goType   reflect.Type
	view     func(Object) (Object, bool)
}

// Key returns the stable string key.
func (d *TypeDescriptor) Key() string { return d.key }

// Index returns the dense runtime index.
func (d *TypeDescriptor) Index() TypeIndex { return d.index }

// Parent returns the parent descriptor, or nil for the root.
func (d *TypeDescriptor) Parent() *TypeDescriptor { return d.parent }

// ParentKey returns the parent key, or "" for the root.
func (d *TypeDescriptor) ParentKey() string {
	if d.parent == nil {
		return ""
	}
	return d.parent.key
}

// Depth is the distance from the root (the root has depth 0).
func (d *TypeDescriptor) Depth() int { return d.depth }

// Layout returns the fields this kind adds.
func (d *TypeDescriptor) Layout() Layout { return d.layout }

// GoType returns the registered Go type, if any.
func (d *TypeDescriptor) GoType() reflect.Type { return d.goType }

// IsA reports whether d equals ancestor or descends from it.
// O(1): ancestor's index must sit at ancestor's depth in d's cached chain.
func (d *TypeDescriptor) IsA(ancestor *TypeDescriptor) bool {
	if d == nil || ancestor == nil || d.registry != ancestor.registry {
		return false
	}
	if ancestor.depth > d.depth {
		return false
	}
	return d.chain[ancestor.depth] == ancestor.index
}

// Ancestry returns the keys from the root down to d.
func (d *TypeDescriptor) Ancestry() []string {
	keys := make([]string, d.depth+1)
	for cur := d; cur != nil; cur = cur.parent {
		keys[cur.depth] = cur.key
	}
	return keys
}

func (d *TypeDescriptor) String() string { return d.key }

// Registry maps type keys to descriptors.
//
// Writes happen during process initialization. After Seal, the registry is
// read-only and lookups take no lock.
type Registry struct {
	mu       sync.RWMutex
	sealed   atomic.Bool
	byKey    map[string]*TypeDescriptor
	byGoType map[reflect.Type]*TypeDescriptor
	kinds    []*TypeDescriptor
}

// NewRegistry creates a registry holding only the root Object kind.
func NewRegistry() *Registry {
	r := &Registry{
		byKey:    make(map[string]*TypeDescriptor),
		byGoType: make(map[reflect.Type]*TypeDescriptor),
	}
	r.MustRegister(Kind{
		Key:    ObjectKey,
		GoType: reflect.TypeFor[Object](),
		View:   func(o Object) (Object, bool) { return o, true },
	})
	return r
}

// Register adds a kind. The root kind is the only one registered without a parent.
func (r *Registry) Register(k Kind) (*TypeDescriptor, error) {
	if k.Key == "" {
		return nil, fmt.Errorf("register: empty type key")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return nil, fmt.Errorf("register %q: %w", k.Key, ErrSealed)
	}
	if _, exists := r.byKey[k.Key]; exists {
		return nil, fmt.Errorf("register %q: %w", k.Key, ErrDuplicateKey)
	}

	var parent *TypeDescriptor
	if k.Parent != "" {
		p, ok := r.byKey[k.Parent]
		if !ok {
			return nil, fmt.Errorf("register %q (parent %q): %w", k.Key, k.Parent, ErrUnknownParent)
		}
		parent = p
	} else if len(r.kinds) > 0 {
		return nil, fmt.Errorf("register %q: only %s may omit a parent: %w", k.Key, ObjectKey, ErrUnknownParent)
	}

	if k.GoType != nil {
		if prev, exists := r.byGoType[k.GoType]; exists {
			return nil, fmt.Errorf("register %q: go type %v already bound to %q: %w",
				k.Key, k.GoType, prev.key, ErrDuplicateKey)
		}
	}

	d := &TypeDescriptor{
		registry: r,
		key:      k.Key,
		index:    TypeIndex(len(r.kinds)),
		parent:   parent,
		layout:   Layout{Fields: append([]Field(nil), k.Layout.Fields...)},
		goType:   k.GoType,
		view:     k.View,
	}
	if parent != nil {
		d.depth = parent.depth + 1
		d.chain = make([]TypeIndex, 0, d.depth+1)
		d.chain = append(d.chain, parent.chain...)
	}
	d.chain = append(d.chain, d.index)

	r.byKey[k.Key] = d
	if k.GoType != nil {
		r.byGoType[k.GoType] = d
	}
	r.kinds = append(r.kinds, d)
	return d, nil
}

// MustRegister is like Register but panics on error. Node packages call it from
// package initialization: the process cannot run with a half-built vocabulary.
func (r *Registry) MustRegister(k Kind) *TypeDescriptor {
	d, err := r.Register(k)
	if err != nil {
		panic(err)
	}
	return d
}

// Seal ends the registration phase. It is idempotent.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed.Store(true)
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

func (r *Registry) rlock() bool {
	if r.sealed.Load() {
		return false
	}
	r.mu.RLock()
	return true
}

// Resolve returns the descriptor registered under key.
func (r *Registry) Resolve(key string) (*TypeDescriptor, error) {
	if r.rlock() {
		defer r.mu.RUnlock()
	}
	d, ok := r.byKey[key]
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", key, ErrNotFound)
	}
	return d, nil
}

// IsA reports whether ancestor appears in child's parent chain. Every key is-a
// itself. Unknown keys are never related to anything.
func (r *Registry) IsA(child, ancestor string) bool {
	if r.rlock() {
		defer r.mu.RUnlock()
	}
	c, ok := r.byKey[child]
	if !ok {
		return false
	}
	a, ok := r.byKey[ancestor]
	if !ok {
		return false
	}
	return c.IsA(a)
}

// ForGoType returns the descriptor bound to a Go type.
func (r *Registry) ForGoType(t reflect.Type) (*TypeDescriptor, bool) {
	if r.rlock() {
		defer r.mu.RUnlock()
	}
	d, ok := r.byGoType[t]
	return d, ok
}

// Kinds returns every descriptor in registration order (parents before children).
func (r *Registry) Kinds() []*TypeDescriptor {
	if r.rlock() {
		defer r.mu.RUnlock()
	}
	out := make([]*TypeDescriptor, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// Len returns the number of registered kinds, including the root.
func (r *Registry) Len() int {
	if r.rlock() {
		defer r.mu.RUnlock()
	}
	return len(r.kinds)
}

var (
	defaultRegistry = NewRegistry()
	sealDefault     sync.Once
)

// Default returns the process-wide registry without sealing it.
func Default() *Registry {
	return defaultRegistry
}

// MustRegister registers a kind in the process-wide registry.
func MustRegister(k Kind) *TypeDescriptor {
	return defaultRegistry.MustRegister(k)
}

// Types returns the process-wide registry for queries, sealing it on first use.
// Registration is only legal during package initialization, which always
// completes before the first downcast.
func Types() *Registry {
	sealDefault.Do(defaultRegistry.Seal)
	return defaultRegistry
}
