package runtime

import "sync"

// WeakRef refers to an object without keeping it alive. Lock hands out a new
// strong reference only while the object still has one.
type WeakRef struct {
	mu sync.Mutex
	h  *Header
}

// NewWeakRef creates a weak reference to obj.
func NewWeakRef(obj Object) *WeakRef {
	h := headerOf(obj)
	if h != nil {
		h.weak.Add(1)
	}
	return &WeakRef{h: h}
}

// Lock returns a retained strong reference, or false if the target is gone.
// The caller owns the returned reference and must Release it.
func (w *WeakRef) Lock() (Object, bool) {
	w.mu.Lock()
	h := w.h
	w.mu.Unlock()
	if h == nil || !h.tryRetain() {
		return nil, false
	}
	return h.self, true
}

// Expired reports whether the target has been disposed or the ref was reset.
func (w *WeakRef) Expired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.h == nil || w.h.strong.Load() <= 0
}

// Reset drops the weak reference. It is idempotent.
func (w *WeakRef) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.h != nil {
		w.h.weak.Add(-1)
		w.h = nil
	}
}

// WeakCount returns the number of live weak references to obj.
func WeakCount(obj Object) int32 {
	h := headerOf(obj)
	if h == nil {
		return 0
	}
	return h.weak.Load()
}
