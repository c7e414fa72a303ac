// Package refcount provides a minimal atomic reference count, standing in
// for the external Rc<>/Ref collaborator named out of scope in the core
// engine design (handles anchor caller-side state through it, they don't
// implement it).
package refcount

import "sync/atomic"

// Ref is an atomic reference counter. The zero value has a count of zero;
// callers that want a live object should call Retain once after construction.
type Ref struct {
	n atomic.Int64
}

// Retain increments the count and returns the new value.
func (r *Ref) Retain() int64 {
	return r.n.Add(1)
}

// Release decrements the count and returns the new value. Callers release
// associated resources when the returned value reaches zero.
func (r *Ref) Release() int64 {
	return r.n.Add(-1)
}

// Count returns the current count.
func (r *Ref) Count() int64 {
	return r.n.Load()
}
