// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package evbus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/evqueue/evqueue/evlooper"
)

// delegateState tracks a BusDelegate's lifecycle: Pending (registered,
// never yet dispatched a live event) <-> Active (inside handleEvent) ->
// Invalidated -> Finalized. Grounded on the base spec's BusDelegate
// states; modeled as an int32 rather than a richer handleState since a
// delegate has no backend rearm/timeline semantics to track.
type delegateState int32

const (
	delegateStatePending delegateState = iota
	delegateStateActive
	delegateStateInvalidated
	delegateStateFinalized
)

func (s *delegateState) load() delegateState { return delegateState(atomic.LoadInt32((*int32)(s))) }

func (s *delegateState) compareAndSwap(from, to delegateState) bool {
	return atomic.CompareAndSwapInt32((*int32)(s), int32(from), int32(to))
}

// isActivatable reports whether a delegate in this state should still
// receive events (Pending or Active; not Invalidated/Finalized).
func (s delegateState) isActivatable() bool {
	return s == delegateStatePending || s == delegateStateActive
}

// HandleEventFunc is the callback a BusDelegate invokes for each matched
// Event, always on the delegate's own Looper goroutine.
type HandleEventFunc func(b *Bus, owner any, ev Event)

// BusDelegate is one subscriber: a set of categories, the Looper it must
// be invoked on, an owner value threaded through to the callback, and
// the callback itself. Grounded on the base spec's `(looper, categories[],
// owner, callback)` BusDelegate constructor.
type BusDelegate struct {
	id         uuid.UUID
	looper     *evlooper.Looper
	categories []Category
	owner      any
	callback   HandleEventFunc

	state delegateState

	mu  sync.Mutex
	bus *Bus
}

// NewBusDelegate constructs a BusDelegate in state Pending. It is not
// live until passed to Bus.AddListener.
func NewBusDelegate(looper *evlooper.Looper, categories []Category, owner any, callback HandleEventFunc) *BusDelegate {
	return &BusDelegate{
		id:         uuid.New(),
		looper:     looper,
		categories: append([]Category(nil), categories...),
		owner:      owner,
		callback:   callback,
	}
}

// ID returns the delegate's debug identifier.
func (d *BusDelegate) ID() uuid.UUID { return d.id }

func (d *BusDelegate) setBus(b *Bus) {
	d.mu.Lock()
	d.bus = b
	d.mu.Unlock()
}

type looperKey struct{ looper *evlooper.Looper }

func (d *BusDelegate) looperKey() looperKey { return looperKey{looper: d.looper} }

// handleEvent runs the delegate's callback for ev. Must only be called
// on the delegate's own Looper goroutine (Bus.DispatchEvent guarantees
// this via PerformOnThread); a call observed off that goroutine is
// skipped, without logging, rather than risking a data race against the
// owner's state.
func (d *BusDelegate) handleEvent(b *Bus, ev Event) {
	if !d.looper.IsCurrentThread() {
		return
	}
	if !d.state.compareAndSwap(delegateStatePending, delegateStateActive) {
		// Already Active (reentrant dispatch for a distinct category),
		// Invalidated, or Finalized: in the Active case run anyway since
		// distinct events on the same looper are serialized by
		// PerformOnThread already; in the terminal cases skip.
		if d.state.load() != delegateStateActive {
			return
		}
	}
	defer func() {
		d.state.compareAndSwap(delegateStateActive, delegateStatePending)
		d.finalizeIfInvalidated()
	}()
	if d.callback != nil {
		d.callback(b, d.owner, ev)
	}
}

// Invalidate detaches d from its Bus and marks it for teardown. Must run
// on d's own Looper; if d is currently Active (inside handleEvent),
// finalization is deferred until that call returns.
func (d *BusDelegate) Invalidate() {
	if !d.looper.IsCurrentThread() {
		return
	}
	for {
		cur := d.state.load()
		if cur == delegateStateInvalidated || cur == delegateStateFinalized {
			return
		}
		if d.state.compareAndSwap(cur, delegateStateInvalidated) {
			break
		}
	}
	d.finalizeIfInvalidated()
}

func (d *BusDelegate) finalizeIfInvalidated() {
	if d.state.load() != delegateStateInvalidated {
		return
	}
	d.mu.Lock()
	bus := d.bus
	d.bus = nil
	d.mu.Unlock()
	if bus != nil {
		bus.RemoveListener(d)
	}
	d.state.compareAndSwap(delegateStateInvalidated, delegateStateFinalized)
}
