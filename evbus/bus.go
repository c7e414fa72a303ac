// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package evbus implements a publish/subscribe event bus for in-process
// broadcasting across Loopers. Grounded on the teacher event loop's
// callback-registry pattern (a mutex-guarded map driving fan-out under
// lock, callbacks invoked outside it) applied to the base engine's Bus:
// named 32-bit categories, strongly-referenced delegates, and dispatch
// that marshals each delegate's notification onto its own looper via
// PerformOnThread.
package evbus

import (
	"sync"
	"sync/atomic"
)

// Category is an opaque 32-bit tag allocated by Bus.AllocateCategory.
type Category uint32

// Event is one published item: a Category plus an arbitrary payload. The
// dispatcher never interprets Payload.
type Event struct {
	Category Category
	Payload  any
}

var nextCategory atomic.Uint32

// Bus owns a registry of delegates keyed by the categories they
// subscribed under. A single mutex guards the registry, matching the
// base spec's "Bus's registry is the only shared mutable structure"
// statement.
type Bus struct {
	mu        sync.Mutex
	names     map[string]Category
	delegates map[Category]map[*BusDelegate]struct{}
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{
		names:     make(map[string]Category),
		delegates: make(map[Category]map[*BusDelegate]struct{}),
	}
}

// AllocateCategory returns the Category for name, allocating a new one on
// first use and returning the existing tag on repeat calls with the same
// name.
func (b *Bus) AllocateCategory(name string) Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.names[name]; ok {
		return c
	}
	c := Category(nextCategory.Add(1))
	b.names[name] = c
	return c
}

// AddListener registers d under every category it declared, taking a
// strong reference (the Bus is what keeps a delegate alive once its
// owner drops its own reference, matching the spec's ownership note on
// breaking the Bus/BusDelegate cycle via delegates holding only a weak
// back-reference to the Bus).
func (b *Bus) AddListener(d *BusDelegate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range d.categories {
		set, ok := b.delegates[c]
		if !ok {
			set = make(map[*BusDelegate]struct{})
			b.delegates[c] = set
		}
		set[d] = struct{}{}
	}
	d.setBus(b)
}

// RemoveListener detaches d from every category it is registered under.
// Safe to call more than once.
func (b *Bus) RemoveListener(d *BusDelegate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(d)
}

func (b *Bus) removeLocked(d *BusDelegate) {
	for _, c := range d.categories {
		if set, ok := b.delegates[c]; ok {
			delete(set, d)
			if len(set) == 0 {
				delete(b.delegates, c)
			}
		}
	}
}

// DispatchEvent computes the per-delegate fan-out under the registry
// lock, then drops the lock and, for each distinct looper among the
// matched delegates, marshals the delivery onto that looper via
// PerformOnThread so handleEvent runs on the delegate's own thread, not
// the dispatcher's.
func (b *Bus) DispatchEvent(ev Event) {
	b.mu.Lock()
	set := b.delegates[ev.Category]
	byLooper := make(map[looperKey][]*BusDelegate, len(set))
	for d := range set {
		if !d.state.isActivatable() {
			continue
		}
		key := d.looperKey()
		byLooper[key] = append(byLooper[key], d)
	}
	b.mu.Unlock()

	for _, delegates := range byLooper {
		delegates := delegates
		looper := delegates[0].looper
		_ = looper.PerformOnThread(func() {
			for _, d := range delegates {
				d.handleEvent(b, ev)
			}
		}, false)
	}
}
