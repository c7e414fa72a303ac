// Package deferred implements QueueData's deferred "perform" execution
// list: entries appended while the queue is running, drained in FIFO order
// on the owning goroutine. Grounded on the teacher event loop's internal
// task queue (processInternalQueue/processExternal in loop.go), simplified
// to a plain slice since the engine's perform list does not need the
// teacher's chunked-ring allocation strategy (promise scheduling at
// sub-microsecond latency is not a goal here).
package deferred

// Item is one deferred unit of work: either a plain Fn, or an Fn plus a Ref
// and Tag for the (fn, ref, tag) perform overload described in the base
// spec's Thread handle contract.
type Item struct {
	Fn  func(ref any, tag uint64)
	Ref any
	Tag uint64
}

// List is a simple FIFO of Items. DrainAll hands the current backing
// array to the drain and starts a fresh one, so items appended during a
// drain never overwrite the batch being visited.
type List struct {
	items []Item
}

// Append adds an item to the back of the list.
func (l *List) Append(it Item) {
	l.items = append(l.items, it)
}

// Len returns the number of items currently queued.
func (l *List) Len() int { return len(l.items) }

// DrainAll calls fn for every queued item in FIFO order and empties the
// list. fn may itself call Append (e.g. a perform callback scheduling
// another perform); those additions are visited on the *next* DrainAll.
func (l *List) DrainAll(fn func(Item)) {
	batch := l.items
	l.items = l.items[:0:0]
	for _, it := range batch {
		fn(it)
	}
}
