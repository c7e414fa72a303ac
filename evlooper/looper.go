// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package evlooper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/evqueue/evqueue"
)

// Looper binds one Queue to the single goroutine that calls Run, adds a
// worker pool for offloaded CPU work, and exposes PerformOnThread for
// marshaling calls onto that goroutine from anywhere else. Grounded on
// the teacher event loop's promise-resolution/microtask scheduling
// (Defer/Run) composed here with a self-referential Thread Handle, the
// same composition the base engine's Looper uses over its Queue.
type Looper struct {
	queue  *evqueue.Queue
	thread *evqueue.Handle
	pool   *Pool

	// loopGID holds the goroutine id captured at the most recent Run
	// entry, or -1 when Run is not currently executing on any goroutine.
	loopGID atomic.Int64

	onPanic func(*PanicError)
}

// Config configures a new Looper.
type Config struct {
	QueueInfo evqueue.QueueInfo

	// PoolSize is the number of worker goroutines backing PerformAsync.
	// Zero selects a small default.
	PoolSize int
	// PoolQueueLen bounds how many PerformAsync tasks may be queued
	// before Submit blocks the calling goroutine.
	PoolQueueLen int

	// OnWorkerPanic is invoked (on the worker goroutine that recovered
	// it) whenever a PerformAsync task panics. With a nil value the
	// recovered panic is dropped and the worker goroutine keeps running.
	OnWorkerPanic func(*PanicError)
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.PoolQueueLen <= 0 {
		c.PoolQueueLen = 256
	}
	if c.QueueInfo.EngineMask == evqueue.EngineNone {
		c.QueueInfo = evqueue.DefaultQueueInfo()
	}
	return c
}

// New constructs a Looper: a Queue per info.QueueInfo, a self-referential
// Thread Handle used by PerformOnThread's cross-goroutine path, and a
// worker pool for PerformAsync.
func New(info Config) (*Looper, error) {
	info = info.withDefaults()

	q, err := evqueue.NewQueue(info.QueueInfo)
	if err != nil {
		return nil, err
	}

	l := &Looper{queue: q, onPanic: info.OnWorkerPanic}
	l.loopGID.Store(-1)

	thread, err := q.AddThreadHandle(nil, nil)
	if err != nil {
		_ = q.Close()
		return nil, err
	}
	l.thread = thread

	l.pool = NewPool(info.PoolSize, info.PoolQueueLen, func(pe *PanicError) {
		if l.onPanic != nil {
			l.onPanic(pe)
		}
		// No handler configured: the panic was already recovered and
		// the worker goroutine survives; there is nothing further to do
		// without a thread-safe logging path into the Queue.
	})

	return l, nil
}

// Queue returns the Looper's underlying Queue, for callers that need raw
// Handle access (ScheduleTimer, ListenPollableHandle, ListenSignal).
func (l *Looper) Queue() *evqueue.Queue { return l.queue }

func (l *Looper) isLoopThread() bool {
	gid := l.loopGID.Load()
	return gid >= 0 && gid == goroutineID()
}

// IsCurrentThread reports whether the calling goroutine is the one
// currently executing this Looper's Run/Wait/Poll call. Used by evbus to
// enforce that BusDelegate.invalidate and handleEvent only ever run on
// their owning Looper's goroutine.
func (l *Looper) IsCurrentThread() bool { return l.isLoopThread() }

// Run drives the Looper's Queue until ctx is canceled or a Wakeup call
// targets this run. Captures the calling goroutine's id for the duration
// of the call, so PerformOnThread(immediate=true) and isLoopThread
// checks are only valid while Run is executing.
func (l *Looper) Run(ctx context.Context, info evqueue.WakeupInfo) (evqueue.Status, error) {
	l.loopGID.Store(goroutineID())
	defer l.loopGID.Store(-1)

	status, err := l.queue.Run(ctx, info)
	if info.Flags&evqueue.WakeupSuspendThreads != 0 {
		l.pool.Close()
	}
	return status, err
}

// Wait blocks for at most timeout waiting for one backend completion,
// the same single-shot semantics as Queue.Wait.
func (l *Looper) Wait(timeout time.Duration) (evqueue.Status, error) {
	l.loopGID.Store(goroutineID())
	defer l.loopGID.Store(-1)
	return l.queue.Wait(timeout)
}

// Poll drives one non-blocking pass, the same semantics as Queue.Poll.
func (l *Looper) Poll() (evqueue.Status, error) {
	l.loopGID.Store(goroutineID())
	defer l.loopGID.Store(-1)
	return l.queue.Poll()
}

// Wakeup asks the Looper's active Run call to return.
func (l *Looper) Wakeup(info evqueue.WakeupInfo) error {
	return l.queue.Wakeup(info)
}

// Close tears down the worker pool and the underlying Queue. Not safe to
// call concurrently with Run.
func (l *Looper) Close() error {
	l.pool.Close()
	return l.queue.Close()
}

// PerformOnThread marshals fn onto the Looper's own goroutine. If the
// caller is already running on that goroutine and immediate is set, fn
// runs inline before PerformOnThread returns. If the caller is on that
// goroutine but immediate is clear, fn is deferred to the next tick via
// Queue.Defer. Otherwise fn is handed to the self-referential Thread
// Handle's mailbox, the only safe cross-goroutine path.
func (l *Looper) PerformOnThread(fn func(), immediate bool) error {
	if fn == nil {
		return nil
	}
	if l.isLoopThread() {
		if immediate {
			fn()
			return nil
		}
		l.queue.Defer(fn)
		return nil
	}
	return l.thread.Perform(fn)
}

// PerformAsync hands fn off to the worker pool for execution away from
// the Looper's own goroutine. first is accepted for API parity with the
// base engine's priority-insert option; this pool is a single FIFO
// channel with no head-insertion, so first has no effect (see
// DESIGN.md).
func (l *Looper) PerformAsync(fn func(), first bool) error {
	if fn == nil {
		return nil
	}
	return l.pool.Submit(fn)
}

// ScheduleFunc is the callback Schedule invokes: ok is true unless the
// timer was canceled or errored before firing.
type ScheduleFunc func(h *evqueue.Handle, ok bool)

// Schedule arms a one-shot timer that invokes fn on the Looper's own
// goroutine after timeout elapses.
func (l *Looper) Schedule(timeout time.Duration, fn ScheduleFunc, userdata any) (*evqueue.Handle, error) {
	called := false
	h, err := l.queue.ScheduleTimer(evqueue.TimerInfo{Timeout: timeout, Count: 1}, func(_ any, h *evqueue.Handle, _ uint32, status evqueue.Status) {
		// The timer reports its firing as Ok then Done; fn sees only the
		// first completion.
		if fn == nil || called {
			return
		}
		called = true
		fn(h, status == evqueue.Ok)
	}, userdata)
	if err == nil && !l.isLoopThread() {
		// Wake a Run blocked in the backend so it picks up the new deadline.
		_ = l.thread.Perform(func() {})
	}
	return h, err
}
