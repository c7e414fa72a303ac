package evqueue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/evqueue/evqueue/internal/deferred"
)

// Queue binds one backend completion mechanism to a single goroutine's
// cooperative run loop. Grounded on the teacher event loop's Loop struct
// (loop.go): a backend/poller, a registry of live registrations, a
// deferred work list, and a nested run-context stack, generalized from
// "promises and microtasks" to "Handles of any kind."
type Queue struct {
	backend backend
	data    *queueData

	runStack []*runContext

	closed atomic.Bool

	completionBuf []completion
}

// NewQueue constructs a Queue on this platform's single backend (epoll,
// kqueue or IOCP) when info.EngineMask names it. An empty mask returns an
// *ArgumentError, a mask without this platform's engine returns
// ErrNoBackend, and a backend that fails to initialize returns its error.
func NewQueue(info QueueInfo) (*Queue, error) {
	if info.EngineMask == EngineNone {
		return nil, &ArgumentError{Message: "empty engine mask"}
	}
	b, err := newPlatformBackend(info.EngineMask)
	if err != nil {
		return nil, err
	}
	q := &Queue{
		backend:       b,
		data:          newQueueData(info.Logger, info.OSIdleInterval),
		completionBuf: make([]completion, 0, 64),
	}
	return q, nil
}

// ID returns a process-scoped identifier for this Queue, used in log
// fields.
func (q *Queue) ID() int64 { return q.data.id }

// Stats returns the Queue's runtime statistics, updated on every tick.
func (q *Queue) Stats() *QueueStats { return q.data.stats }

// Flush is a no-op convenience method: every backend in this module
// submits registrations immediately, so there is nothing to batch. It
// exists for API parity with QueueFlags.SubmitImmediate.
func (q *Queue) Flush() error {
	if q.isClosed() {
		return ErrQueueClosed
	}
	return nil
}

func (q *Queue) isClosed() bool { return q.closed.Load() }

// Defer schedules fn to run on this Queue's own goroutine during the next
// tick, without needing a Thread Handle. Only valid when called from the
// Queue's own goroutine (e.g. from within a completion callback, to avoid
// unbounded callback recursion); cross-goroutine submission must go
// through a Thread Handle's Perform instead.
func (q *Queue) Defer(fn func()) {
	q.data.deferred.Append(deferred.Item{Fn: func(any, uint64) { q.safeInvoke(fn) }})
}

// Close cancels every outstanding Handle with ErrorCancelled and releases
// the backend. Idempotent: a second call returns ErrQueueClosed.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return ErrQueueClosed
	}
	q.data.registry.cancelAll(ErrorCancelled)
	return q.backend.close()
}

// Poll drives one non-blocking pass: dispatch whatever is already ready,
// run expired timers, drain thread mailboxes, then return immediately.
func (q *Queue) Poll() (Status, error) {
	return q.runOnce(0)
}

// Wait blocks for at most timeout (negative meaning indefinite) waiting
// for the backend to report at least one completion, then behaves like
// Poll.
func (q *Queue) Wait(timeout time.Duration) (Status, error) {
	return q.runOnce(timeout)
}

func (q *Queue) runOnce(timeout time.Duration) (Status, error) {
	if q.isClosed() {
		return ErrorCancelled, ErrQueueClosed
	}
	if err := q.tick(timeout); err != nil {
		return ErrorUnknown, err
	}
	return Ok, nil
}

// Run drives the Queue's cooperative scheduler until ctx is canceled, the
// Queue is closed, or a Wakeup call targets this run context. Run
// contexts nest: a Handle completion callback may itself call Run, and a
// Wakeup issued during the inner call stops only the innermost frame;
// no flag makes it reach an enclosing frame.
func (q *Queue) Run(ctx context.Context, info WakeupInfo) (Status, error) {
	rc := q.pushRunContext(info.Flags)
	defer q.popRunContext()

	// Interrupt a backend wait that would otherwise block past ctx's
	// cancellation (no timer pending and no OSIdleInterval).
	stop := context.AfterFunc(ctx, func() { _ = q.backend.wakeup() })
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ErrorCancelled, ctx.Err()
		default:
		}
		if q.isClosed() {
			return ErrorCancelled, ErrQueueClosed
		}
		if rc.wakeupRequested {
			return rc.wakeupStatus, nil
		}

		timeout := q.data.nextTimeout(time.Now())
		if err := q.tick(timeout); err != nil {
			return ErrorUnknown, err
		}
		if rc.wakeupRequested {
			return rc.wakeupStatus, nil
		}
	}
}

// Wakeup asks the innermost active Run call to return. If no Run call is
// active, it only interrupts a concurrently blocked Wait/Poll call on
// another goroutine (the backend's own wakeup primitive). With
// WakeupGraceful the woken Run returns Suspended, otherwise Done; no
// Handle is suspended and info.Timeout is not consulted.
func (q *Queue) Wakeup(info WakeupInfo) error {
	status := Done
	if info.Flags&WakeupGraceful != 0 {
		status = Suspended
	}
	if rc := q.currentRunContext(); rc != nil {
		rc.requestWakeup(status)
	}
	return q.backend.wakeup()
}

// tick performs one iteration of the run loop: block in the backend for
// up to timeout, dispatch whatever completions arrived, run expired
// timers, then drain every Thread Handle's mailbox.
func (q *Queue) tick(timeout time.Duration) error {
	start := time.Now()
	completions, err := q.backend.wait(timeout, q.completionBuf[:0])
	q.data.stats.PollLatency.Record(time.Since(start))
	if err != nil {
		return err
	}
	q.completionBuf = completions[:0]

	for _, c := range completions {
		q.dispatch(c)
	}

	q.runExpiredTimers(time.Now())
	q.drainThreadHandles()

	q.data.deferred.DrainAll(func(it deferred.Item) { it.Fn(it.Ref, it.Tag) })
	q.data.registry.scavenge(64)
	q.updateHandleStats()
	return nil
}

// dispatch translates one backend completion into a Handle state change
// and invokes its completion callback. A completion that ends the Handle
// also releases its backend registration.
func (q *Queue) dispatch(c completion) {
	h := c.handle
	if h == nil || h.state.IsTerminal() {
		return
	}

	status, value, again := h.class.onCompletion(q, h, c.backendData)
	q.invokeCompletion(h, value, status)

	if again {
		h.bumpTimeline()
		h.state.Store(Ok)
		return
	}
	h.class.disarm(q, h)
	h.state.Store(status)
	q.data.registry.remove(h.id)
}

// newHandle allocates and registers a Handle of the given kind. The
// caller is responsible for setting h.source and arming it via its
// handleClass before returning it to the user.
func (q *Queue) newHandle(kind HandleKind, class *handleClass, completion CompletionFunc, userdata any) *Handle {
	h := &Handle{
		kind:       kind,
		queue:      q,
		class:      class,
		state:      newHandleState(),
		completion: completion,
		userdata:   userdata,
	}
	h.id = q.data.registry.add(h)
	return h
}

// cancelHandle transitions h to a terminal status, releases its backend
// registration, removes it from the registry, and invokes its completion
// callback. status must already have passed IsValidCancelStatus for a
// caller-driven Cancel; forceCancel bypasses that check during teardown.
func (q *Queue) cancelHandle(h *Handle, status Status) error {
	if h.state.IsTerminal() {
		return &StatusError{Op: "Cancel", Status: ErrorAlreadyPerformed}
	}
	h.class.disarm(q, h)
	h.state.Store(status)
	q.data.registry.remove(h.id)
	q.invokeCompletion(h, 0, status)
	return nil
}

// pauseHandle suspends an armed resumable Handle, releasing its backend
// registration but keeping it in the registry for a later Resume.
func (q *Queue) pauseHandle(h *Handle) error {
	if !h.state.TryTransition(Ok, Declined) {
		return &StatusError{Op: "Pause", Status: ErrorAlreadyPerformed}
	}
	h.class.disarm(q, h)
	return nil
}

// resumeHandle rearms a Suspended or Declined Handle.
func (q *Queue) resumeHandle(h *Handle) error {
	from := h.state.Load()
	if from != Suspended && from != Declined {
		return &StatusError{Op: "Resume", Status: ErrorAlreadyPerformed}
	}

	status := h.class.rearm(q, h)
	if status.IsError() {
		h.state.Store(status)
		q.data.registry.remove(h.id)
		q.invokeCompletion(h, 0, status)
		return &StatusError{Op: "Resume", Status: status}
	}
	h.bumpTimeline()
	h.state.Store(Ok)
	return nil
}

// invokeCompletion calls h's completion callback, recovering any panic
// into a logged error so a single buggy callback cannot crash the
// Queue's goroutine (spec §7).
func (q *Queue) invokeCompletion(h *Handle, value uint32, status Status) {
	if h.completion == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.log(LevelError, h.kind.String(), "recovered panic in completion callback").
				handle(h.id).
				err(&PanicError{Value: r}).
				log(q.data.logger)
		}
	}()
	h.completion(h.userdata, h, value, status)
}

// safeInvoke runs fn, recovering any panic the same way invokeCompletion
// does, for callbacks (Perform tasks) that don't carry a Handle status.
func (q *Queue) safeInvoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log(LevelError, "thread", "recovered panic in perform callback").
				err(&PanicError{Value: r}).
				log(q.data.logger)
		}
	}()
	fn()
}

func (q *Queue) log(level LogLevel, category, msg string) logEntryBuilder {
	return newLogEntry(level, category, msg).queue(q.data.id)
}

func (q *Queue) updateHandleStats() {
	var armed, suspended int
	q.data.registry.forEach(func(h *Handle) {
		switch h.state.Load() {
		case Ok:
			armed++
		case Suspended, Declined:
			suspended++
		}
	})
	q.data.stats.Handles.UpdateRegistered(q.data.registry.len())
	q.data.stats.Handles.UpdateArmed(armed)
	q.data.stats.Handles.UpdateSuspended(suspended)
}
