package evqueue

import "sync/atomic"

// HandleKind identifies what kind of completion source a Handle wraps.
// Grounded on the original engine's per-kind Handle subclasses
// (SPEventTimerHandle.h, SPEventThreadHandle.h, platform pollable/signal
// handles), collapsed here into one struct with a kind tag and a
// handleClass vtable, matching how the teacher event loop keeps a single
// concrete type per concern rather than an interface hierarchy.
type HandleKind int32

const (
	KindTimer HandleKind = iota
	KindPoll
	KindThread
	KindSignal
)

func (k HandleKind) String() string {
	switch k {
	case KindTimer:
		return "timer"
	case KindPoll:
		return "poll"
	case KindThread:
		return "thread"
	case KindSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// CompletionFunc is invoked on the Queue's run goroutine to report
// backend activity, a timer firing, an explicit Cancel, or a Resume that
// fails to rearm; Pause and a successful Resume do not invoke it. value
// is per-kind: the fire counter for a timer, the bitmask of ready
// PollFlags for a pollable, the number of coalesced deliveries for a
// signal, and unused (always 0) for thread Handles and for Cancel.
type CompletionFunc func(userdata any, h *Handle, value uint32, status Status)

// Handle is a single registration with a Queue: a timer, a pollable
// descriptor, a cross-goroutine thread wakeup, or a signal. It is owned
// by exactly one Queue and its fields (other than the handleState CAS
// and, for Thread handles, the mailbox) must only be touched from that
// Queue's run goroutine.
type Handle struct {
	id    int64
	kind  HandleKind
	queue *Queue
	class *handleClass

	state *handleState

	// source holds the per-kind data a handleClass needs: *timerSource,
	// *pollSource, *threadSource, or *signalSource. Stored as any rather
	// than inline fields, unlike the teacher's fdInfo array, since a
	// Handle here is already heap-allocated via the registry and the
	// extra indirection is not on a hot path that matters.
	source any

	// timeline is bumped every time the handle is rearmed (on Resume and
	// after each completion that leaves it armed). Completions do not
	// carry it and dispatch does not compare it; a completion for a
	// Handle that is already terminal is dropped by dispatch's status
	// check instead.
	timeline atomic.Uint64

	completion CompletionFunc
	userdata   any

	// category, used by evbus's BusDelegate wrapping a thread Handle.
	category uint32
}

// ID returns a Queue-scoped identifier, stable for the Handle's lifetime.
func (h *Handle) ID() int64 { return h.id }

// Kind reports what completion source this Handle wraps.
func (h *Handle) Kind() HandleKind { return h.kind }

// Queue returns the owning Queue.
func (h *Handle) Queue() *Queue { return h.queue }

// Status returns the Handle's current lifecycle state.
func (h *Handle) Status() Status { return h.state.Load() }

// UserData returns the opaque value supplied at creation time.
func (h *Handle) UserData() any { return h.userdata }

// SetUserData replaces the opaque value. Only safe from the owning
// Queue's run goroutine.
func (h *Handle) SetUserData(v any) { h.userdata = v }

// Cancel transitions the Handle to a terminal status and releases its
// backend registration. status must satisfy IsValidCancelStatus; Done
// and any error other than Declined are accepted, matching the base
// engine's Handle::cancel contract.
func (h *Handle) Cancel(status Status) error {
	if !IsValidCancelStatus(status) {
		return &ArgumentError{Message: "invalid cancel status: " + status.String()}
	}
	if h.state.IsTerminal() {
		return &StatusError{Op: "Cancel", Status: ErrorAlreadyPerformed}
	}
	return h.queue.cancelHandle(h, status)
}

// forceCancel is cancelHandle's no-questions-asked counterpart, used by
// handleRegistry.cancelAll during Queue teardown.
func (h *Handle) forceCancel(status Status) {
	_ = h.queue.cancelHandle(h, status)
}

// Pause suspends a resumable Handle (timer or poll) without canceling
// it: the backend registration is released but the Handle may later
// Resume. Thread and signal Handles do not support pausing.
func (h *Handle) Pause() error {
	if h.kind == KindThread || h.kind == KindSignal {
		return &StatusError{Op: "Pause", Status: ErrorNotSupported}
	}
	return h.queue.pauseHandle(h)
}

// Resume rearms a Suspended or Declined Handle.
func (h *Handle) Resume() error {
	return h.queue.resumeHandle(h)
}

// bumpTimeline increments and returns the handle's current timeline,
// called whenever the handle is (re)armed. No completion is checked
// against it.
func (h *Handle) bumpTimeline() uint64 {
	return h.timeline.Add(1)
}

func (h *Handle) currentTimeline() uint64 {
	return h.timeline.Load()
}
