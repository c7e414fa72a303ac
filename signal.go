package evqueue

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// signalSource backs a Signal Handle: an os/signal channel bridged onto
// the Queue's own goroutine through a private wake fd, reusing the same
// cross-goroutine wakeup primitive as a Thread Handle's mailbox fd. This
// is a portability simplification against the base spec's per-backend
// signalfd/EVFILT_SIGNAL mapping (see DESIGN.md): os/signal is the
// idiomatic Go mechanism for catching OS signals and behaves identically
// across epoll and kqueue, so there is no backend-specific code to write
// for Linux/Darwin. Multiple deliveries that arrive between two
// completions are coalesced into one completion call, which matches
// os/signal's own channel-coalescing behavior under backpressure.
type signalSource struct {
	signals []os.Signal
	ch      chan os.Signal
	readFd  int
	writeFd int
	pending atomic.Int32
	stop    chan struct{}
}

// ListenSignal arms a Signal Handle that fires completion after deliveries
// of any of the given signals; deliveries arriving between two
// completions are coalesced into one, whose value is their count. Returns
// ErrorNotImplemented
// on platforms with no signal backend (Windows).
func (q *Queue) ListenSignal(completion CompletionFunc, userdata any, signals ...os.Signal) (*Handle, error) {
	if !signalHandlesSupported {
		return nil, &StatusError{Op: "ListenSignal", Status: ErrorNotImplemented}
	}
	if len(signals) == 0 {
		return nil, &ArgumentError{Message: "ListenSignal requires at least one signal"}
	}

	readFd, writeFd, err := createWakeFd()
	if err != nil {
		return nil, &StatusError{Op: "ListenSignal", Status: ErrorUnknown, Cause: err}
	}

	h := q.newHandle(KindSignal, signalHandleClass, completion, userdata)
	src := &signalSource{
		signals: signals,
		ch:      make(chan os.Signal, 8),
		readFd:  readFd,
		writeFd: writeFd,
		stop:    make(chan struct{}),
	}
	h.source = src

	status := signalHandleClass.rearm(q, h)
	if status.IsError() {
		closeWakeFd(readFd, writeFd)
		q.data.registry.remove(h.id)
		return nil, &StatusError{Op: "ListenSignal", Status: status}
	}
	h.state.Store(status)
	return h, nil
}

func signalRearm(q *Queue, h *Handle) Status {
	src, ok := h.source.(*signalSource)
	if !ok {
		return ErrorUnknown
	}
	signal.Notify(src.ch, src.signals...)
	go signalForwarder(src)
	if err := q.backend.registerPoll(src.readFd, pollRead, h); err != nil {
		signal.Stop(src.ch)
		close(src.stop)
		return statusFromErr(err)
	}
	return Ok
}

// signalForwarder runs on its own goroutine for the lifetime of the
// Signal Handle, translating OS signal delivery into the wake fd
// protocol every other Handle kind on this platform already uses.
func signalForwarder(src *signalSource) {
	for {
		select {
		case _, ok := <-src.ch:
			if !ok {
				return
			}
			src.pending.Add(1)
			_ = signalWakeFd(src.writeFd)
		case <-src.stop:
			return
		}
	}
}

func signalDisarm(q *Queue, h *Handle) {
	src, ok := h.source.(*signalSource)
	if !ok {
		return
	}
	signal.Stop(src.ch)
	select {
	case <-src.stop:
	default:
		close(src.stop)
	}
	_ = q.backend.unregisterPoll(src.readFd)
	closeWakeFd(src.readFd, src.writeFd)
}

// signalOnCompletion reports the number of deliveries coalesced since the
// last completion as value, draining both the wake fd and the pending
// counter that signalForwarder incremented.
func signalOnCompletion(_ *Queue, h *Handle, _ uint64) (Status, uint32, bool) {
	src, ok := h.source.(*signalSource)
	if !ok {
		return Ok, 0, true
	}
	_ = drainWakeFd(src.readFd)
	n := src.pending.Swap(0)
	return Ok, uint32(n), true
}
