package evqueue

// threadSource backs a Thread Handle: a cross-goroutine wakeup primitive
// plus the lock-free mailbox Perform enqueues onto. Grounded on the
// teacher event loop's Submit/SubmitInternal split in loop.go: Perform is
// the "submit" side, drainThreadHandles on the Queue's own goroutine is
// the "process ingress" side.
type threadSource struct {
	readFd, writeFd int
	mailbox         *mailboxRing
}

// AddThreadHandle creates a Thread Handle: a cross-goroutine wakeup point
// whose mailbox can be fed from any goroutine via Handle.Perform. The
// completion callback, if non-nil, is invoked with (0, Ok) once per
// drained callback after that callback has run, and also each time the
// backend reports the wake fd readable; it is for observability, the
// callbacks themselves do the actual work.
func (q *Queue) AddThreadHandle(completion CompletionFunc, userdata any) (*Handle, error) {
	readFd, writeFd, err := createWakeFd()
	if err != nil {
		return nil, &StatusError{Op: "AddThreadHandle", Status: ErrorUnknown, Cause: err}
	}

	h := q.newHandle(KindThread, threadHandleClass, completion, userdata)
	h.source = &threadSource{readFd: readFd, writeFd: writeFd, mailbox: newMailboxRing()}

	status := threadHandleClass.rearm(q, h)
	if status.IsError() {
		closeWakeFd(readFd, writeFd)
		q.data.registry.remove(h.id)
		return nil, &StatusError{Op: "AddThreadHandle", Status: status}
	}
	h.state.Store(status)
	return h, nil
}

// Perform enqueues fn to run on h's owning Queue goroutine and wakes it.
// Safe to call from any goroutine, including the owning Queue's own.
func (h *Handle) Perform(fn func()) error {
	if fn == nil {
		return &ArgumentError{Message: "nil perform callback"}
	}
	if h.kind != KindThread {
		return &StatusError{Op: "Perform", Status: ErrorNotPermitted}
	}
	src, ok := h.source.(*threadSource)
	if !ok {
		return &StatusError{Op: "Perform", Status: ErrorUnknown}
	}
	if h.state.IsTerminal() {
		return &StatusError{Op: "Perform", Status: ErrorCancelled}
	}

	src.mailbox.Push(fn)

	if src.writeFd >= 0 {
		return signalWakeFd(src.writeFd)
	}
	return h.queue.backend.wakeup()
}

func threadRearm(q *Queue, h *Handle) Status {
	src, ok := h.source.(*threadSource)
	if !ok {
		return ErrorUnknown
	}
	if src.readFd < 0 {
		// Windows: no per-handle fd; wakeup goes through the IOCP
		// backend's own PostQueuedCompletionStatus mechanism.
		return Ok
	}
	if err := q.backend.registerPoll(src.readFd, pollRead, h); err != nil {
		return statusFromErr(err)
	}
	return Ok
}

func threadDisarm(q *Queue, h *Handle) {
	src, ok := h.source.(*threadSource)
	if !ok {
		return
	}
	if src.readFd >= 0 {
		_ = q.backend.unregisterPoll(src.readFd)
		closeWakeFd(src.readFd, src.writeFd)
	}
}

// threadOnCompletion fires when the backend reports readiness on the
// handle's wake fd; it only drains the counter, the actual mailbox drain
// happens once per tick in Queue.drainThreadHandles so that Windows
// (which has no per-handle fd) gets the same treatment. value is unused
// for Thread Handles.
func threadOnCompletion(_ *Queue, h *Handle, _ uint64) (Status, uint32, bool) {
	src, ok := h.source.(*threadSource)
	if ok && src.readFd >= 0 {
		_ = drainWakeFd(src.readFd)
	}
	return Ok, 0, true
}

// drainThreadHandles runs every pending Perform callback across all live
// Thread Handles on the Queue's own goroutine. Called once per tick,
// after backend dispatch and timer expiry, so Perform callbacks observe a
// consistent view of any Handles canceled earlier in the same tick.
func (q *Queue) drainThreadHandles() {
	q.data.registry.forEach(func(h *Handle) {
		if h.kind != KindThread || h.state.IsTerminal() {
			return
		}
		src, ok := h.source.(*threadSource)
		if !ok {
			return
		}
		for {
			fn := src.mailbox.Pop()
			if fn == nil {
				return
			}
			q.safeInvoke(fn)
			if h.completion != nil {
				q.invokeCompletion(h, 0, Ok)
			}
		}
	})
}
