//go:build darwin

package evqueue

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const wakeupIdent = ^uint64(0)

// kqueueBackend implements backend using kqueue for pollable Handles and
// EVFILT_USER for cross-goroutine wakeup. Timer Handles are driven by the
// Queue's software timer heap (see timer.go), not a native kqueue
// mechanism, so the wait deadline already reflects the next timer fire.
// Grounded on the teacher event loop's FastPoller (poller_darwin.go):
// dynamic registration table, preallocated event buffer, RWMutex-guarded
// registration with callback dispatch outside the lock.
type kqueueBackend struct {
	kq       int
	mu       sync.RWMutex
	regs     map[int]*Handle
	eventBuf [256]unix.Kevent_t
}

func newKqueueBackend() (*kqueueBackend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	b := &kqueueBackend{kq: kq, regs: make(map[int]*Handle)}
	_, err = unix.Kevent(kq, []unix.Kevent_t{{
		Ident:  wakeupIdent,
		Filter: unix.EVFILT_USER,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}}, nil, nil)
	if err != nil {
		unix.Close(kq)
		return nil, err
	}
	return b, nil
}

// newPlatformBackend constructs the backend for this OS from the
// requested mask. Darwin only ever offers kqueue; RunLoop in mask is
// ignored (see DESIGN.md).
func newPlatformBackend(mask EngineMask) (backend, error) {
	if !mask.has(EngineKQueue) {
		return nil, ErrNoBackend
	}
	return newKqueueBackend()
}

func (b *kqueueBackend) engine() EngineMask { return EngineKQueue }

func (b *kqueueBackend) registerPoll(fd int, events pollEvents, h *Handle) error {
	b.mu.Lock()
	b.regs[fd] = h
	b.mu.Unlock()

	kevs := pollToKevents(fd, events, unix.EV_ADD|unix.EV_ENABLE)
	if len(kevs) == 0 {
		return nil
	}
	if _, err := unix.Kevent(b.kq, kevs, nil, nil); err != nil {
		b.mu.Lock()
		delete(b.regs, fd)
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *kqueueBackend) unregisterPoll(fd int) error {
	b.mu.Lock()
	delete(b.regs, fd)
	b.mu.Unlock()
	kevs := pollToKevents(fd, pollRead|pollWrite, unix.EV_DELETE)
	_, _ = unix.Kevent(b.kq, kevs, nil, nil)
	return nil
}

func (b *kqueueBackend) modifyPoll(fd int, events pollEvents) error {
	kevs := pollToKevents(fd, events, unix.EV_ADD|unix.EV_ENABLE)
	_, err := unix.Kevent(b.kq, kevs, nil, nil)
	return err
}

func (b *kqueueBackend) wait(timeout time.Duration, out []completion) ([]completion, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	n, err := unix.Kevent(b.kq, nil, b.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for i := 0; i < n; i++ {
		kev := &b.eventBuf[i]
		switch kev.Filter {
		case unix.EVFILT_USER:
			continue
		default:
			if h, ok := b.regs[int(kev.Ident)]; ok {
				out = append(out, completion{handle: h, status: Ok, backendData: uint64(keventToPoll(kev))})
			}
		}
	}
	return out, nil
}

func (b *kqueueBackend) wakeup() error {
	_, err := unix.Kevent(b.kq, []unix.Kevent_t{{
		Ident:  wakeupIdent,
		Filter: unix.EVFILT_USER,
		Fflags: unix.NOTE_TRIGGER,
	}}, nil, nil)
	return err
}

func (b *kqueueBackend) close() error {
	return unix.Close(b.kq)
}

func pollToKevents(fd int, events pollEvents, flags uint16) []unix.Kevent_t {
	var kevs []unix.Kevent_t
	if events&pollRead != 0 {
		kevs = append(kevs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if events&pollWrite != 0 {
		kevs = append(kevs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return kevs
}

func keventToPoll(kev *unix.Kevent_t) pollEvents {
	var events pollEvents
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= pollRead
	case unix.EVFILT_WRITE:
		events |= pollWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= pollError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= pollHangup
	}
	return events
}
