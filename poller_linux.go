//go:build linux

package evqueue

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollBackend implements backend using Linux epoll for pollable Handles
// and an eventfd for cross-goroutine wakeup. Timer Handles are driven by
// the Queue's software timer heap (see timer.go), not timerfd, so the
// wait deadline already reflects the next timer fire. Grounded on the
// teacher event loop's FastPoller (poller_linux.go): direct FD-indexed
// registration table, a version counter guarding against stale
// post-syscall dispatch, inline callback execution.
type epollBackend struct { // betteralign:ignore
	_        [64]byte
	epfd     int
	wakeFd   int
	_        [48]byte
	version  uint64
	mu       sync.RWMutex
	regs     map[int]*Handle
	eventBuf [256]unix.EpollEvent
}

func newEpollBackend() (*epollBackend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	b := &epollBackend{epfd: epfd, wakeFd: wakeFd, regs: make(map[int]*Handle)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakeFd),
	}); err != nil {
		unix.Close(wakeFd)
		unix.Close(epfd)
		return nil, err
	}
	return b, nil
}

// newPlatformBackend constructs the backend for this OS from the
// requested mask. Linux only ever offers epoll; URing and ALooper bits
// in mask are ignored (see DESIGN.md).
func newPlatformBackend(mask EngineMask) (backend, error) {
	if !mask.has(EngineEPoll) {
		return nil, ErrNoBackend
	}
	return newEpollBackend()
}

func (b *epollBackend) engine() EngineMask { return EngineEPoll }

func (b *epollBackend) registerPoll(fd int, events pollEvents, h *Handle) error {
	b.mu.Lock()
	b.regs[fd] = h
	b.version++
	b.mu.Unlock()

	ev := &unix.EpollEvent{Events: pollToEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		b.mu.Lock()
		delete(b.regs, fd)
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *epollBackend) unregisterPoll(fd int) error {
	b.mu.Lock()
	delete(b.regs, fd)
	b.version++
	b.mu.Unlock()
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) modifyPoll(fd int, events pollEvents) error {
	ev := &unix.EpollEvent{Events: pollToEpoll(events), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (b *epollBackend) wait(timeout time.Duration, out []completion) ([]completion, error) {
	ms := durationToEpollMillis(timeout)

	v := b.version
	n, err := unix.EpollWait(b.epfd, b.eventBuf[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.version != v {
		// registrations changed mid-wait; the next wait call will pick up
		// the current state, so discard this batch rather than risk
		// dispatching against a stale fd.
		return out, nil
	}
	for i := 0; i < n; i++ {
		fd := int(b.eventBuf[i].Fd)
		if fd == b.wakeFd {
			var buf [8]byte
			_, _ = unix.Read(b.wakeFd, buf[:])
			continue
		}
		h, ok := b.regs[fd]
		if !ok {
			continue
		}
		out = append(out, completion{handle: h, status: Ok, backendData: uint64(epollToPoll(b.eventBuf[i].Events))})
	}
	return out, nil
}

func (b *epollBackend) wakeup() error {
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(b.wakeFd, one[:])
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func (b *epollBackend) close() error {
	_ = unix.Close(b.wakeFd)
	return unix.Close(b.epfd)
}

func durationToEpollMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d.Milliseconds()
	if ms > int64(int(^uint(0)>>1)) {
		return int(^uint32(0) >> 1)
	}
	return int(ms)
}

func pollToEpoll(events pollEvents) uint32 {
	var e uint32
	if events&pollRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&pollWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func epollToPoll(e uint32) pollEvents {
	var events pollEvents
	if e&unix.EPOLLIN != 0 {
		events |= pollRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= pollWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= pollError
	}
	if e&unix.EPOLLHUP != 0 {
		events |= pollHangup
	}
	return events
}
