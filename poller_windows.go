//go:build windows

package evqueue

import (
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

// iocpBackend implements backend using Windows I/O Completion Ports.
// Grounded on the teacher event loop's FastPoller (poller_windows.go):
// an IOCP handle plus a dynamic registration table, with wakeup via
// PostQueuedCompletionStatus posting a nil-overlapped completion. Timer
// Handles are driven by the Queue's software timer heap (see timer.go);
// IOCP has no native timer primitive, so GetQueuedCompletionStatus is
// simply given the timer heap's next-deadline as its wait timeout.
type iocpBackend struct {
	iocp windows.Handle
	mu   sync.RWMutex
	regs map[int]*Handle
}

func newIOCPBackend() (*iocpBackend, error) {
	iocp, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return &iocpBackend{iocp: iocp, regs: make(map[int]*Handle)}, nil
}

// newPlatformBackend constructs the backend for this OS from the
// requested mask. Windows only ever offers IOCP.
func newPlatformBackend(mask EngineMask) (backend, error) {
	if !mask.has(EngineIOCP) {
		return nil, ErrNoBackend
	}
	return newIOCPBackend()
}

func (b *iocpBackend) engine() EngineMask { return EngineIOCP }

func (b *iocpBackend) registerPoll(fd int, events pollEvents, h *Handle) error {
	handle := windows.Handle(fd)
	if _, err := windows.CreateIoCompletionPort(handle, b.iocp, uintptr(fd), 0); err != nil {
		return err
	}
	b.mu.Lock()
	b.regs[fd] = h
	b.mu.Unlock()
	return nil
}

func (b *iocpBackend) unregisterPoll(fd int) error {
	b.mu.Lock()
	delete(b.regs, fd)
	b.mu.Unlock()
	// Closing the underlying handle is what detaches it from the IOCP;
	// there is no explicit deregistration call.
	return nil
}

func (b *iocpBackend) modifyPoll(fd int, events pollEvents) error {
	// IOCP delivers completions for outstanding overlapped operations,
	// not level-triggered readiness, so there is nothing to rearm here:
	// the caller's own WSARecv/WSASend/ReadFile posts the next overlapped
	// request that will complete through this port.
	return nil
}

func (b *iocpBackend) wait(timeout time.Duration, out []completion) ([]completion, error) {
	var timeoutMs *uint32
	if timeout >= 0 {
		ms := uint32(timeout.Milliseconds())
		timeoutMs = &ms
	}

	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped
	err := windows.GetQueuedCompletionStatus(b.iocp, &bytes, &key, &overlapped, timeoutMs)
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok && errno == windows.WAIT_TIMEOUT {
			return out, nil
		}
		return out, err
	}
	if overlapped == nil {
		// Wakeup completion posted by wakeup().
		return out, nil
	}

	b.mu.RLock()
	h, ok := b.regs[int(key)]
	b.mu.RUnlock()
	if ok {
		out = append(out, completion{handle: h, status: Ok})
	}
	return out, nil
}

func (b *iocpBackend) wakeup() error {
	return windows.PostQueuedCompletionStatus(b.iocp, 0, 0, nil)
}

func (b *iocpBackend) close() error {
	return windows.CloseHandle(b.iocp)
}
