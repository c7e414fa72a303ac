// Package evqueue: backend.go defines the interface every platform
// completion mechanism implements, grounded on the teacher event loop's
// FastPoller contract (poller_linux.go/poller_darwin.go/poller_windows.go)
// generalized from "FD readiness only" to every fd-backed Handle: poll,
// thread and signal completions all flow through the same dispatch
// callback. Timers never register with the backend; the Queue's software
// timer heap drives them.
package evqueue

import "time"

// pollEvents mirrors the teacher's IOEvents bitset.
type pollEvents uint32

const (
	pollRead pollEvents = 1 << iota
	pollWrite
	pollError
	pollHangup
)

// completion is what a backend delivers to Queue.dispatch for one ready
// Handle. backendData carries the fd's pollEvents readiness bits; only
// poll Handles read it, thread and signal Handles ignore it.
type completion struct {
	handle      *Handle
	status      Status
	backendData uint64
}

// backend is the per-platform completion mechanism a Queue drives. Exactly
// one backend is live per Queue, chosen from QueueInfo.EngineMask at
// construction time.
type backend interface {
	// engine reports which EngineMask bit this backend implements.
	engine() EngineMask

	// wait blocks for at most timeout (negative meaning indefinite) and
	// appends ready completions to out, returning the extended slice.
	// A timeout of 0 polls without blocking.
	wait(timeout time.Duration, out []completion) ([]completion, error)

	// wakeup interrupts a concurrent wait call from any goroutine.
	wakeup() error

	// registerPoll/unregisterPoll/modifyPoll manage a pollable Handle's
	// backend registration.
	registerPoll(fd int, events pollEvents, h *Handle) error
	unregisterPoll(fd int) error
	modifyPoll(fd int, events pollEvents) error

	close() error
}

var errEngineNotAvailable = ErrEngineNotAvailable
