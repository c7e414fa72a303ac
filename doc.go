// Package evqueue provides a cross-platform asynchronous event engine that
// multiplexes timers, cross-goroutine wakeups, pollable descriptors, and
// signal delivery onto a single per-goroutine cooperative scheduler.
//
// # Architecture
//
// A [Queue] binds to exactly one backend completion mechanism: epoll on
// Linux, kqueue on Darwin/BSD, or I/O Completion Ports on Windows. Callers
// attach a [Handle] to the Queue — a timer ([Queue.ScheduleTimer]), a
// pollable descriptor ([Queue.ListenPollableHandle]), a signal
// ([Queue.ListenSignal]), or a cross-goroutine wakeup primitive
// ([Queue.AddThreadHandle]) — and the Queue invokes the Handle's completion
// callback whenever the backend reports progress.
//
// The evlooper package binds one Queue to one goroutine and adds a worker
// pool for offloaded work; evbus provides a process-wide publish/subscribe
// layer fanned out across loopers.
//
// # Handle lifecycle
//
//	Pending --Run--> Ok <--Resume-- Declined
//	                  |                ^
//	                  | Suspend        | Pause
//	                  v                |
//	              Suspended -----------'
//	                  |
//	                  | Cancel
//	                  v
//	              Done / Error*  (terminal)
//
// # Thread safety
//
// Handles are owned by exactly one Queue and must only be manipulated from
// that Queue's goroutine, except where explicitly documented: the Thread
// handle's producer API ([Handle.Perform]), evbus's dispatch, and
// BusDelegate.Invalidate.
//
// # Platform support
//
//   - Linux: epoll, with eventfd for cross-goroutine wakeups.
//   - Darwin/BSD: kqueue (EVFILT_READ/WRITE, EVFILT_USER for wakeups),
//     with a self-pipe behind each Thread and Signal Handle.
//   - Windows: I/O Completion Ports.
//
// On every platform timers run off a software timer heap and signals are
// received through os/signal, not through timerfd/signalfd or
// EVFILT_TIMER/EVFILT_SIGNAL.
//
// The engine mask also names URing, ALooper and RunLoop for API parity with
// the originating C++ engine; none of them is available on this runtime
// (see DESIGN.md for why), and a mask naming only them makes [NewQueue]
// return [ErrNoBackend].
package evqueue
