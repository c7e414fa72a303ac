// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package evqueue

import "time"

// QueueFlags mirrors the base engine's QueueFlags bitset.
type QueueFlags uint32

const (
	FlagNone QueueFlags = 0
	// FlagProtected asks the backend to shield submission from being
	// interrupted by signals where that is meaningful. epoll/kqueue
	// restart on EINTR regardless; this flag is accepted for API parity
	// and no backend reads it.
	FlagProtected QueueFlags = 1 << 0
	// FlagSubmitImmediate asks the backend to submit operations as they
	// are added rather than batching until Queue.Flush. Every backend in
	// this module already submits immediately, so this is always the
	// effective behavior; the flag exists for parity with QueueInfo.
	FlagSubmitImmediate QueueFlags = 1 << 1
)

// EngineMask selects which backend(s) a Queue is permitted to use. Each
// platform has exactly one backend; Queue construction uses it when its
// bit is set and ignores the other bits.
type EngineMask uint32

const (
	EngineNone EngineMask = 0
	// EngineURing: Linux io_uring. Always unavailable in this module; see
	// DESIGN.md.
	EngineURing EngineMask = 1 << 0
	// EngineEPoll: Linux/Android epoll.
	EngineEPoll EngineMask = 1 << 1
	// EngineALooper: Android ALooper. Always unavailable in this module.
	EngineALooper EngineMask = 1 << 2
	// EngineIOCP: Windows I/O Completion Ports.
	EngineIOCP EngineMask = 1 << 3
	// EngineKQueue: BSD/Darwin kqueue.
	EngineKQueue EngineMask = 1 << 4
	// EngineRunLoop: macOS CFRunLoop. Always unavailable in this module.
	EngineRunLoop EngineMask = 1 << 5

	EngineAny = EngineURing | EngineEPoll | EngineALooper | EngineIOCP | EngineKQueue | EngineRunLoop
)

func (m EngineMask) has(bit EngineMask) bool { return m&bit != 0 }

// QueueInfo configures a new Queue.
type QueueInfo struct {
	Flags      QueueFlags
	EngineMask EngineMask

	// OSIdleInterval bounds how long a blocking wait may sleep before
	// re-checking for work, independent of any caller-supplied timeout.
	OSIdleInterval time.Duration

	Logger Logger
}

// DefaultQueueInfo returns a QueueInfo with the base spec's defaults:
// EngineAny, no special flags.
func DefaultQueueInfo() QueueInfo {
	return QueueInfo{EngineMask: EngineAny}
}

// WakeupFlags controls how Queue.Wakeup / Queue.Run behave when a stop is
// requested mid-run.
type WakeupFlags uint32

const (
	WakeupNone WakeupFlags = 0
	// WakeupGraceful: stop the innermost run context, which then returns
	// Suspended instead of Done. Handles are not suspended; they stay
	// armed as they were.
	WakeupGraceful WakeupFlags = 1 << 0
	// WakeupSuspendThreads: the Looper additionally drains its worker pool
	// once the Queue's own Run returns.
	WakeupSuspendThreads WakeupFlags = 1 << 1
	// WakeupContextDefault is accepted for API parity; Wakeup does not
	// read it, and the flags a RunContext was entered with are not
	// consulted when it is woken.
	WakeupContextDefault WakeupFlags = 1 << 2

	WakeupAll = WakeupGraceful | WakeupSuspendThreads | WakeupContextDefault
)

// WakeupInfo parameterizes Queue.Wakeup.
type WakeupInfo struct {
	Flags WakeupFlags
	// Timeout is carried for API parity; Queue.Wakeup does not read it,
	// and a wakeup takes effect at the next run-loop iteration regardless.
	Timeout time.Duration
}

// TimerClock selects which clock a timer handle is driven by.
type TimerClock int32

const (
	ClockMonotonic TimerClock = iota
	ClockRealtime
	ClockProcess
	ClockThread
	ClockHardware
)

// Infinite, used as TimerInfo.Count to mean "repeat forever".
const Infinite uint32 = 0xFFFFFFFF
