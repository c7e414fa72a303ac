package evqueue

import (
	"time"

	"github.com/evqueue/evqueue/internal/timerheap"
)

// TimerInfo configures a timer Handle, mirroring the base engine's
// TimerInfo: an initial delay, a repeat interval, a fire-count cap, and
// the clock it should be read against.
type TimerInfo struct {
	Timeout  time.Duration
	Interval time.Duration
	Count    uint32
	Clock    TimerClock
}

// timerSource is the per-kind data a timer Handle carries, grounded on the
// teacher's timerHeap entries plus runTimers' fired-count bookkeeping in
// loop.go, generalized from "one-shot wake the loop" to "drive a specific
// Handle's completion."
type timerSource struct {
	info  TimerInfo
	fired uint32
	entry *timerheap.Entry
}

// ScheduleTimer creates and arms a timer Handle. info.Timeout is the delay
// until the first firing; info.Interval, if non-zero, repeats the timer
// every interval thereafter up to info.Count firings (Infinite for
// unbounded). Only Monotonic and Realtime clocks are implemented; any
// other TimerClock is rejected.
func (q *Queue) ScheduleTimer(info TimerInfo, completion CompletionFunc, userdata any) (*Handle, error) {
	if info.Clock != ClockMonotonic && info.Clock != ClockRealtime {
		return nil, &StatusError{Op: "ScheduleTimer", Status: ErrorNotImplemented}
	}
	if info.Timeout < 0 || info.Interval < 0 {
		return nil, &ArgumentError{Message: "timer timeout/interval must be non-negative"}
	}
	if info.Timeout == 0 && info.Interval == 0 {
		return nil, &ArgumentError{Message: "timer requires a positive timeout or interval"}
	}
	if info.Count == 0 {
		info.Count = 1
	}

	h := q.newHandle(KindTimer, timerHandleClass, completion, userdata)
	h.source = &timerSource{info: info}

	status := timerHandleClass.rearm(q, h)
	if status.IsError() {
		q.data.registry.remove(h.id)
		return nil, &StatusError{Op: "ScheduleTimer", Status: status}
	}
	h.state.Store(status)
	return h, nil
}

// timerRearm (re)inserts the timer's next deadline into the Queue's
// software timer heap. Used both for the initial arm and for Resume after
// Pause.
func timerRearm(q *Queue, h *Handle) Status {
	src, ok := h.source.(*timerSource)
	if !ok {
		return ErrorUnknown
	}
	delay := src.info.Timeout
	if src.fired > 0 {
		delay = src.info.Interval
	}
	src.entry = q.data.timers.Push(time.Now().Add(delay), h)
	return Ok
}

func timerDisarm(q *Queue, h *Handle) {
	src, ok := h.source.(*timerSource)
	if !ok || src.entry == nil {
		return
	}
	q.data.timers.Remove(src.entry)
	src.entry = nil
}

// timerOnCompletion is not invoked by backend dispatch (timers never
// register with the backend); Queue.runExpiredTimers calls it directly
// once a heap entry's deadline has passed. value is src.fired, the
// running count of firings so far; for a repeating timer (Interval > 0)
// it equals info.Count on the terminal Done transition, while a timer
// with no Interval ends after its first firing with value 1.
func timerOnCompletion(q *Queue, h *Handle, _ uint64) (Status, uint32, bool) {
	src, ok := h.source.(*timerSource)
	if !ok {
		return ErrorUnknown, 0, false
	}
	src.fired++
	src.entry = nil
	value := src.fired

	if src.info.Interval <= 0 || src.fired >= src.info.Count {
		return Done, value, false
	}

	src.entry = q.data.timers.Push(time.Now().Add(src.info.Interval), h)
	return Ok, value, true
}

// runExpiredTimers pops every timer heap entry whose deadline has passed
// and drives its Handle's completion, mirroring the teacher's runTimers.
func (q *Queue) runExpiredTimers(now time.Time) {
	for {
		e := q.data.timers.Peek()
		if e == nil || e.When.After(now) {
			return
		}
		q.data.timers.Pop()

		h, ok := e.Owner.(*Handle)
		if !ok || h.state.IsTerminal() {
			continue
		}

		status, value, again := timerOnCompletion(q, h, 0)
		if status == Done {
			// The last firing is reported as Ok first, then as the
			// terminal Done with the same value.
			q.invokeCompletion(h, value, Ok)
			if h.state.IsTerminal() {
				continue
			}
		}
		q.invokeCompletion(h, value, status)
		if again {
			h.bumpTimeline()
			continue
		}
		h.state.Store(status)
		q.data.registry.remove(h.id)
	}
}
