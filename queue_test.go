package evqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := NewQueue(QueueInfo{EngineMask: EngineAny, OSIdleInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestQueue_TimerOneShot(t *testing.T) {
	q := newTestQueue(t)

	var fires int
	var lastStatus Status
	var lastValue uint32
	done := make(chan struct{})

	_, err := q.ScheduleTimer(TimerInfo{Timeout: 20 * time.Millisecond, Count: 1}, func(_ any, h *Handle, value uint32, status Status) {
		fires++
		lastStatus = status
		lastValue = value
		if status == Done {
			close(done)
		}
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _, _ = q.Run(ctx, WakeupInfo{}) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	_ = q.Wakeup(WakeupInfo{})

	assert.Equal(t, 2, fires) // Ok then Done, per spec's one-shot scenario
	assert.Equal(t, Done, lastStatus)
	assert.Equal(t, uint32(1), lastValue) // value == count on the terminal firing
}

func TestQueue_TimerRepeatingCancelMidStream(t *testing.T) {
	q := newTestQueue(t)

	var mu sync.Mutex
	var statuses []Status
	var values []uint32

	h, err := q.ScheduleTimer(TimerInfo{Timeout: 5 * time.Millisecond, Interval: 5 * time.Millisecond, Count: Infinite}, func(_ any, h *Handle, value uint32, status Status) {
		mu.Lock()
		statuses = append(statuses, status)
		values = append(values, value)
		n := len(statuses)
		mu.Unlock()
		if n == 5 {
			_ = h.Cancel(Done)
		}
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _, _ = q.Run(ctx, WakeupInfo{}) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) >= 5 && statuses[len(statuses)-1] == Done
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	_ = q.Wakeup(WakeupInfo{})

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(statuses), 5)
	assert.Equal(t, Done, statuses[len(statuses)-1])
	assert.Equal(t, uint32(1), values[0]) // fire counter starts at 1
	assert.True(t, h.Status().IsTerminal())
}

func TestQueue_ThreadHandoffPreservesSubmissionOrder(t *testing.T) {
	q := newTestQueue(t)

	h, err := q.AddThreadHandle(nil, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _, _ = q.Run(ctx, WakeupInfo{}) }()

	const n = 1000
	for i := 0; i < n; i++ {
		i := i
		require.NoError(t, h.Perform(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == n
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		require.Equal(t, i, v, "thread handoff must preserve FIFO submission order")
	}
}

func TestQueue_PollReturnsImmediatelyWithNoReadyEvents(t *testing.T) {
	q := newTestQueue(t)

	start := time.Now()
	status, err := q.Poll()
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, Ok, status)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestQueue_CancelAlreadyPerformedIsIdempotent(t *testing.T) {
	q := newTestQueue(t)

	h, err := q.ScheduleTimer(TimerInfo{Timeout: time.Hour, Count: 1}, func(any, *Handle, uint32, Status) {}, nil)
	require.NoError(t, err)

	require.NoError(t, h.Cancel(ErrorCancelled))
	err = h.Cancel(ErrorCancelled)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, ErrorAlreadyPerformed, statusErr.Status)
}

func TestQueue_ScheduleTimerRejectsInvalidArguments(t *testing.T) {
	q := newTestQueue(t)

	_, err := q.ScheduleTimer(TimerInfo{Timeout: -time.Millisecond, Count: 1}, nil, nil)
	require.Error(t, err)

	_, err = q.ScheduleTimer(TimerInfo{Timeout: time.Millisecond, Clock: TimerClock(99), Count: 1}, nil, nil)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, ErrorNotImplemented, statusErr.Status)
}

func TestQueue_NestedRunDoesNotMissOuterTicks(t *testing.T) {
	q := newTestQueue(t)

	var outerFires atomic.Int32
	var innerRan atomic.Bool

	_, err := q.ScheduleTimer(TimerInfo{Timeout: 5 * time.Millisecond, Interval: 5 * time.Millisecond, Count: Infinite}, func(_ any, h *Handle, _ uint32, status Status) {
		if status != Ok {
			return
		}
		outerFires.Add(1)
		if innerRan.CompareAndSwap(false, true) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			status, _ := q.Run(ctx, WakeupInfo{})
			assert.Equal(t, ErrorCancelled, status)
		}
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _ = q.Run(ctx, WakeupInfo{})

	assert.GreaterOrEqual(t, int(outerFires.Load()), 2)
}
