package evlooper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evqueue/evqueue"
)

func newRunningLooper(t *testing.T) (*Looper, func()) {
	t.Helper()
	l, err := New(Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = l.Run(ctx, evqueue.WakeupInfo{})
	}()

	return l, func() {
		cancel()
		<-done
		_ = l.Close()
	}
}

func TestLooper_IsCurrentThreadFalseOffLoopGoroutine(t *testing.T) {
	l, stop := newRunningLooper(t)
	defer stop()

	assert.False(t, l.IsCurrentThread(), "the test goroutine is never the looper's own goroutine")
}

func TestLooper_PerformOnThreadCrossGoroutineRunsOnLoopThread(t *testing.T) {
	l, stop := newRunningLooper(t)
	defer stop()

	var mu sync.Mutex
	var ranOnLoopThread bool

	require.NoError(t, l.PerformOnThread(func() {
		mu.Lock()
		ranOnLoopThread = l.IsCurrentThread()
		mu.Unlock()
	}, false))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ranOnLoopThread
	}, time.Second, 5*time.Millisecond)
}

func TestLooper_PerformAsyncRunsOffLoopThread(t *testing.T) {
	l, stop := newRunningLooper(t)
	defer stop()

	done := make(chan bool, 1)
	require.NoError(t, l.PerformAsync(func() {
		done <- l.IsCurrentThread()
	}, false))

	select {
	case onLoop := <-done:
		assert.False(t, onLoop, "PerformAsync tasks must not run on the looper's own goroutine")
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestLooper_ScheduleFiresAfterTimeout(t *testing.T) {
	l, stop := newRunningLooper(t)
	defer stop()

	fired := make(chan bool, 1)
	start := time.Now()
	_, err := l.Schedule(20*time.Millisecond, func(h *evqueue.Handle, ok bool) {
		fired <- ok
	}, nil)
	require.NoError(t, err)

	select {
	case ok := <-fired:
		assert.True(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("schedule never fired")
	}
}

func TestLooper_QueueAccessorReturnsUnderlyingQueue(t *testing.T) {
	l, stop := newRunningLooper(t)
	defer stop()

	assert.NotNil(t, l.Queue())
}
