package evqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_UserData(t *testing.T) {
	q := newTestQueue(t)

	h, err := q.ScheduleTimer(TimerInfo{Timeout: time.Hour, Count: 1}, nil, "initial")
	require.NoError(t, err)

	assert.Equal(t, "initial", h.UserData())
	h.SetUserData("replaced")
	assert.Equal(t, "replaced", h.UserData())
}

func TestHandle_KindAndQueueAccessors(t *testing.T) {
	q := newTestQueue(t)

	h, err := q.ScheduleTimer(TimerInfo{Timeout: time.Hour, Count: 1}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, KindTimer, h.Kind())
	assert.Equal(t, "timer", h.Kind().String())
	assert.Same(t, q, h.Queue())
	assert.NotZero(t, h.ID())
}

func TestHandle_CancelRejectsInvalidStatus(t *testing.T) {
	q := newTestQueue(t)

	h, err := q.ScheduleTimer(TimerInfo{Timeout: time.Hour, Count: 1}, nil, nil)
	require.NoError(t, err)

	err = h.Cancel(Declined)
	require.Error(t, err)
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
}

func TestHandle_PauseAndResumeTimer(t *testing.T) {
	q := newTestQueue(t)

	h, err := q.ScheduleTimer(TimerInfo{Timeout: time.Hour, Count: 1}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, Ok, h.Status())

	require.NoError(t, h.Pause())
	assert.Equal(t, Declined, h.Status())

	require.NoError(t, h.Resume())
	assert.Equal(t, Ok, h.Status())
}

func TestHandle_PauseUnsupportedOnThreadHandle(t *testing.T) {
	q := newTestQueue(t)

	h, err := q.AddThreadHandle(nil, nil)
	require.NoError(t, err)

	err = h.Pause()
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, ErrorNotSupported, statusErr.Status)
}

func TestHandle_CancelAfterCloseReportsAlreadyPerformed(t *testing.T) {
	q, err := NewQueue(QueueInfo{EngineMask: EngineAny})
	require.NoError(t, err)

	h, err := q.ScheduleTimer(TimerInfo{Timeout: time.Hour, Count: 1}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, q.Close())
	assert.True(t, h.Status().IsTerminal())
	assert.Equal(t, ErrorCancelled, h.Status())

	err = h.Cancel(Done)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, ErrorAlreadyPerformed, statusErr.Status)
}
