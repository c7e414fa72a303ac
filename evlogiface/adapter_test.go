package evlogiface

import (
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evqueue/evqueue"
)

// mockEvent is a minimal logiface.Event used to exercise Adapter without
// depending on a concrete sink implementation (stumpy, zerolog, ...).
type mockEvent struct {
	logiface.UnimplementedEvent
	level  logiface.Level
	msg    string
	err    error
	fields map[string]any
}

func (e *mockEvent) Level() logiface.Level { return e.level }

func (e *mockEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = val
}

func (e *mockEvent) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func (e *mockEvent) AddError(err error) bool {
	e.err = err
	return true
}

type mockFactory struct{}

func (mockFactory) NewEvent(level logiface.Level) *mockEvent {
	return &mockEvent{level: level}
}

type mockWriter struct {
	written []*mockEvent
}

func (w *mockWriter) Write(event *mockEvent) error {
	w.written = append(w.written, event)
	return nil
}

func newMockLogger(level logiface.Level, w *mockWriter) *logiface.Logger[*mockEvent] {
	return logiface.New[*mockEvent](
		logiface.WithLevel[*mockEvent](level),
		logiface.WithEventFactory[*mockEvent](mockFactory{}),
		logiface.WithWriter[*mockEvent](w),
	)
}

func TestAdapter_IsEnabledRespectsThreshold(t *testing.T) {
	w := &mockWriter{}
	logger := newMockLogger(logiface.LevelInformational, w)
	a := New(logger)

	assert.False(t, a.IsEnabled(evqueue.LevelDebug), "debug is more verbose than informational, should be suppressed")
	assert.True(t, a.IsEnabled(evqueue.LevelInfo))
	assert.True(t, a.IsEnabled(evqueue.LevelWarn), "warning is more severe than informational, should pass")
	assert.True(t, a.IsEnabled(evqueue.LevelError))
}

func TestAdapter_LogTranslatesEntryFields(t *testing.T) {
	w := &mockWriter{}
	logger := newMockLogger(logiface.LevelInformational, w)
	a := New(logger)

	a.Log(evqueue.LogEntry{
		Level:    evqueue.LevelInfo,
		Message:  "handle completed",
		QueueID:  7,
		HandleID: 42,
		Category: "timer",
		Context:  map[string]any{"attempt": 3},
	})

	require.Len(t, w.written, 1)
	ev := w.written[0]
	assert.Equal(t, "handle completed", ev.msg)
	assert.EqualValues(t, 7, ev.fields["queue"])
	assert.EqualValues(t, 42, ev.fields["handle"])
	assert.Equal(t, "timer", ev.fields["category"])
	assert.EqualValues(t, 3, ev.fields["attempt"])
}

func TestAdapter_LogSkipsDisabledLevel(t *testing.T) {
	w := &mockWriter{}
	logger := newMockLogger(logiface.LevelWarning, w)
	a := New(logger)

	a.Log(evqueue.LogEntry{Level: evqueue.LevelDebug, Message: "should not appear"})

	assert.Empty(t, w.written)
}

func TestAdapter_LogIncludesError(t *testing.T) {
	w := &mockWriter{}
	logger := newMockLogger(logiface.LevelInformational, w)
	a := New(logger)

	cause := assert.AnError
	a.Log(evqueue.LogEntry{Level: evqueue.LevelError, Message: "backend failure", Err: cause})

	require.Len(t, w.written, 1)
	assert.Equal(t, cause, w.written[0].err)
}
