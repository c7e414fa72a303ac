package evqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleState_StartsPending(t *testing.T) {
	s := newHandleState()
	assert.Equal(t, Pending, s.Load())
	assert.False(t, s.IsTerminal())
	assert.False(t, s.IsArmed())
}

func TestHandleState_TryTransition(t *testing.T) {
	s := newHandleState()
	require.True(t, s.TryTransition(Pending, Ok))
	assert.Equal(t, Ok, s.Load())
	assert.True(t, s.IsArmed())

	// stale compare fails once the state has moved on.
	assert.False(t, s.TryTransition(Pending, Ok))
}

func TestHandleState_TransitionAny(t *testing.T) {
	s := newHandleState()
	s.Store(Suspended)
	assert.True(t, s.TransitionAny([]Status{Declined, Suspended}, Ok))
	assert.Equal(t, Ok, s.Load())
}

func TestHandleState_CanRearm(t *testing.T) {
	tests := []struct {
		name string
		in   Status
		want bool
	}{
		{"pending", Pending, false},
		{"ok", Ok, false},
		{"suspended", Suspended, true},
		{"declined", Declined, true},
		{"done", Done, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newHandleState()
			s.Store(tt.in)
			assert.Equal(t, tt.want, s.CanRearm())
		})
	}
}

func TestHandleState_IsTerminal(t *testing.T) {
	tests := []struct {
		name string
		in   Status
		want bool
	}{
		{"pending", Pending, false},
		{"ok", Ok, false},
		{"done", Done, true},
		{"error_cancelled", ErrorCancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newHandleState()
			s.Store(tt.in)
			assert.Equal(t, tt.want, s.IsTerminal())
		})
	}
}
