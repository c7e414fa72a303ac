package evqueue

import (
	"sync/atomic"
)

// handleState is a lock-free Status state machine with cache-line padding,
// grounded on the teacher event loop's FastState: pure atomic CAS, no
// mutex, padded to avoid false sharing between Handles packed into the
// same allocation run.
type handleState struct { // betteralign:ignore
	_ [64]byte      // cache line padding (before value) //nolint:unused
	v atomic.Uint64 // Status value
	_ [56]byte      // pad to complete cache line (64 - 8 = 56) //nolint:unused
}

// newHandleState creates a state machine starting at Pending.
func newHandleState() *handleState {
	s := &handleState{}
	s.v.Store(uint64(Pending))
	return s
}

// Load returns the current Status atomically.
func (s *handleState) Load() Status {
	return Status(s.v.Load())
}

// Store atomically stores a new Status, bypassing transition validation.
// Used wherever the caller has already decided the outcome (arming,
// staying armed after a completion, terminal transitions), where a CAS
// would just repeat the same compare against whatever TryTransition last
// observed.
func (s *handleState) Store(st Status) {
	s.v.Store(uint64(st))
}

// TryTransition attempts to atomically move from `from` to `to`. Reports
// whether it succeeded.
func (s *handleState) TryTransition(from, to Status) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny attempts to move from any of validFrom to `to`, trying each
// in order until one CAS succeeds.
func (s *handleState) TransitionAny(validFrom []Status, to Status) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the current status is Done or an error.
func (s *handleState) IsTerminal() bool {
	return s.Load().IsTerminal()
}

// IsArmed reports whether the Handle is currently known to the backend
// (Ok), as opposed to Pending, Suspended/Declined, or terminal.
func (s *handleState) IsArmed() bool {
	return s.Load() == Ok
}

// CanRearm reports whether the Handle may currently transition back to Ok
// (Suspended or Declined; Pause has already released the backend
// registration, and Resume registers it again).
func (s *handleState) CanRearm() bool {
	switch s.Load() {
	case Suspended, Declined:
		return true
	default:
		return false
	}
}
