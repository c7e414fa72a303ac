package evqueue

// handleClass is the per-kind vtable a Handle delegates its backend
// interactions to, grounded on the original engine's HandleClass
// (detail/SPEventHandleClass.h): one small set of function pointers
// shared by every Handle of a kind, instead of per-instance virtual
// dispatch.
type handleClass struct {
	kind HandleKind

	// rearm (re)registers the Handle with its backend/software timer
	// heap and returns the Status to transition to (normally Ok).
	rearm func(q *Queue, h *Handle) Status

	// disarm releases the Handle's backend registration without
	// destroying the Handle, used by Pause and by Cancel.
	disarm func(q *Queue, h *Handle)

	// onCompletion turns backend-delivered data into the Status and
	// per-kind value the Handle should report, and whether the backend
	// registration should be renewed (true for a repeating timer with
	// iterations left and for poll, thread and signal Handles that stay
	// armed; false when the Handle reaches a terminal status).
	onCompletion func(q *Queue, h *Handle, data uint64) (status Status, value uint32, rearm bool)
}

var (
	timerHandleClass  = &handleClass{kind: KindTimer, rearm: timerRearm, disarm: timerDisarm, onCompletion: timerOnCompletion}
	pollHandleClass   = &handleClass{kind: KindPoll, rearm: pollRearm, disarm: pollDisarm, onCompletion: pollOnCompletion}
	threadHandleClass = &handleClass{kind: KindThread, rearm: threadRearm, disarm: threadDisarm, onCompletion: threadOnCompletion}
	signalHandleClass = &handleClass{kind: KindSignal, rearm: signalRearm, disarm: signalDisarm, onCompletion: signalOnCompletion}
)
