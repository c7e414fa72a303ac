package evqueue

// runContext represents one nested Queue.Run call, mirroring the base
// engine's RunContext stack (spec.md §3/§4.5). Grounded on the teacher
// event loop's nested-run handling in loop.go (Run pushing/popping its
// own frame), realized here as an explicit slice-backed stack on Queue
// rather than an intrusive linked list, since Go has no cheap equivalent
// of placing a stack frame's address into a list node.
type runContext struct {
	flags WakeupFlags

	// wakeupRequested, once true, asks this frame's Run loop to return on
	// its next iteration boundary.
	wakeupRequested bool
	wakeupStatus    Status

	// root marks the outermost frame. It is recorded but not read:
	// Queue.Wakeup always targets the innermost frame, and there is no
	// way to ask for every frame to stop.
	root bool
}

func newRunContext(flags WakeupFlags, root bool) *runContext {
	return &runContext{flags: flags, root: root}
}

// requestWakeup marks this frame for exit with the given terminal status,
// returning false if a wakeup was already pending (first request wins).
func (c *runContext) requestWakeup(status Status) bool {
	if c.wakeupRequested {
		return false
	}
	c.wakeupRequested = true
	c.wakeupStatus = status
	return true
}

// pushRunContext enters a new nested Run frame.
func (q *Queue) pushRunContext(flags WakeupFlags) *runContext {
	rc := newRunContext(flags, len(q.runStack) == 0)
	q.runStack = append(q.runStack, rc)
	return rc
}

// popRunContext exits the innermost Run frame. Panics if called with an
// empty stack, which would indicate a Queue.Run bug, not caller misuse.
func (q *Queue) popRunContext() {
	n := len(q.runStack)
	q.runStack = q.runStack[:n-1]
}

// currentRunContext returns the innermost active run frame, or nil if Queue.Run is
// not currently executing (e.g. a Handle fired from Queue.Poll).
func (q *Queue) currentRunContext() *runContext {
	if len(q.runStack) == 0 {
		return nil
	}
	return q.runStack[len(q.runStack)-1]
}
