package evqueue

import (
	"sync/atomic"
	"time"

	"github.com/evqueue/evqueue/internal/deferred"
	"github.com/evqueue/evqueue/internal/timerheap"
)

var nextQueueID atomic.Int64

// queueData bundles the bookkeeping a Queue owns beyond its backend: the
// Handle registry, the software timer heap, the deferred "perform" list,
// and optional stats. Grounded on the teacher event loop's QueueData
// split between registry.go (promise registry) and loop.go's inline
// ingress/timer/microtask fields, gathered here into one struct so
// Queue.go stays focused on run-loop control flow.
type queueData struct {
	id int64

	registry *handleRegistry
	timers   timerheap.Heap
	deferred deferred.List

	stats *QueueStats

	// logger is QueueInfo.Logger; when nil, entries go to the process-wide
	// logger set with SetStructuredLogger.
	logger Logger

	// idleInterval bounds how long backend.wait may block when there is
	// no pending timer, so a Queue with only poll/thread Handles still
	// re-checks for close/cancel requests periodically.
	idleInterval time.Duration
}

func newQueueData(logger Logger, idleInterval time.Duration) *queueData {
	return &queueData{
		id:           nextQueueID.Add(1),
		registry:     newHandleRegistry(),
		stats:        &QueueStats{},
		logger:       logger,
		idleInterval: idleInterval,
	}
}

// nextTimeout computes backend.wait's timeout argument: the time until the
// next timer heap entry, capped at idleInterval when that is positive, or
// -1 (block indefinitely) when there is neither a timer nor an idle bound.
// Mirrors the teacher's calculateTimeout in loop.go.
func (qd *queueData) nextTimeout(now time.Time) time.Duration {
	bound := qd.idleInterval
	if bound <= 0 {
		bound = 0
	}

	entry := qd.timers.Peek()
	if entry == nil {
		if bound <= 0 {
			return -1
		}
		return bound
	}

	until := entry.When.Sub(now)
	if until < 0 {
		until = 0
	}
	if bound > 0 && until > bound {
		return bound
	}
	return until
}
