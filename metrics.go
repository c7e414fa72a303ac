package evqueue

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slices"
)

// QueueStats reports runtime statistics for a Queue, always collected and
// updated on every tick (see Queue.Stats). Grounded on the teacher event loop's Metrics (metrics.go),
// generalized from "task latency" to "backend poll-wait latency" and from
// "ingress/internal/microtask depth" to "registered/armed/suspended Handle
// counts".
type QueueStats struct {
	PollLatency PollLatencyStats
	Handles     HandleCountStats
	mu          sync.Mutex
	Completions float64
}

// PollLatencyStats tracks how long backend.wait blocks per call, using the
// P-Square algorithm for O(1) streaming percentile estimation.
type PollLatencyStats struct {
	psquare *pSquareMultiQuantile
	mu      sync.RWMutex

	sampleIdx   int
	sampleCount int
	samples     [latencySampleSize]time.Duration

	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration

	Mean time.Duration
	Sum  time.Duration
}

const latencySampleSize = 1000

// Record records one backend.wait latency sample.
func (l *PollLatencyStats) Record(duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.psquare == nil {
		l.psquare = newPSquareMultiQuantile(0.50, 0.90, 0.95, 0.99)
	}
	l.psquare.Update(float64(duration))

	if l.sampleCount >= latencySampleSize {
		l.Sum -= l.samples[l.sampleIdx]
	}
	l.samples[l.sampleIdx] = duration
	l.Sum += duration
	l.sampleIdx++
	if l.sampleIdx >= latencySampleSize {
		l.sampleIdx = 0
	}
	if l.sampleCount < latencySampleSize {
		l.sampleCount++
	}
}

// Sample recomputes cached percentiles from collected samples, returning
// the number of samples used.
func (l *PollLatencyStats) Sample() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.sampleCount
	if count == 0 {
		return 0
	}

	if count < 5 || l.psquare == nil {
		sorted := make([]time.Duration, count)
		copy(sorted, l.samples[:count])
		slices.SortFunc(sorted, func(a, b time.Duration) int { return int(a - b) })

		l.P50 = sorted[percentileIndex(count, 50)]
		l.P90 = sorted[percentileIndex(count, 90)]
		l.P95 = sorted[percentileIndex(count, 95)]
		l.P99 = sorted[percentileIndex(count, 99)]
		l.Max = sorted[count-1]
		l.Mean = l.Sum / time.Duration(count)
		return count
	}

	l.P50 = time.Duration(l.psquare.Quantile(0))
	l.P90 = time.Duration(l.psquare.Quantile(1))
	l.P95 = time.Duration(l.psquare.Quantile(2))
	l.P99 = time.Duration(l.psquare.Quantile(3))
	l.Max = time.Duration(l.psquare.Max())
	l.Mean = l.Sum / time.Duration(count)
	return count
}

func percentileIndex(n, p int) int {
	index := (p * n) / 100
	if index >= n {
		return n - 1
	}
	return index
}

// HandleCountStats tracks how many Handles a Queue has registered, armed,
// and suspended, each with an exponential moving average.
type HandleCountStats struct {
	mu sync.RWMutex

	RegisteredCurrent int
	ArmedCurrent      int
	SuspendedCurrent  int

	RegisteredMax int
	ArmedMax      int
	SuspendedMax  int

	RegisteredAvg float64
	ArmedAvg      float64
	SuspendedAvg  float64

	registeredInit bool
	armedInit      bool
	suspendedInit  bool
}

func updateEMA(avg *float64, initialized *bool, depth int) {
	if !*initialized {
		*avg = float64(depth)
		*initialized = true
	} else {
		*avg = 0.9**avg + 0.1*float64(depth)
	}
}

func (q *HandleCountStats) UpdateRegistered(depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.RegisteredCurrent = depth
	if depth > q.RegisteredMax {
		q.RegisteredMax = depth
	}
	updateEMA(&q.RegisteredAvg, &q.registeredInit, depth)
}

func (q *HandleCountStats) UpdateArmed(depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ArmedCurrent = depth
	if depth > q.ArmedMax {
		q.ArmedMax = depth
	}
	updateEMA(&q.ArmedAvg, &q.armedInit, depth)
}

func (q *HandleCountStats) UpdateSuspended(depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.SuspendedCurrent = depth
	if depth > q.SuspendedMax {
		q.SuspendedMax = depth
	}
	updateEMA(&q.SuspendedAvg, &q.suspendedInit, depth)
}

// CompletionRate tracks completions per second with a rolling window.
type CompletionRate struct {
	lastRotation atomic.Value
	buckets      []int64
	bucketSize   time.Duration
	windowSize   time.Duration
	mu           sync.Mutex
}

// NewCompletionRate creates a rolling completions-per-second counter.
func NewCompletionRate(windowSize, bucketSize time.Duration) *CompletionRate {
	if windowSize <= 0 {
		panic("evqueue: windowSize must be positive")
	}
	if bucketSize <= 0 {
		panic("evqueue: bucketSize must be positive")
	}
	if bucketSize > windowSize {
		panic("evqueue: bucketSize cannot exceed windowSize")
	}
	bucketCount := int(windowSize / bucketSize)
	c := &CompletionRate{
		buckets:    make([]int64, bucketCount),
		bucketSize: bucketSize,
		windowSize: windowSize,
	}
	c.lastRotation.Store(time.Now())
	return c
}

// Increment records one completion.
func (c *CompletionRate) Increment() {
	c.rotate()
	c.mu.Lock()
	c.buckets[len(c.buckets)-1]++
	c.mu.Unlock()
}

func (c *CompletionRate) rotate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	lastRotation := c.lastRotation.Load().(time.Time)
	elapsed := now.Sub(lastRotation)

	advance := int64(elapsed) / int64(c.bucketSize)
	if advance < 0 || advance > int64(len(c.buckets)) {
		advance = int64(len(c.buckets))
	}
	n := int(advance)

	if n >= len(c.buckets) {
		for i := range c.buckets {
			c.buckets[i] = 0
		}
		c.lastRotation.Store(now)
		return
	}
	if n <= 0 {
		return
	}

	copy(c.buckets, c.buckets[n:])
	for i := len(c.buckets) - n; i < len(c.buckets); i++ {
		c.buckets[i] = 0
	}
	c.lastRotation.Store(lastRotation.Add(time.Duration(n) * c.bucketSize))
}

// Rate returns the current completions-per-second estimate.
func (c *CompletionRate) Rate() float64 {
	c.rotate()
	c.mu.Lock()
	defer c.mu.Unlock()

	var sum int64
	for _, count := range c.buckets {
		sum += count
	}
	if sum == 0 {
		return 0
	}
	monitored := float64(len(c.buckets)) * c.bucketSize.Seconds()
	return float64(sum) / monitored
}
