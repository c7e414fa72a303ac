package evqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollLatencyStats_SampleComputesPercentiles(t *testing.T) {
	var s PollLatencyStats
	for i := 1; i <= 10; i++ {
		s.Record(time.Duration(i) * time.Millisecond)
	}

	n := s.Sample()
	require.Equal(t, 10, n)

	assert.Equal(t, 10*time.Millisecond, s.Max)
	assert.GreaterOrEqual(t, s.P50, time.Millisecond)
	assert.LessOrEqual(t, s.P50, s.P90)
	assert.LessOrEqual(t, s.P90, s.P95)
	assert.LessOrEqual(t, s.P95, s.P99)
	assert.LessOrEqual(t, s.P99, s.Max)
}

func TestPollLatencyStats_SampleWithNoRecordsIsZero(t *testing.T) {
	var s PollLatencyStats
	assert.Equal(t, 0, s.Sample())
}

func TestPollLatencyStats_RecordEvictsOldestBeyondWindow(t *testing.T) {
	var s PollLatencyStats
	for i := 0; i < latencySampleSize+10; i++ {
		s.Record(time.Millisecond)
	}
	n := s.Sample()
	assert.Equal(t, latencySampleSize, n)
}

func TestHandleCountStats_TracksCurrentMaxAndEMA(t *testing.T) {
	var s HandleCountStats

	s.UpdateRegistered(5)
	assert.Equal(t, 5, s.RegisteredCurrent)
	assert.Equal(t, 5, s.RegisteredMax)
	assert.Equal(t, float64(5), s.RegisteredAvg)

	s.UpdateRegistered(2)
	assert.Equal(t, 2, s.RegisteredCurrent)
	assert.Equal(t, 5, s.RegisteredMax, "max should not drop when current falls")
	assert.InDelta(t, 0.9*5+0.1*2, s.RegisteredAvg, 1e-9)

	s.UpdateRegistered(9)
	assert.Equal(t, 9, s.RegisteredMax)
}

func TestCompletionRate_RecordsWithinWindow(t *testing.T) {
	c := NewCompletionRate(100*time.Millisecond, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		c.Increment()
	}

	assert.Greater(t, c.Rate(), 0.0)
}

func TestCompletionRate_RateDecaysAfterWindowElapses(t *testing.T) {
	c := NewCompletionRate(30*time.Millisecond, 10*time.Millisecond)
	c.Increment()
	require.Greater(t, c.Rate(), 0.0)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0.0, c.Rate())
}

func TestCompletionRate_PanicsOnInvalidWindow(t *testing.T) {
	assert.Panics(t, func() { NewCompletionRate(0, time.Millisecond) })
	assert.Panics(t, func() { NewCompletionRate(time.Millisecond, 0) })
	assert.Panics(t, func() { NewCompletionRate(time.Millisecond, time.Second) })
}
