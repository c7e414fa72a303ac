package deferred

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_DrainAllFIFOOrder(t *testing.T) {
	var l List
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		l.Append(Item{Fn: func(any, uint64) { order = append(order, i) }})
	}
	require.Equal(t, 5, l.Len())

	l.DrainAll(func(it Item) { it.Fn(it.Ref, it.Tag) })

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, l.Len())
}

func TestList_AppendDuringDrainVisibleNextCycle(t *testing.T) {
	var l List
	var seen []string

	l.Append(Item{Fn: func(any, uint64) {
		seen = append(seen, "first")
	}})

	l.DrainAll(func(it Item) {
		it.Fn(it.Ref, it.Tag)
		l.Append(Item{Fn: func(any, uint64) { seen = append(seen, "second") }})
	})
	assert.Equal(t, []string{"first"}, seen)
	require.Equal(t, 1, l.Len())

	l.DrainAll(func(it Item) { it.Fn(it.Ref, it.Tag) })
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestList_RefAndTagPassedThrough(t *testing.T) {
	var l List
	var gotRef any
	var gotTag uint64

	l.Append(Item{
		Fn:  func(ref any, tag uint64) { gotRef, gotTag = ref, tag },
		Ref: "payload",
		Tag: 42,
	})
	l.DrainAll(func(it Item) { it.Fn(it.Ref, it.Tag) })

	assert.Equal(t, "payload", gotRef)
	assert.EqualValues(t, 42, gotTag)
}
