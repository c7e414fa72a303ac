package timerheap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap_PeekPopOrder(t *testing.T) {
	var h Heap
	base := time.Unix(0, 0)

	h.Push(base.Add(30*time.Millisecond), "c")
	h.Push(base.Add(10*time.Millisecond), "a")
	h.Push(base.Add(20*time.Millisecond), "b")

	require.Equal(t, 3, h.Len())

	for _, want := range []string{"a", "b", "c"} {
		e := h.Peek()
		require.NotNil(t, e)
		assert.Equal(t, want, e.Owner)
		popped := h.Pop()
		assert.Same(t, e, popped)
	}

	assert.Nil(t, h.Peek())
	assert.Equal(t, 0, h.Len())
}

func TestHeap_Remove(t *testing.T) {
	var h Heap
	base := time.Unix(0, 0)

	e1 := h.Push(base.Add(10*time.Millisecond), "first")
	e2 := h.Push(base.Add(20*time.Millisecond), "second")
	h.Remove(e1)

	require.Equal(t, 1, h.Len())
	assert.Equal(t, e2, h.Peek())
}

func TestHeap_EmptyPop(t *testing.T) {
	var h Heap
	assert.Nil(t, h.Pop())
	assert.Nil(t, h.Peek())
}
