package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](3)
	assert.True(t, rq.IsEmpty())

	for i := 1; i <= 3; i++ {
		require.NoError(t, rq.Enqueue(i))
	}
	assert.True(t, rq.IsFull())
	assert.ErrorIs(t, rq.Enqueue(4), ErrQueueFull)

	v, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	for i := 1; i <= 3; i++ {
		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	_, err = rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = rq.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueuePushEvicts(t *testing.T) {
	rq := NewRingQueue[string](2)
	_, evicted := rq.Push("a")
	assert.False(t, evicted)
	rq.Push("b")
	old, evicted := rq.Push("c")
	assert.True(t, evicted)
	assert.Equal(t, "a", old)
	assert.Equal(t, 2, rq.Len())

	v, _ := rq.Dequeue()
	assert.Equal(t, "b", v)

	rq.Reset()
	assert.True(t, rq.IsEmpty())
	require.NoError(t, rq.Enqueue("d"))
	v, _ = rq.Peek()
	assert.Equal(t, "d", v)
}

func TestRingQueueMinimumSize(t *testing.T) {
	rq := NewRingQueue[int](0)
	require.NoError(t, rq.Enqueue(1))
	assert.True(t, rq.IsFull())
}
