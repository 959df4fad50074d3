package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samoyed-dali/dali-link/internal/frame"
)

func TestTxQueueFIFOOrder(t *testing.T) {
	var q TxQueue

	for i := 0; i < 3; i++ {
		busy := q.Enqueue(frame.TxRequest{Payload: uint32(i)})
		require.False(t, busy)
	}
	assert.Equal(t, 3, q.Len())

	for i := 0; i < 3; i++ {
		req, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, uint32(i), req.Payload)
	}

	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestTxQueueFullReportsBusy(t *testing.T) {
	var q TxQueue
	for i := 0; i < Capacity; i++ {
		require.False(t, q.Enqueue(frame.TxRequest{Payload: uint32(i)}))
	}
	assert.True(t, q.Enqueue(frame.TxRequest{Payload: 999}))
	assert.Equal(t, Capacity, q.Len())
}

func TestTxQueueRequeueJumpsAheadOfHead(t *testing.T) {
	var q TxQueue
	require.False(t, q.Enqueue(frame.TxRequest{Payload: 1}))
	require.False(t, q.Enqueue(frame.TxRequest{Payload: 2}))

	q.Requeue(frame.TxRequest{Payload: 99})
	assert.Equal(t, 3, q.Len())

	peeked, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint32(99), peeked.Payload)

	req, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, uint32(99), req.Payload)

	req, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, uint32(1), req.Payload)

	req, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, uint32(2), req.Payload)
}

func TestTxQueuePeekDoesNotRemove(t *testing.T) {
	var q TxQueue
	require.False(t, q.Enqueue(frame.TxRequest{Payload: 7}))

	first, ok := q.Peek()
	require.True(t, ok)
	second, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, q.Len())
}

func TestRxQueueFIFOOrder(t *testing.T) {
	var q RxQueue
	assert.False(t, q.DataAvailable())

	for i := 0; i < 4; i++ {
		require.False(t, q.Enqueue(frame.RxRecord{Payload: uint32(i)}))
	}
	assert.True(t, q.DataAvailable())
	assert.Equal(t, 4, q.Len())

	for i := 0; i < 4; i++ {
		rec, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, uint32(i), rec.Payload)
	}
	assert.False(t, q.DataAvailable())
}

func TestRxQueueFullReportsBusy(t *testing.T) {
	var q RxQueue
	for i := 0; i < Capacity; i++ {
		require.False(t, q.Enqueue(frame.RxRecord{Payload: uint32(i)}))
	}
	assert.True(t, q.Enqueue(frame.RxRecord{Payload: 999}))
}
