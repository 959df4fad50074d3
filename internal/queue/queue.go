// Package queue implements the C5 frame queues: fixed-capacity,
// single-producer/single-consumer ring buffers for TX requests and RX
// records, per spec §4.5. Indices are published with release/acquire
// semantics (via atomic loads/stores) so a consumer never observes a
// half-written slot; no entry is ever copied off the heap after queue
// construction.
package queue

import (
	"sync/atomic"

	"github.com/samoyed-dali/dali-link/internal/frame"
)

// Capacity is the ring size for both queues; spec requires >= 16.
const Capacity = 32

// TxQueue is the bounded TX ring buffer, plus the single-slot retry-at-head
// path a collision-aborted frame uses to jump ahead of everything else
// (spec §4.4 "re-insert the in-flight frame at the head of the TX queue").
type TxQueue struct {
	buf        [Capacity]frame.TxRequest
	writeIdx   atomic.Uint32 // next free slot to write, producer-owned
	readIdx    atomic.Uint32 // next slot to read, consumer-owned
	retry      atomic.Pointer[frame.TxRequest]
}

// Enqueue appends req to the tail. It never blocks; on a full queue it
// drops the request and reports busy=true.
func (q *TxQueue) Enqueue(req frame.TxRequest) (busy bool) {
	w := q.writeIdx.Load()
	r := q.readIdx.Load()
	if w-r >= Capacity {
		return true
	}
	q.buf[w%Capacity] = req
	q.writeIdx.Store(w + 1)
	return false
}

// Requeue puts req back at the head of the queue, ahead of every entry
// still waiting. It is how the LSM retries a collision-aborted frame
// without touching the ring's own head/tail bookkeeping. Only one request
// may be pending in the retry slot at a time -- the LSM never arms a
// second TX while a retry is outstanding, so this never overwrites a
// not-yet-consumed retry.
func (q *TxQueue) Requeue(req frame.TxRequest) {
	r := req
	q.retry.Store(&r)
}

// Peek returns the frame that would be returned by Dequeue, without
// removing it, so the PreIdle priority ladder can inspect its priority
// before deciding whether this slot may launch it (invariant 5).
func (q *TxQueue) Peek() (frame.TxRequest, bool) {
	if p := q.retry.Load(); p != nil {
		return *p, true
	}
	w := q.writeIdx.Load()
	r := q.readIdx.Load()
	if r == w {
		return frame.TxRequest{}, false
	}
	return q.buf[r%Capacity], true
}

// Dequeue removes and returns the head entry, checking the retry slot
// first so a collision-aborted frame is always sent strictly before any
// frame enqueued after it.
func (q *TxQueue) Dequeue() (frame.TxRequest, bool) {
	if p := q.retry.Load(); p != nil {
		q.retry.Store(nil)
		return *p, true
	}
	r := q.readIdx.Load()
	w := q.writeIdx.Load()
	if r == w {
		return frame.TxRequest{}, false
	}
	req := q.buf[r%Capacity]
	q.readIdx.Store(r + 1)
	return req, true
}

// Len reports the number of entries currently waiting, including a
// pending retry.
func (q *TxQueue) Len() int {
	n := int(q.writeIdx.Load() - q.readIdx.Load())
	if q.retry.Load() != nil {
		n++
	}
	return n
}

// RxQueue is the bounded RX ring buffer of classified receive records.
type RxQueue struct {
	buf      [Capacity]frame.RxRecord
	writeIdx atomic.Uint32
	readIdx  atomic.Uint32
}

// Enqueue appends rec to the tail from ISR context. It never blocks; on a
// full queue it drops the record and reports busy=true (spec invariant 2:
// a frame appears at most once, and once enqueued is immutable -- we
// enforce immutability simply by copying rec into the slot and never
// handing out a pointer to it).
func (q *RxQueue) Enqueue(rec frame.RxRecord) (busy bool) {
	w := q.writeIdx.Load()
	r := q.readIdx.Load()
	if w-r >= Capacity {
		return true
	}
	q.buf[w%Capacity] = rec
	q.writeIdx.Store(w + 1)
	return false
}

// DataAvailable reports whether at least one RX record is waiting.
func (q *RxQueue) DataAvailable() bool {
	return q.readIdx.Load() != q.writeIdx.Load()
}

// Dequeue removes and returns the oldest RX record, FIFO, preserving
// bus-arrival order (spec §5 "RX frames are delivered in bus-arrival
// order").
func (q *RxQueue) Dequeue() (frame.RxRecord, bool) {
	r := q.readIdx.Load()
	w := q.writeIdx.Load()
	if r == w {
		return frame.RxRecord{}, false
	}
	rec := q.buf[r%Capacity]
	q.readIdx.Store(r + 1)
	return rec, true
}

// Len reports the number of RX records currently waiting.
func (q *RxQueue) Len() int {
	return int(q.writeIdx.Load() - q.readIdx.Load())
}
