// Package lsm implements the link state machine (component C4), the core
// of the DALI-2 physical/link layer: it serialises outgoing frames with
// bit-exact timing, samples incoming edges, detects and recovers from
// collisions, arbitrates frame priority, and yields RX records and TX
// outcomes. Grounded on the teacher's hdlc_rec.go/hdlc_send.go bit-level
// state handling and tq.go's priority transmit queue, generalised from
// HDLC/AX.25 framing to DALI's Manchester/collision-avoidance scheme.
package lsm

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/samoyed-dali/dali-link/internal/codec"
	"github.com/samoyed-dali/dali-link/internal/frame"
	"github.com/samoyed-dali/dali-link/internal/line"
	"github.com/samoyed-dali/dali-link/internal/queue"
	"github.com/samoyed-dali/dali-link/internal/timer"
	"github.com/samoyed-dali/dali-link/internal/timing"
)

// Busy is returned by Send when the TX queue is full.
type Busy struct{}

func (Busy) Error() string { return "lsm: tx queue full" }

// Stats exposes the diagnostic counters the original firmware kept for
// collision/bus-health reporting (dali.h's collisionDetectCount and
// friends), surfaced here for QUERY_INSTANCE_ERROR-style queries.
type Stats struct {
	CollisionCount  uint32
	TxDoneCount     uint32
	TxErrorCount    uint32
	RxFrameCount    uint32
	RxErrorCount    uint32
	LastCollisionAt int64
}

// LSM is the link state machine. All fields below are touched from both
// the bit-tick and edge "interrupt" entry points and the cooperative
// caller; mu stands in for the disable-interrupts critical section the
// real firmware uses, serialising access the way a single CPU core would.
type LSM struct {
	mu sync.Mutex

	line      line.Driver
	bitTimer  *timer.Timer
	edgeTimer *timer.Timer
	txQ       *queue.TxQueue
	rxQ       *queue.RxQueue
	rng       *rand.Rand
	log       *log.Logger

	state State

	// SendData fields.
	halfBitNumber int
	schedule      codec.Schedule
	txReq         frame.TxRequest
	lastBitSent   line.Level // level asserted on the bit-period just ended
	overlap       int64      // collision phase-correction accumulator
	sendTwiceLeg  int        // 0 = first copy in flight, 1 = second copy
	txIsBackframe bool

	// PreIdle fields.
	priorityCounter int

	// ReceiveData / ReceiveDataExtraTE fields.
	decoder             *codec.Decoder
	rxFromState         frame.FromState
	rxSendTwicePossible bool

	// Diagnostics.
	stats Stats

	// txFlags mirrors the original firmware's polled TXFlags word.
	txDone  bool
	txError bool

	// onRxReady lets the device layer get a push notification instead of
	// only polling DataAvailable; optional. Stored behind an atomic
	// pointer since it is invoked from interrupt context without mu held.
	onRxReady atomic.Pointer[func()]
}

// New builds an LSM around the given line driver, seeded PRNG (for
// collision back-off jitter and, by the application layer, RANDOMISE), and
// bounded queues. The machine starts Idle with both timers disarmed.
func New(drv line.Driver, seed uint64) *LSM {
	l := &LSM{
		line: drv,
		txQ:  &queue.TxQueue{},
		rxQ:  &queue.RxQueue{},
		rng:  rand.New(rand.NewSource(int64(seed))),
		log:  log.With("component", "lsm"),
		state: Idle,
	}
	l.bitTimer = timer.New("bit", l.onBitTick)
	l.edgeTimer = timer.New("edge", l.onEdgeTimeout)
	drv.OnEdge(func(to line.Level) {
		now := l.edgeTimer.Now()
		l.edgeTimer.Reset()
		l.onEdge(to, now)
	})
	return l
}

// DataAvailable reports whether the application has an RX record to
// consume.
func (l *LSM) DataAvailable() bool {
	return l.rxQ.DataAvailable()
}

// Receive dequeues the oldest RX record, FIFO.
func (l *LSM) Receive() (frame.RxRecord, bool) {
	return l.rxQ.Dequeue()
}

// OnRxReady installs a callback invoked (from interrupt context) whenever
// a new RX record is enqueued, letting the cooperative main loop wake from
// sleep instead of polling.
func (l *LSM) OnRxReady(f func()) {
	l.onRxReady.Store(&f)
}

// Send enqueues a TX request. It never blocks; Busy is returned when the
// queue is full.
func (l *LSM) Send(req frame.TxRequest) error {
	if req.Priority < 1 || req.Priority > 5 {
		req.Priority = 5
	}
	l.mu.Lock()
	idle := l.state == Idle
	waiting := l.state == WaitToSendBackFrame
	l.mu.Unlock()
	if l.txQ.Enqueue(req) {
		return Busy{}
	}
	switch {
	case idle:
		l.kickFromIdle()
	case waiting:
		l.recheckWaitToSendBackFrame()
	}
	return nil
}

// ExpectSendTwice is called by the application after the first RX of a
// command that requires a duplicate; the LSM then arms the 100ms
// send-twice window instead of proceeding straight to PreIdle.
func (l *LSM) ExpectSendTwice() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != WaitToSendBackFrame {
		return
	}
	l.edgeTimer.Arm(timing.SendTwiceWindow) // 100ms window, see §4.4 WaitToSendBackFrame
	l.state = WaitForSecondForwardFrame
	l.log.Debug("armed send-twice window")
}

// ReadState returns the current LSM state for diagnostics.
func (l *LSM) ReadState() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// ReadFlags returns the polled TXFlags word (txDone, txError), matching
// the original firmware's DALIReadFlags, and clears txDone/txError after
// reading (they are edge-triggered notifications).
func (l *LSM) ReadFlags() (done bool, txError bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	done, txError = l.txDone, l.txError
	l.txDone = false
	l.txError = false
	return
}

// ReadStats returns a snapshot of the diagnostic counters.
func (l *LSM) ReadStats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *LSM) notifyRxReady() {
	if h := l.onRxReady.Load(); h != nil {
		(*h)()
	}
}
