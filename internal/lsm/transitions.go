package lsm

import (
	"github.com/samoyed-dali/dali-link/internal/codec"
	"github.com/samoyed-dali/dali-link/internal/frame"
	"github.com/samoyed-dali/dali-link/internal/line"
	"github.com/samoyed-dali/dali-link/internal/timing"
)

// backframeDecisionWindow bounds how long WaitToSendBackFrame holds before
// giving up on an application-supplied backframe reply or a
// expect_send_twice() call and falling through to PreIdle. Spec §4.4 only
// says this resolves "now" (synchronously); since our application layer
// runs cooperatively rather than inside the same interrupt, we give it one
// short, bounded window to act -- see DESIGN.md.
const backframeDecisionWindow = 12 * timing.TE

// kickFromIdle is called right after an Enqueue lands on an empty, Idle
// machine: nothing will otherwise wake it, since PreIdle's bit-timer
// ladder is what normally notices new TX work.
func (l *LSM) kickFromIdle() {
	l.mu.Lock()
	if l.state == Idle {
		l.enterPreIdleLocked()
	}
	l.mu.Unlock()
}

// recheckWaitToSendBackFrame lets a just-enqueued backframe reply launch
// immediately while the machine is holding open its decision window.
func (l *LSM) recheckWaitToSendBackFrame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != WaitToSendBackFrame {
		return
	}
	if req, ok := l.txQ.Peek(); ok && req.BackFrame && req.Priority == 1 {
		l.txQ.Dequeue()
		l.enterSendDataLocked(req, true)
	}
}

// onBitTick is the bit-timer interrupt entry point.
func (l *LSM) onBitTick() {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case SendData:
		l.sendDataTickLocked()
	case PreIdle:
		l.preIdleTickLocked()
	case Break:
		l.breakTickLocked()
	case WaitToSendBackFrame:
		l.waitToSendBackFrameTimeoutLocked()
	}
}

// onEdge is the edge-interrupt entry point; now is the tick count elapsed
// since the previous edge (edge_timer.Now() read before reset).
func (l *LSM) onEdge(to line.Level, now int64) {
	l.mu.Lock()
	notify := false

	switch l.state {
	case Idle:
		l.startReceiveLocked(frame.FromIdle, false)
	case ReceiveData:
		notify = l.receiveEdgeLocked(now)
	case ReceiveDataExtraTE:
		// Any edge here means the silence we were waiting out to confirm
		// stop was interrupted: BitTiming, frame abandoned.
		notify = l.finishRxLocked(frame.ErrBitTiming)
	case WaitForBackFrame:
		l.startReceiveLocked(frame.FromWaitForBackFrame, false)
	case WaitForSecondForwardFrame:
		l.startReceiveLocked(frame.FromWaitForSecondForwardFrame, true)
	case SendData:
		l.collisionCheckLocked(to, now)
	}

	l.mu.Unlock()
	if notify {
		l.notifyRxReady()
	}
}

// onEdgeTimeout fires when the edge timer expires with no intervening
// edge: stop-floor elapsed (ReceiveData/ReceiveDataExtraTE), no backframe
// arrived (WaitForBackFrame), or no second forward frame arrived
// (WaitForSecondForwardFrame).
func (l *LSM) onEdgeTimeout() {
	l.mu.Lock()
	notify := false

	switch l.state {
	case ReceiveData:
		notify = l.rxStopFloorElapsedLocked()
	case ReceiveDataExtraTE:
		notify = l.classifyRxLocked()
	case WaitForBackFrame:
		l.backFrameTimeoutLocked()
	case WaitForSecondForwardFrame:
		notify = l.secondForwardTimeoutLocked()
	}

	l.mu.Unlock()
	if notify {
		l.notifyRxReady()
	}
}

func (l *LSM) startReceiveLocked(from frame.FromState, sendTwicePossible bool) {
	l.decoder = codec.NewDecoder()
	l.rxFromState = from
	l.rxSendTwicePossible = sendTwicePossible
	l.edgeTimer.Arm(timing.RxStopFloor)
	l.state = ReceiveData
}

// --- SendData ----------------------------------------------------------

func (l *LSM) enterSendDataLocked(req frame.TxRequest, isBackframe bool) {
	l.txReq = req
	l.txIsBackframe = isBackframe
	l.schedule = codec.Encode(req.Payload, req.Kind.Bits())
	l.halfBitNumber = 1
	l.overlap = 0
	lvl, _ := l.schedule.LevelAt(1)
	l.lastBitSent = lvl
	l.line.SetTX(lvl)
	l.state = SendData
	l.bitTimer.Arm(timing.TE)
}

func (l *LSM) dataEndHalf() int  { return 2 + 2*l.txReq.Kind.Bits() }
func (l *LSM) terminalHalf() int { return l.dataEndHalf() + timing.StopHalfBits }

func (l *LSM) sendDataTickLocked() {
	l.halfBitNumber++
	dataEnd := l.dataEndHalf()
	terminal := l.terminalHalf()

	reload := int64(timing.TE) - l.overlap
	l.overlap = 0
	if reload <= 0 {
		reload = 1
	}

	switch {
	case l.halfBitNumber <= dataEnd:
		lvl, _ := l.schedule.LevelAt(l.halfBitNumber)
		l.lastBitSent = lvl
		l.line.SetTX(lvl)
		l.bitTimer.Arm(reload)
	case l.halfBitNumber < terminal:
		l.lastBitSent = line.HI
		l.line.SetTX(line.HI)
		l.bitTimer.Arm(reload)
	default:
		l.finishSendDataLocked()
	}
}

func (l *LSM) finishSendDataLocked() {
	firstLeg := l.txReq.SendTwice && l.sendTwiceLeg == 0

	if l.txIsBackframe {
		if !firstLeg {
			l.txDone = true
			l.stats.TxDoneCount++
		}
		l.sendTwiceLeg = 0
		l.enterPreIdleWithWaitLocked(randJitter(l.rng, timing.BackframeSettleMin, timing.BackframeSettleMax))
		return
	}

	if firstLeg {
		l.sendTwiceLeg = 1
		l.edgeTimer.Arm(timing.RxBackframeMax)
		l.state = WaitForBackFrame
		return
	}

	l.txDone = true
	l.stats.TxDoneCount++
	l.sendTwiceLeg = 0
	l.edgeTimer.Arm(timing.RxBackframeMax)
	l.state = WaitForBackFrame
}

// collisionCheckLocked implements the self-echo collision detector and its
// phase-correction fix-up, run in on_edge during SendData (spec §4.4
// "Collision timing fix-up").
func (l *LSM) collisionCheckLocked(to line.Level, measured int64) {
	iv := codec.ClassifyTX(measured)
	fallingAsExpected := l.lastBitSent == line.HI && to == line.LO
	risingAsExpected := l.lastBitSent == line.LO && to == line.HI

	if iv == codec.IntervalInvalid || !(fallingAsExpected || risingAsExpected) {
		l.collideLocked()
		return
	}

	if iv != codec.Interval2TE {
		return
	}

	switch {
	case to == line.LO && measured < int64(timing.TE)+timing.TxSingleTEMin:
		l.overlap = 2*int64(timing.TE) - measured
	case to == line.HI && measured > int64(timing.TE)+timing.TxSingleTEMax:
		excess := measured - (int64(timing.TE) + timing.TxSingleTEMax)
		remaining := l.bitTimer.Now()
		adj := int64(timing.TE) - remaining - excess
		if adj < 1 {
			adj = 1
		}
		l.bitTimer.Arm(adj)
	}
}

func (l *LSM) collideLocked() {
	l.stats.CollisionCount++
	l.stats.LastCollisionAt = l.edgeTimer.Now()
	l.txError = true
	l.line.SetTX(line.HI)
	l.txQ.Requeue(l.txReq)
	l.sendTwiceLeg = 0
	l.bitTimer.Arm(timing.BreakHold)
	l.state = Break
}

// --- Break / PreIdle -----------------------------------------------------

func (l *LSM) breakTickLocked() {
	l.line.SetTX(line.HI)
	if l.line.ReadRX() == line.HI {
		l.enterPreIdleWithWaitLocked(timing.ForwardSettle[0])
		return
	}
	l.enterPreIdleWithWaitLocked(randJitter(l.rng, timing.Recovery-timing.RecoveryJitt, timing.Recovery+timing.RecoveryJitt))
}

func (l *LSM) enterPreIdleLocked() {
	l.priorityCounter = 1
	l.state = PreIdle
	l.bitTimer.Arm(1) // immediate: let the ladder re-check right away
}

func (l *LSM) enterPreIdleWithWaitLocked(wait int64) {
	l.priorityCounter = 1
	l.state = PreIdle
	if wait < 1 {
		wait = 1
	}
	l.bitTimer.Arm(wait)
}

func (l *LSM) preIdleTickLocked() {
	if req, ok := l.txQ.Peek(); ok && req.Priority <= l.priorityCounter {
		l.txQ.Dequeue()
		l.enterSendDataLocked(req, req.BackFrame)
		return
	}
	l.priorityCounter++
	if l.priorityCounter > 5 {
		l.state = Idle
		return
	}
	l.bitTimer.Arm(timing.ForwardSettle[l.priorityCounter-1] - timing.ForwardSettle[l.priorityCounter-2])
}

// --- ReceiveData -----------------------------------------------------------

func (l *LSM) receiveEdgeLocked(measured int64) (notify bool) {
	iv := codec.ClassifyRX(measured)
	if iv == codec.IntervalInvalid {
		return l.finishRxLocked(frame.ErrBitTiming)
	}
	l.decoder.Step(iv)
	l.edgeTimer.Arm(timing.RxStopFloor)
	return false
}

func (l *LSM) rxStopFloorElapsedLocked() (notify bool) {
	bit, ok := l.decoder.LastBit()
	_, n := l.decoder.Value()
	if ok && bit == 1 && (n == 8 || n == 24) {
		l.edgeTimer.Arm(timing.TE)
		l.state = ReceiveDataExtraTE
		return false
	}
	return l.classifyRxLocked()
}

func (l *LSM) classifyRxLocked() (notify bool) {
	value, n := l.decoder.Value()
	switch n {
	case 8:
		errv := frame.ErrNone
		if l.rxFromState != frame.FromWaitForBackFrame {
			errv = frame.ErrFrameTiming
		}
		l.enqueueRxLocked(value, n, frame.Backward8, errv)
		l.enterPreIdleWithWaitLocked(timing.ForwardSettle[0])
	case 24:
		errv := frame.ErrNone
		if l.rxFromState == frame.FromWaitForBackFrame {
			errv = frame.ErrFrameTiming
		}
		l.enqueueRxLocked(value, n, frame.Forward24, errv)
		l.enterWaitToSendBackFrameLocked()
	default:
		kind := frame.Forward24
		if n <= 8 {
			kind = frame.Backward8
		}
		l.enqueueRxLocked(value, n, kind, frame.ErrFrameSize)
		l.enterPreIdleWithWaitLocked(timing.ForwardSettle[0])
	}
	return true
}

func (l *LSM) finishRxLocked(errv frame.RxError) (notify bool) {
	value, n := l.decoder.Value()
	kind := frame.Forward24
	if n <= 8 {
		kind = frame.Backward8
	}
	l.enqueueRxLocked(value, n, kind, errv)
	l.enterPreIdleWithWaitLocked(timing.ForwardSettle[0])
	return true
}

func (l *LSM) enqueueRxLocked(value uint32, n int, kind frame.Kind, errv frame.RxError) {
	rec := frame.RxRecord{
		Payload:           value,
		Length:            n,
		Kind:              kind,
		Done:              errv == frame.ErrNone && (n == 8 || n == 24),
		Error:             errv,
		SendTwicePossible: l.rxSendTwicePossible,
		FromState:         l.rxFromState,
		Flags: frame.RxFlags{
			ForwardFrameValid:  kind != frame.Backward8 && errv == frame.ErrNone,
			BackwardFrameValid: kind == frame.Backward8 && errv == frame.ErrNone,
			RxError:            errv != frame.ErrNone,
			RxTimingError:      errv == frame.ErrFrameTiming,
			TxType:             n == 24,
		},
	}
	if l.rxQ.Enqueue(rec) {
		l.log.Warn("rx queue full, dropping frame", "payload", value, "length", n)
		return
	}
	l.stats.RxFrameCount++
	if errv != frame.ErrNone {
		l.stats.RxErrorCount++
	}
}

// --- WaitForBackFrame / WaitToSendBackFrame / WaitForSecondForwardFrame ----

func (l *LSM) backFrameTimeoutLocked() {
	if l.txReq.SendTwice && l.sendTwiceLeg == 1 {
		l.enterSendDataLocked(l.txReq, l.txIsBackframe)
		return
	}
	l.sendTwiceLeg = 0
	l.enterPreIdleWithWaitLocked(timing.ForwardSettle[0])
}

// enterWaitToSendBackFrameLocked is entered right after classifying a
// forward frame addressed to us. A queued priority-1 backframe reply
// fires immediately; otherwise the state holds open a short decision
// window so the application can react (Send a reply, or ExpectSendTwice)
// before falling through to PreIdle.
func (l *LSM) enterWaitToSendBackFrameLocked() {
	if req, ok := l.txQ.Peek(); ok && req.BackFrame && req.Priority == 1 {
		l.txQ.Dequeue()
		l.enterSendDataLocked(req, true)
		return
	}

	l.state = WaitToSendBackFrame
	l.bitTimer.Arm(backframeDecisionWindow)
}

func (l *LSM) waitToSendBackFrameTimeoutLocked() {
	if req, ok := l.txQ.Peek(); ok && req.BackFrame && req.Priority == 1 {
		l.txQ.Dequeue()
		l.enterSendDataLocked(req, true)
		return
	}
	l.enterPreIdleWithWaitLocked(timing.ForwardSettle[0])
}

func (l *LSM) secondForwardTimeoutLocked() (notify bool) {
	l.enqueueRxLocked(0, 0, frame.Forward24, frame.ErrFrameTiming)
	l.enterPreIdleWithWaitLocked(timing.ForwardSettle[0])
	return true
}

// randJitter returns a uniformly random tick count in [lo, hi].
func randJitter(rng interface{ Int63n(int64) int64 }, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Int63n(hi-lo+1)
}
