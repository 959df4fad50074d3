// Package timing holds the DALI-2 physical-layer timing constants, all
// expressed in 8 MHz ticks (one tick ~= 125 ns) per IEC 62386-101.
package timing

import "time"

// TickRate is the nominal timer frequency backing every constant below.
const TickRate = 8_000_000 // Hz, +/- 200ppm per the transceiver crystal.

// TE is one half-bit period: 416.6us, the fundamental unit of DALI timing.
const TE = 3333

// RX windows: how a received edge-to-edge interval is classified.
const (
	RxSingleTEMin = 2366
	RxSingleTEMax = 4300
	RxDoubleTEMin = 5132
	RxDoubleTEMax = 8200

	// RxStopFloor is the quiet time (2.4ms) that marks end of frame on RX.
	RxStopFloor = 19200
)

// TX windows: the self-echo collision-detection tolerance while sending.
const (
	TxSingleTEMin = 2854
	TxSingleTEMax = 3814
	TxDoubleTEMin = 5787
	TxDoubleTEMax = 7546
)

// Break/recovery/settling, all in ticks.
const (
	BreakHold    = 10400
	Recovery     = 34400
	RecoveryJitt = 1400 // uniform +/- jitter applied to Recovery

	// BackframeSettleMin/Max bound the randomised wait after sending a
	// backframe before the next forward frame may be launched.
	BackframeSettleMin = 24000
	BackframeSettleMax = 64000
)

// Inter-forward settling ladder, one rung per TX priority (1..5), each
// already minus 6*TE as the pre-settle correction the firmware applies.
var ForwardSettle = [5]int64{
	88000 - 6*TE,
	99200 - 6*TE,
	110400 - 6*TE,
	123200 - 6*TE,
	136000 - 6*TE,
}

// StopHalfBits is how many half-bit periods the LSM's half-bit counter
// runs past the last data half before the frame is finished (derived from
// the half-bit counter table of spec §3, where a 24-bit frame finishes at
// half 56, generalised here to any frame width). The line is held HI for
// the StopHalfBits-1 halves in between (5TE) and the frame completes as
// the counter reaches the sixth.
const StopHalfBits = 6

// SendTwiceWindow bounds how long two identical forward frames may be
// apart and still count as one send-twice command.
const SendTwiceWindow = 800000

// RxBackframeMax is how long a sender waits for a backward-frame reply
// (~13.4ms).
const RxBackframeMax = 107200

// AsDuration converts a tick count to a time.Duration. The timer package
// calls it on every Arm to schedule the software countdown.
func AsDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * time.Second / TickRate
}
