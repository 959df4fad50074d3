// Package codec implements the C3 bit codec: Manchester encoding of an
// outgoing frame into a half-bit schedule, and classification/decoding of
// incoming edge intervals into bits, per spec §4.3.
package codec

import (
	"github.com/samoyed-dali/dali-link/internal/line"
	"github.com/samoyed-dali/dali-link/internal/timing"
)

// Interval is the classification of a measured edge-to-edge gap.
type Interval int

const (
	IntervalInvalid Interval = iota
	IntervalTE
	Interval2TE
)

// ClassifyRX classifies a measured tick delta against the RX timing
// windows (spec §3). Anything outside both windows is IntervalInvalid,
// which the caller turns into a BitTiming error.
func ClassifyRX(ticks int64) Interval {
	switch {
	case ticks >= timing.RxSingleTEMin && ticks <= timing.RxSingleTEMax:
		return IntervalTE
	case ticks >= timing.RxDoubleTEMin && ticks <= timing.RxDoubleTEMax:
		return Interval2TE
	default:
		return IntervalInvalid
	}
}

// ClassifyTX classifies a measured tick delta against the tighter TX
// self-echo collision windows.
func ClassifyTX(ticks int64) Interval {
	switch {
	case ticks >= timing.TxSingleTEMin && ticks <= timing.TxSingleTEMax:
		return IntervalTE
	case ticks >= timing.TxDoubleTEMin && ticks <= timing.TxDoubleTEMax:
		return Interval2TE
	default:
		return IntervalInvalid
	}
}

// Schedule is the ordered sequence of half-bit levels produced by Encode:
// index 0 is the first half-bit the line driver must assert, and so on
// through the last data half-bit; the stop condition is not part of it.
// Index corresponds to half_bit_number-1 for half_bit_number in
// [1, len(Schedule)].
type Schedule []line.Level

// Encode builds the half-bit schedule for payload's low n bits (n = 8, 16,
// or 24), start-bit first. It does not include the stop condition: the
// LSM holds the line HI for the stop halves itself (spec §4.4), since the
// stop duration is fixed regardless of payload width while this schedule
// is not. A logical 1 is encoded low-then-high; a logical 0 is encoded
// high-then-low, matching spec §4.3 and §6.
func Encode(payload uint32, n int) Schedule {
	sched := make(Schedule, 0, 2+2*n)

	// Start bit: low-then-high, unconditionally.
	sched = append(sched, line.LO, line.HI)

	for i := n - 1; i >= 0; i-- {
		bit := (payload >> uint(i)) & 1
		if bit == 1 {
			sched = append(sched, line.LO, line.HI)
		} else {
			sched = append(sched, line.HI, line.LO)
		}
	}

	return sched
}

// LevelAt returns the level the encoder wants asserted for the given
// half-bit number (1-based, as the LSM's half_bit_number counter), and
// whether that half-bit number is within the encoded schedule (false once
// past the last data half-bit, i.e. during the stop condition, where the
// caller should just hold HI).
func (s Schedule) LevelAt(halfBitNumber int) (line.Level, bool) {
	idx := halfBitNumber - 1
	if idx < 0 || idx >= len(s) {
		return line.HI, false
	}
	return s[idx], true
}

// Decoder incrementally assembles a received integer from a stream of
// classified edge intervals, implementing the h=0..4 transition table of
// spec §4.4 ReceiveData. It knows nothing about LSM states beyond the
// half-bit counter h it maintains internally between calls.
type Decoder struct {
	h     int
	value uint32
	bits  int
}

// NewDecoder returns a Decoder primed at h=0 (expecting the start-bit
// middle edge), as the LSM does when it enters ReceiveData on the first
// edge of a new frame.
func NewDecoder() *Decoder {
	return &Decoder{h: 0}
}

// Value returns the bits assembled so far, MSB-first, and how many bits
// have been shifted in.
func (d *Decoder) Value() (uint32, int) {
	return d.value, d.bits
}

// LastBit reports the most recently shifted-in bit (needed by the LSM to
// decide whether a stop timeout is end-of-frame or a trailing '1' phase).
// It returns ok=false if no bit has been shifted in yet.
func (d *Decoder) LastBit() (bit int, ok bool) {
	if d.bits == 0 {
		return 0, false
	}
	return int(d.value & 1), true
}

// Step advances the decoder by one classified interval and reports whether
// the interval was consistent with the current half-bit phase. A false
// return means BitTiming: the caller must abandon the frame.
func (d *Decoder) Step(iv Interval) bool {
	switch {
	case d.h == 0 && iv == IntervalTE:
		d.h = 3
		return true
	case d.h == 1 && iv == IntervalTE:
		d.shiftIn(0)
		d.h = 4
		return true
	case d.h == 2 && iv == IntervalTE:
		d.shiftIn(1)
		d.h = 3
		return true
	case d.h == 3 && iv == IntervalTE:
		d.h = 2
		return true
	case d.h == 3 && iv == Interval2TE:
		d.shiftIn(0)
		d.h = 4
		return true
	case d.h == 4 && iv == IntervalTE:
		d.h = 1
		return true
	case d.h == 4 && iv == Interval2TE:
		d.shiftIn(1)
		d.h = 3
		return true
	default:
		return false
	}
}

func (d *Decoder) shiftIn(bit uint32) {
	d.value = (d.value << 1) | bit
	d.bits++
}
