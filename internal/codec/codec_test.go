package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/samoyed-dali/dali-link/internal/line"
	"github.com/samoyed-dali/dali-link/internal/timing"
)

func TestClassifyRX(t *testing.T) {
	assert.Equal(t, IntervalTE, ClassifyRX(timing.RxSingleTEMin))
	assert.Equal(t, IntervalTE, ClassifyRX(timing.RxSingleTEMax))
	assert.Equal(t, Interval2TE, ClassifyRX(timing.RxDoubleTEMin))
	assert.Equal(t, Interval2TE, ClassifyRX(timing.RxDoubleTEMax))
	assert.Equal(t, IntervalInvalid, ClassifyRX(0))
	assert.Equal(t, IntervalInvalid, ClassifyRX(timing.RxSingleTEMax+1))
}

func TestClassifyTX(t *testing.T) {
	assert.Equal(t, IntervalTE, ClassifyTX(timing.TxSingleTEMin))
	assert.Equal(t, Interval2TE, ClassifyTX(timing.TxDoubleTEMax))
	assert.Equal(t, IntervalInvalid, ClassifyTX(timing.TxDoubleTEMax+1))
}

// TestEncodeShape checks the structural invariants every Encode call must
// satisfy regardless of payload: length, the unconditional start bit, and
// that every bit contributes exactly the two half-bits spec'd for a 1 or a
// 0 (low-then-high, or high-then-low).
func TestEncodeShape(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.SampledFrom([]int{8, 16, 24}).Draw(rt, "n")
		payload := rapid.Uint32Range(0, (1<<uint(n))-1).Draw(rt, "payload")

		sched := Encode(payload, n)
		assert.Len(t, sched, 2+2*n)
		assert.Equal(t, line.LO, sched[0])
		assert.Equal(t, line.HI, sched[1])

		for i := 0; i < n; i++ {
			bit := (payload >> uint(n-1-i)) & 1
			lo, hi := sched[2+2*i], sched[2+2*i+1]
			if bit == 1 {
				assert.Equal(t, line.LO, lo, "bit %d of %d", i, n)
				assert.Equal(t, line.HI, hi, "bit %d of %d", i, n)
			} else {
				assert.Equal(t, line.HI, lo, "bit %d of %d", i, n)
				assert.Equal(t, line.LO, hi, "bit %d of %d", i, n)
			}
		}
	})
}

func TestScheduleLevelAt(t *testing.T) {
	sched := Encode(0x1, 8)
	lvl, ok := sched.LevelAt(1)
	assert.True(t, ok)
	assert.Equal(t, line.LO, lvl)

	_, ok = sched.LevelAt(0)
	assert.False(t, ok)

	_, ok = sched.LevelAt(len(sched) + 1)
	assert.False(t, ok)
}

func TestDecoderLastBit(t *testing.T) {
	d := NewDecoder()
	_, ok := d.LastBit()
	assert.False(t, ok)

	d.shiftIn(1)
	bit, ok := d.LastBit()
	assert.True(t, ok)
	assert.Equal(t, 1, bit)
}

// TestDecoderRepeatedOne walks the h=0/3/2 cycle, the path taken when a
// bit equals its predecessor (the start bit is a 1, so a data 1 follows
// with a TE-spaced edge at the bit boundary), and checks that exactly one
// bit, a 1, has been assembled.
func TestDecoderRepeatedOne(t *testing.T) {
	d := NewDecoder()
	assert.True(t, d.Step(IntervalTE)) // start-bit middle edge, h: 0 -> 3
	assert.True(t, d.Step(IntervalTE)) // bit-boundary edge, h: 3 -> 2
	assert.True(t, d.Step(IntervalTE)) // first bit's middle edge: shiftIn(1), h: 2 -> 3

	value, bits := d.Value()
	assert.Equal(t, 1, bits)
	assert.Equal(t, uint32(1), value)
}

// TestDecoderZeroAfterOne exercises the h=3/2TE path: a 0 following the
// start bit's 1 begins at the level the start bit ended on, so there is no
// edge at the boundary; the decoder sees a single 2TE gap instead of two
// TE gaps and shifts in a 0.
func TestDecoderZeroAfterOne(t *testing.T) {
	d := NewDecoder()
	assert.True(t, d.Step(IntervalTE))   // start-bit middle edge, h: 0 -> 3
	assert.True(t, d.Step(Interval2TE))  // no boundary edge: shiftIn(0), h: 3 -> 4

	value, bits := d.Value()
	assert.Equal(t, 1, bits)
	assert.Equal(t, uint32(0), value)
}

func TestDecoderStepRejectsInconsistentPhase(t *testing.T) {
	d := NewDecoder()
	assert.True(t, d.Step(IntervalTE)) // h: 0 -> 3
	assert.False(t, d.Step(IntervalInvalid))
}
