package lsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samoyed-dali/dali-link/internal/frame"
	"github.com/samoyed-dali/dali-link/internal/line"
)

// TestPreIdleLadderSendsAtTickEqualToPriority verifies the PreIdle priority
// ladder (spec §4.4, invariant 5): a queued frame may only launch once
// priorityCounter has climbed to meet its Priority, and it launches at
// exactly that rung -- never earlier. Each subtest drives the ladder by
// calling onBitTick directly, the same entry point the bit timer's real
// callback uses.
func TestPreIdleLadderSendsAtTickEqualToPriority(t *testing.T) {
	for priority := 1; priority <= 5; priority++ {
		t.Run(priorityLabel(priority), func(t *testing.T) {
			drv := line.NewSimulated()
			l := New(drv, 1)
			req := frame.TxRequest{
				Kind:      frame.Backward8,
				Priority:  priority,
				BackFrame: true,
				Payload:   0x5A,
			}
			l.txQ.Enqueue(req)

			l.mu.Lock()
			l.priorityCounter = 1
			l.state = PreIdle
			l.mu.Unlock()

			for tick := 1; tick < priority; tick++ {
				l.onBitTick()
				// preIdleTickLocked just armed the bit timer for the next
				// rung's real delay; disarm it immediately so the test's own
				// back-to-back manual ticks can never race a background
				// fire of the same timer.
				l.bitTimer.Disarm()
				require.Equal(t, PreIdle, l.ReadState(), "must not launch before rung %d", priority)
			}

			l.onBitTick()
			assert.Equal(t, SendData, l.ReadState(), "must launch exactly at rung %d", priority)

			l.mu.Lock()
			launched := l.txReq
			l.bitTimer.Disarm()
			l.mu.Unlock()
			assert.Equal(t, req.Payload, launched.Payload)

			// The schedule's first half-bit must already be asserted on the
			// simulated bus.
			lvl, ok := l.schedule.LevelAt(1)
			require.True(t, ok)
			assert.Equal(t, lvl, drv.TXLevel())
		})
	}
}

func priorityLabel(p int) string {
	switch p {
	case 1:
		return "priority1"
	case 2:
		return "priority2"
	case 3:
		return "priority3"
	case 4:
		return "priority4"
	case 5:
		return "priority5"
	default:
		return "priorityOther"
	}
}

// TestCollisionRequeuesFrameAndRetransmits verifies the self-echo collision
// detector (spec §4.4 "Collision timing fix-up"): an edge that is neither
// the expected falling nor rising self-echo aborts the in-flight frame,
// counts the collision, and re-inserts it at the head of the TX queue so it
// is the next frame the PreIdle ladder considers -- property 4, "collision
// retry".
func TestCollisionRequeuesFrameAndRetransmits(t *testing.T) {
	drv := line.NewSimulated()
	l := New(drv, 1)
	req := frame.TxRequest{
		Kind:      frame.Backward8,
		Priority:  1,
		BackFrame: true,
		Payload:   0x3C,
	}

	l.mu.Lock()
	l.enterSendDataLocked(req, true)
	// lastBitSent is now LO (the schedule's start bit). Freeze the bit
	// timer so the real SendData tick cannot race the collision we are
	// about to inject.
	l.bitTimer.Disarm()
	l.mu.Unlock()
	require.Equal(t, SendData, l.ReadState())

	// A competing device holding the bus at the same level we're driving
	// produces no transition at all -- neither a falling nor a rising
	// self-echo, and therefore a collision regardless of its timing.
	drv.AssertOtherDeviceDrives(line.LO)

	l.mu.Lock()
	collided := l.state == Break
	l.bitTimer.Disarm() // freeze again: Break's own BreakHold timer just armed
	l.mu.Unlock()
	require.True(t, collided, "mismatched self-echo must abort the frame into Break")

	stats := l.ReadStats()
	assert.EqualValues(t, 1, stats.CollisionCount)

	done, txErr := l.ReadFlags()
	assert.False(t, done)
	assert.True(t, txErr)

	retried, ok := l.txQ.Peek()
	require.True(t, ok, "collision must requeue the in-flight frame")
	assert.Equal(t, req.Payload, retried.Payload)
	assert.Equal(t, req.Kind, retried.Kind)
	assert.Equal(t, req.Priority, retried.Priority)

	// The requeued frame must win arbitration at its own priority rung,
	// exactly like a freshly enqueued one, confirming Requeue really does
	// jump the retry ahead of the ladder rather than just marking a flag.
	l.mu.Lock()
	l.priorityCounter = 1
	l.state = PreIdle
	l.mu.Unlock()

	l.onBitTick()
	assert.Equal(t, SendData, l.ReadState())

	l.mu.Lock()
	resent := l.txReq
	l.bitTimer.Disarm()
	l.mu.Unlock()
	assert.Equal(t, req.Payload, resent.Payload)
}
