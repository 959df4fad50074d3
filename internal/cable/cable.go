// Package cable implements the C6 cable monitor: periodic 1kHz sampling of
// the RX line to declare the bus connected or disconnected, per spec §4.6.
// It does not alter the link state machine; the flag is diagnostic only.
package cable

import (
	"sync/atomic"

	"github.com/samoyed-dali/dali-link/internal/line"
)

// samplesForDisconnect is the number of consecutive LO samples (at ~1kHz,
// so ~20ms) that declares the bus disconnected.
const samplesForDisconnect = 20

// Monitor tracks bus connectivity from a stream of 1kHz samples.
type Monitor struct {
	counter      int
	disconnected atomic.Bool
}

// New returns a Monitor that starts in the connected state, matching the
// original firmware's boot default (disconnection must be observed, not
// assumed).
func New() *Monitor {
	return &Monitor{counter: samplesForDisconnect}
}

// Sample feeds one RX-line reading into the monitor; call this at ~1kHz
// from the cooperative tick_1khz entry point (spec §4.6/§9).
func (m *Monitor) Sample(rx line.Level) {
	if rx == line.HI {
		m.counter = samplesForDisconnect
		m.disconnected.Store(false)
		return
	}
	if m.counter > 0 {
		m.counter--
	}
	if m.counter == 0 {
		m.disconnected.Store(true)
	}
}

// Disconnected reports the last-declared connectivity state.
func (m *Monitor) Disconnected() bool {
	return m.disconnected.Load()
}

// ForceDisconnected lets an out-of-band signal (e.g. a udev "remove" event
// for a USB-to-DALI adapter) immediately declare the bus down without
// waiting out the sample counter.
func (m *Monitor) ForceDisconnected() {
	m.counter = 0
	m.disconnected.Store(true)
}
