// Package line implements the DALI-2 physical line driver (component C1):
// drive the TX wire, sample the RX wire, and raise edge events. It is kept
// idempotent and free of side effects beyond the pin, per spec §4.1.
package line

// Level is the logical bus level. HI is recessive (bus released, pulled up
// by the transceiver); LO is dominant (bus actively pulled down).
type Level bool

const (
	HI Level = true
	LO Level = false
)

func (l Level) String() string {
	if l == HI {
		return "HI"
	}
	return "LO"
}

// EdgeHandler is invoked from the driver's own goroutine/interrupt context
// whenever the RX line changes level. Implementations must not block.
type EdgeHandler func(to Level)

// Driver is the C1 contract the link state machine is built against. Every
// implementation must be safe to call set_tx from one goroutine while edges
// are delivered from another.
type Driver interface {
	// SetTX asserts the given level on the bus. Calling it with the level
	// already asserted is a no-op.
	SetTX(level Level)
	// ReadRX samples the instantaneous bus level.
	ReadRX() Level
	// OnEdge installs the handler invoked on every RX transition. Only one
	// handler is supported; installing a new one replaces the last.
	OnEdge(h EdgeHandler)
	// Close releases any underlying hardware resources.
	Close() error
}
