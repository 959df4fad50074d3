// Package frame defines the DALI-2 frame data model shared by the codec,
// the link state machine, and the frame queues.
package frame

// Kind identifies the wire shape of a frame.
type Kind int

const (
	Forward16 Kind = iota
	Forward24
	Backward8
)

func (k Kind) Bits() int {
	switch k {
	case Forward16:
		return 16
	case Forward24:
		return 24
	case Backward8:
		return 8
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case Forward16:
		return "Forward16"
	case Forward24:
		return "Forward24"
	case Backward8:
		return "Backward8"
	default:
		return "Unknown"
	}
}

// RxError is the taxonomy of receive-side frame errors (spec §7).
type RxError int

const (
	ErrNone RxError = iota
	ErrBitTiming
	ErrFrameTiming
	ErrFrameSize
)

func (e RxError) String() string {
	switch e {
	case ErrNone:
		return "None"
	case ErrBitTiming:
		return "BitTiming"
	case ErrFrameTiming:
		return "FrameTiming"
	case ErrFrameSize:
		return "FrameSize"
	default:
		return "Unknown"
	}
}

// FromState records which LSM state a receive was entered from, needed to
// tell a backward-frame reply apart from an out-of-turn forward frame.
type FromState int

const (
	FromIdle FromState = iota
	FromWaitForBackFrame
	FromWaitForSecondForwardFrame
)

// TxRequest is what the application layer hands to the LSM to transmit.
type TxRequest struct {
	Payload    uint32
	Kind       Kind
	SendTwice  bool
	Priority   int // 1 (highest, backframes) .. 5
	BackFrame  bool
	// TxThisDevice flags a forward frame that originated from this device,
	// matching the original firmware's data_flags_t.txThisDevice.
	TxThisDevice bool
}

// RxFlags mirrors the original firmware's packed data_flags_t: a bundle of
// booleans describing one RX transaction rather than just the decoded bits.
type RxFlags struct {
	ForwardFrameValid      bool
	BackwardFrameValid     bool
	BackwardFrameDelayValid bool
	TxThisDevice           bool
	TxError                bool
	RxTimingError          bool
	RxError                bool
	// TxType is false for 16-bit forward frames, true for 24-bit.
	TxType bool
}

// RxRecord is a fully classified, queued receive (or failed-receive) event.
type RxRecord struct {
	Payload           uint32
	Length            int
	Kind              Kind
	Done              bool
	Error             RxError
	SendTwicePossible bool
	FromState         FromState
	Flags             RxFlags
	// BackwardFrameDelay is the field for the tick count between the end of
	// a forward frame and the start of its matching backward frame. The
	// link state machine does not measure this gap: every record it
	// enqueues carries zero here and Flags.BackwardFrameDelayValid false.
	BackwardFrameDelay int64
}

// TxOutcome is what the LSM reports back once a queued TxRequest is
// resolved, one way or the other.
type TxOutcome struct {
	Done  bool
	Error bool // collision
}
