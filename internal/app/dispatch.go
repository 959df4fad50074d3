package app

import "github.com/samoyed-dali/dali-link/internal/frame"

// command is the decoded 24-bit forward command frame: address, instance
// (or special-command selector), and opcode byte. Named DALICmdFrame_t in
// the original firmware.
type command struct {
	address  byte
	instance byte
	opcode   byte
}

func decodeCommand(payload uint32) command {
	return command{
		address:  byte(payload >> 16),
		instance: byte(payload >> 8),
		opcode:   byte(payload),
	}
}

// ProcessFrame dispatches one received forward frame (spec §4.7's top-level
// entry point, DALI_ProcessRxData). It silently drops frames this device is
// not addressed by, and frames that failed RX (the device layer's PumpRx
// passes every record through, so this check is where they are dropped).
func (a *App) ProcessFrame(rec frame.RxRecord) {
	if rec.Error != 0 || !rec.Flags.ForwardFrameValid {
		return
	}
	if rec.Kind != frame.Forward24 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cmd := decodeCommand(rec.Payload)

	// Command frames have bit 16 set (distinguishing from event frames,
	// which input devices on the bus, this one included via Tick, emit and
	// which are ignored here).
	if rec.Payload&0x010000 == 0 {
		return
	}

	ok, special := a.addressMatchLocked(cmd.address)
	if !ok {
		return
	}

	if special {
		a.dispatchSpecialLocked(cmd, rec.Payload)
		return
	}

	a.dispatchStandardLocked(cmd)
}
