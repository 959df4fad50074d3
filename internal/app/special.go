package app

import (
	"github.com/samoyed-dali/dali-link/internal/frame"
	"github.com/samoyed-dali/dali-link/internal/membank"
)

// dispatchSpecialLocked handles the 0xC1-addressed special command set: the
// random-address search dance (INITIALISE..QUERY_SHORT_ADDRESS), DTR
// register writes, and direct memory-bank access. Grounded line-for-line
// on the original firmware's special_cmd switch in DALI_ProcessRxData.
func (a *App) dispatchSpecialLocked(cmd command, payload uint32) {
	switch SpecialCommand(cmd.instance) {
	case CmdTerminate:
		if cmd.opcode == 0 {
			a.initState = InitDisabled
		}

	case CmdInitialise:
		if !a.sendTwiceGateLocked(payload) {
			return
		}
		if a.tx != nil {
			unaddressed := cmd.opcode == 0x7F && a.vars.ShortAddress == 0xFF
			broadcast := cmd.opcode == 0xFF
			bySA := cmd.opcode < 64 && cmd.opcode == a.vars.ShortAddress
			if unaddressed || broadcast || bySA {
				a.initState = InitEnabled
			}
		}

	case CmdRandomise:
		if !a.sendTwiceGateLocked(payload) {
			return
		}
		if a.initState != InitDisabled && cmd.opcode == 0 {
			a.vars.RandomAddress = a.randomiseSeed()
			a.persistLocked()
			if a.vars.RandomAddress != 0xFFFFFF {
				a.resetState = false
			}
		}

	case CmdCompare:
		if a.initState == InitEnabled && a.vars.RandomAddress <= a.searchAddress && cmd.opcode == 0 {
			a.sendBackframeLocked(0xFF)
		}

	case CmdWithdraw:
		if a.initState == InitEnabled && a.vars.RandomAddress == a.searchAddress && cmd.opcode == 0 {
			a.initState = InitWithdrawn
		}

	case CmdSearchAddrH:
		if a.initState != InitDisabled {
			a.searchAddress = uint32(cmd.opcode)<<16 | a.searchAddress&0xFFFF
		}

	case CmdSearchAddrM:
		if a.initState != InitDisabled {
			a.searchAddress = uint32(cmd.opcode)<<8 | a.searchAddress&0xFFFF00FF
		}

	case CmdSearchAddrL:
		if a.initState != InitDisabled {
			a.searchAddress = uint32(cmd.opcode) | a.searchAddress&0xFFFF00
		}

	case CmdProgramShortAddress:
		if a.initState != InitDisabled && a.vars.RandomAddress == a.searchAddress && cmd.opcode < 64 {
			a.vars.ShortAddress = cmd.opcode
			a.persistLocked()
		}

	case CmdVerifyShortAddress:
		if a.initState != InitDisabled && a.vars.ShortAddress == cmd.opcode {
			a.sendBackframeLocked(0xFF)
		}

	case CmdQueryShortAddress:
		if a.initState != InitDisabled && a.vars.RandomAddress == a.searchAddress && cmd.opcode == 0 {
			a.sendBackframeLocked(a.vars.ShortAddress)
		}

	case CmdWriteMemoryLocation:
		a.writeMemoryLocked(cmd.opcode, true)

	case CmdWriteMemoryLocationNoReply:
		a.writeMemoryLocked(cmd.opcode, false)

	case CmdSetDTR0:
		a.DTR0 = cmd.opcode

	case CmdSetDTR1:
		a.DTR1 = cmd.opcode

	case CmdSetDTR2:
		a.DTR2 = cmd.opcode
	}
}

// sendTwiceGateLocked implements the INITIALISE/RANDOMISE "must be received
// identically twice before acting" rule. The first copy arms the LSM's
// send-twice window and records the frame for comparison; the next frame
// through the gate lets the caller proceed if its payload is identical.
// The gate compares payloads only: it does not check the record's
// SendTwicePossible flag or how much time passed between the two copies,
// so an identical second copy arriving after the 100ms window still passes.
func (a *App) sendTwiceGateLocked(payload uint32) bool {
	if !a.previousValid || a.previousFrame != payload {
		a.previousFrame = payload
		a.previousValid = true
		if a.tx != nil {
			a.tx.ExpectSendTwice()
		}
		return false
	}
	a.previousValid = false
	return true
}

func (a *App) sendBackframeLocked(value byte) {
	if a.tx == nil {
		return
	}
	_ = a.tx.Send(frame.TxRequest{
		Payload:   uint32(value),
		Kind:      frame.Backward8,
		Priority:  1,
		BackFrame: true,
	})
}

// writeMemoryLocked implements WRITE_MEMORY_LOCATION(_NO_REPLY): validate
// via membank.Store.Write, reply (unless reply==false) with the echoed
// byte before the flash commit so the bus isn't held up, then persist if
// required. DTR0 auto-increments within bank 189 per the original
// firmware.
func (a *App) writeMemoryLocked(value byte, reply bool) {
	if !a.writeEnableOn || a.mem == nil {
		return
	}
	result := a.mem.Write(int(a.DTR1), int(a.DTR0), value)
	if result != membank.NotAllowed {
		if reply {
			a.sendBackframeLocked(value)
		}
		if result == membank.RequiresPersist {
			_ = a.mem.Persist(int(a.DTR1), int(a.DTR0), value)
		}
	}
	if a.DTR0 < 0xFF && a.DTR1 == 189 {
		a.DTR0++
	}
}

// randomiseSeed stands in for the original firmware's timer-jitter seed
// (get_timer_count(&htim6)*250); App draws from its own PRNG, seeded by the
// device layer at boot (dalid defaults the seed to the wall-clock time in
// nanoseconds), so repeated RANDOMISE commands do not collide
// deterministically across devices sharing a bus.
func (a *App) randomiseSeed() uint32 {
	return a.rng.Uint32() & 0xFFFFFF
}
