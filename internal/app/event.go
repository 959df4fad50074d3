package app

import "github.com/samoyed-dali/dali-link/internal/frame"

// SetInputValue feeds a new sensor reading (10-bit, scaled into the upper
// bits the way DALI_Set_inputValue's adcVal is) into the hysteresis
// dispatcher; call this from the device layer's periodic ADC sampling.
func (a *App) SetInputValue(value uint16) {
	a.mu.Lock()
	a.inputValue = value
	a.mu.Unlock()
}

// Tick advances the report/deadtime countdowns and evaluates whether an
// event should fire, to be called once per the device layer's 1ms
// scheduling tick (spec §9's cooperative main loop). It mirrors
// DALI_SendEvent's gating and per-scheme frame construction, including the
// scheme-3 "lowest device-group membership" extraction.
func (a *App) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reportTicks > 0 {
		a.reportTicks--
	}
	if a.deadTicks > 0 {
		a.deadTicks--
	}

	if !a.eventGateOpenLocked() {
		return
	}
	a.degradeSchemeIfUnusableLocked()

	payload, ok := a.eventPayloadLocked()
	if !ok {
		return
	}

	outsideBand := a.inputValue > a.hysteresisHigh || a.inputValue < a.hysteresisLow
	dueToTimeout := a.reportTicks == 0 && a.vars.TReport != 0

	if !outsideBand && !dueToTimeout {
		return
	}

	if a.tx != nil {
		_ = a.tx.Send(frame.TxRequest{Payload: payload, Kind: frame.Forward24, Priority: int(a.vars.EventPriority)})
	}

	if outsideBand {
		band := a.vars.HysteresisMin
		if scaled := a.vars.Hysteresis * uint32(a.inputValue) / 100; scaled > band {
			band = scaled
		}
		if a.inputValue > a.hysteresisHigh {
			a.hysteresisHigh = uint32(a.inputValue)
			if uint32(a.inputValue) > band {
				a.hysteresisLow = uint32(a.inputValue) - band
			} else {
				a.hysteresisLow = 0
			}
		} else {
			a.hysteresisLow = uint32(a.inputValue)
			a.hysteresisHigh = uint32(a.inputValue) + band
		}
	}

	a.reportTicks = a.vars.TReport
	a.deadTicks = a.vars.TDeadtime
}

func (a *App) eventGateOpenLocked() bool {
	return !a.vars.ApplicationActive &&
		!a.quiescentMode &&
		a.deadTicks == 0 &&
		a.vars.EventFilter%2 == 1 &&
		a.vars.InstanceActive &&
		!a.instanceError
}

// degradeSchemeIfUnusableLocked falls back to scheme 0 (device-identifying)
// when the addressing the configured scheme depends on is absent, exactly
// mirroring the original firmware's self-correcting EventScheme check.
func (a *App) degradeSchemeIfUnusableLocked() {
	unusable := ((a.vars.EventScheme == 1 || a.vars.EventScheme == 2) && a.vars.ShortAddress == 0xFF) ||
		(a.vars.EventScheme == 3 && a.vars.DeviceGroups == 0) ||
		(a.vars.EventScheme == 4 && a.vars.InstanceGroup0 == 0xFF)
	if unusable {
		a.vars.EventScheme = 0
		a.persistLocked()
	}
}

// eventPayloadLocked builds the 24-bit event frame for the active scheme
// (spec §4.7.4). Scheme 3 reports the lowest-numbered device group this
// device belongs to, counting from 1, matching the original firmware's
// trailing-zero count over deviceGroups.
func (a *App) eventPayloadLocked() (uint32, bool) {
	value := uint32(a.inputValue>>6) & 0x3FF

	switch a.vars.EventScheme {
	case 0:
		return 0x800000 | (uint32(a.cfg.InstanceType)<<17)&0x3E0000 | 0x8000 | (uint32(a.cfg.InstanceNumber)<<10)&0x7C00 | value, true
	case 1:
		return (uint32(a.vars.ShortAddress)<<17)&0x7E0000 | (uint32(a.cfg.InstanceType)<<10)&0x7C00 | value, true
	case 2:
		return (uint32(a.vars.ShortAddress)<<17)&0x7E0000 | 0x8000 | (uint32(a.cfg.InstanceNumber)<<10)&0x7C00 | value, true
	case 3:
		group := lowestSetGroup(a.vars.DeviceGroups)
		return 0x800000 | (uint32(group)<<17)&0x3E0000 | (uint32(a.cfg.InstanceType)<<10)&0x7C00 | value, true
	case 4:
		return 0xC00000 | (uint32(a.vars.InstanceGroup0)<<17)&0x3E0000 | (uint32(a.cfg.InstanceType)<<10)&0x7C00 | value, true
	default:
		return 0, false
	}
}

// lowestSetGroup returns the 1-based index (counting from 1, not 0) of the
// least-significant set bit in groups, i.e. the lowest device group this
// device is a member of.
func lowestSetGroup(groups uint32) int {
	if groups == 0 {
		return 0
	}
	count := 1
	for groups&1 == 0 {
		groups >>= 1
		count++
	}
	return count
}
