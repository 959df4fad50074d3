package app

// addressMatch classifies a forward-frame address byte against this
// device's short address and group memberships, exactly reproducing the
// branch structure of DALI_ProcessRxData's address check. ok is false when
// the frame should be silently dropped (not addressed to us, or reserved).
func (a *App) addressMatchLocked(addressByte byte) (ok bool, special bool) {
	switch {
	case addressByte == 0xC1:
		return true, true
	case addressByte < 0x80: // bit 7 clear: short addressing, byte = 2*SA+1
		return addressByte == a.vars.ShortAddress*2+1, false
	case addressByte < 0xC0: // bits 7:6 = 10: device-group addressing
		group := (addressByte >> 1) & 0x1F
		return a.vars.DeviceGroups&(1<<group) != 0, false
	case addressByte == 0xFD: // broadcast, unaddressed devices only
		return a.vars.ShortAddress == 0xFF, false
	case addressByte >= 0xC0 && addressByte < 0xFD: // reserved (0xC1 handled above)
		return false, false
	default: // 0xFE/0xFF: broadcast (all)
		return true, false
	}
}
