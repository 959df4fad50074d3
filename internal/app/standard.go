package app

// deviceInstance is the instance_byte value meaning "this command targets
// the device as a whole", not any particular instance.
const deviceInstance = 0xFF

// dispatchStandardLocked routes an addressed (non-special) command frame to
// the device-level or instance-level opcode table, the same split the
// original firmware makes by checking cmd->instance_byte before
// interpreting cmd->opcode_byte. The two tables occupy disjoint opcode
// ranges except where the firmware itself reuses 0x30-0x3F for unrelated
// meanings across device classes, which this split keeps apart.
func (a *App) dispatchStandardLocked(cmd command) {
	if cmd.instance == deviceInstance {
		a.dispatchDeviceOpcodeLocked(cmd)
		return
	}
	a.dispatchInstanceOpcodeLocked(cmd)
}

// dispatchDeviceOpcodeLocked handles device-level configuration/query
// commands (opcode <= 0x49). Only QUERY_* commands and READ_MEMORY_LOCATION
// produce a reply.
func (a *App) dispatchDeviceOpcodeLocked(cmd command) {
	switch cmd.opcode {
	case OpIdentifyDevice:
		// No physical indicator to drive in this simulation; accepted as a no-op.
	case OpResetPowerCycleSeen:
		a.powerCycleSeen = false
	case OpResetVariable:
		a.resetVariablesLocked()
	case OpResetMemoryBank:
		if a.mem != nil {
			a.mem.Reset(int(a.DTR1))
		}
	case OpSetShortAddress:
		if a.DTR0 == 0xFF {
			a.vars.ShortAddress = 0xFF
			a.persistLocked()
		} else if a.DTR0&1 == 1 && a.DTR0 < 0x80 {
			a.vars.ShortAddress = a.DTR0 >> 1
			a.persistLocked()
		}
	case OpEnableWriteMemory:
		a.writeEnableOn = true
		if a.mem != nil {
			a.mem.SetWriteWindow(true)
		}
	case OpEnableApplicationController:
		a.vars.ApplicationActive = true
	case OpDisableApplicationController:
		a.vars.ApplicationActive = false
	case OpSetOperatingMode:
		a.vars.OperatingMode = a.DTR0
	case OpAddToDeviceGroups0_15:
		a.vars.DeviceGroups |= uint32(a.DTR0)
	case OpAddToDeviceGroups16_31:
		a.vars.DeviceGroups |= uint32(a.DTR0) << 16
	case OpRemoveFromDeviceGroups0_15:
		a.vars.DeviceGroups &^= uint32(a.DTR0)
	case OpRemoveFromDeviceGroups16_31:
		a.vars.DeviceGroups &^= uint32(a.DTR0) << 16
	case OpStartQuiescentMode:
		a.quiescentMode = true
	case OpStopQuiescentMode:
		a.quiescentMode = false
	case OpEnablePowerCycleNotification:
		a.vars.PowerCycleNotif = true
	case OpDisablePowerCycleNotification:
		a.vars.PowerCycleNotif = false
	case OpSavePersistentVariables:
		a.persistLocked()

	case OpQueryDeviceStatus:
		a.sendBackframeLocked(a.deviceStatusByte())
	case OpQueryApplicationControllerError:
		a.sendBackframeLocked(boolByte(a.appControllerErr))
	case OpQueryInputDeviceError:
		a.sendBackframeLocked(boolByte(a.inputDeviceErr))
	case OpQueryMissingShortAddress:
		a.sendBackframeLocked(boolByte(a.vars.ShortAddress == 0xFF))
	case OpQueryVersionNumber:
		a.sendBackframeLocked(byte(a.cfg.VersionNumber))
	case OpQueryNumberOfInstances:
		a.sendBackframeLocked(byte(a.cfg.NumberOfInstances))
	case OpQueryContentDTR0:
		a.sendBackframeLocked(a.DTR0)
	case OpQueryContentDTR1:
		a.sendBackframeLocked(a.DTR1)
	case OpQueryContentDTR2:
		a.sendBackframeLocked(a.DTR2)
	case OpQueryRandomAddressH:
		a.sendBackframeLocked(byte(a.vars.RandomAddress >> 16))
	case OpQueryRandomAddressM:
		a.sendBackframeLocked(byte(a.vars.RandomAddress >> 8))
	case OpQueryRandomAddressL:
		a.sendBackframeLocked(byte(a.vars.RandomAddress))
	case OpReadMemoryLocation:
		if a.mem != nil {
			if value, ok := a.mem.Read(int(a.DTR1), int(a.DTR0)); ok {
				a.sendBackframeLocked(value)
			}
			if a.DTR0 < 0xFF && a.DTR1 == 189 {
				a.DTR0++
			}
		}
	case OpQueryApplicationControllerEnabled:
		a.sendBackframeLocked(boolByte(a.vars.ApplicationActive))
	case OpQueryOperatingMode:
		a.sendBackframeLocked(a.vars.OperatingMode)
	case OpQueryQuiescentMode:
		a.sendBackframeLocked(boolByte(a.quiescentMode))
	case OpQueryDeviceGroups0_7:
		a.sendBackframeLocked(byte(a.vars.DeviceGroups))
	case OpQueryDeviceGroups8_15:
		a.sendBackframeLocked(byte(a.vars.DeviceGroups >> 8))
	case OpQueryDeviceGroups16_23:
		a.sendBackframeLocked(byte(a.vars.DeviceGroups >> 16))
	case OpQueryDeviceGroups24_31:
		a.sendBackframeLocked(byte(a.vars.DeviceGroups >> 24))
	case OpQueryPowerCycleNotification:
		a.sendBackframeLocked(boolByte(a.vars.PowerCycleNotif))
	case OpQueryDeviceCapabilities:
		a.sendBackframeLocked(a.deviceCapabilitiesByte())
	case OpQueryExtendedVersionNumber:
		a.sendBackframeLocked(byte(a.cfg.ExtendedVersionNumber))
	case OpQueryResetState:
		a.sendBackframeLocked(boolByte(a.resetState))
	case OpQueryApplicationControllerAlwaysActive:
		a.sendBackframeLocked(boolByte(a.cfg.ControllerAlwaysActive))
	}
}

// dispatchInstanceOpcodeLocked handles commands addressed to a specific
// instance (cmd.instance != 0xFF): the common instance-level opcodes
// (0x61-0x92) and, for this device's sole instance type (a light-level
// input device), the additional SET/QUERY timer and hysteresis opcodes
// that the original firmware's opcode_input_device_added enum adds in the
// 0x30-0x3F range — safe to share a switch with the 0x61-0x92 range since
// the two never overlap.
func (a *App) dispatchInstanceOpcodeLocked(cmd command) {
	if cmd.instance != 0xFE && cmd.instance != a.cfg.InstanceNumber {
		return
	}

	switch cmd.opcode {
	case OpSetReportTimer:
		a.vars.TReport = uint16(a.DTR0) * 2
	case OpSetHysteresis:
		a.vars.Hysteresis = uint32(a.DTR0)
	case OpSetDeadtimeTimer:
		a.vars.TDeadtime = uint16(a.DTR0) * 2
	case OpSetHysteresisMin:
		a.vars.HysteresisMin = uint32(a.DTR0)
	case OpQueryHysteresisMin:
		a.sendBackframeLocked(byte(a.vars.HysteresisMin))
	case OpQueryDeadtimeTimer:
		a.sendBackframeLocked(byte(a.vars.TDeadtime / 2))
	case OpQueryReportTimer:
		a.sendBackframeLocked(byte(a.vars.TReport / 2))
	case OpQueryHysteresis:
		a.sendBackframeLocked(byte(a.vars.Hysteresis))

	case OpSetEventPriority:
		if a.DTR0 >= 2 && a.DTR0 <= 5 {
			a.vars.EventPriority = a.DTR0
		}
	case OpEnableInstance:
		a.vars.InstanceActive = true
	case OpDisableInstance:
		a.vars.InstanceActive = false
	case OpSetPrimaryInstanceGroup:
		a.vars.InstanceGroup0 = a.DTR0
	case OpSetInstanceGroup1:
		a.vars.InstanceGroup1 = a.DTR0
	case OpSetInstanceGroup2:
		a.vars.InstanceGroup2 = a.DTR0
	case OpSetEventScheme:
		if a.DTR0 <= 4 {
			a.vars.EventScheme = a.DTR0
		}
	case OpSetEventFilter:
		a.setEventFilterBitLocked(a.DTR0)

	case OpQueryInstanceType:
		a.sendBackframeLocked(a.cfg.InstanceType)
	case OpQueryResolution:
		a.sendBackframeLocked(a.cfg.Resolution)
	case OpQueryInstanceError:
		a.sendBackframeLocked(boolByte(a.instanceError))
	case OpQueryInstanceStatus:
		a.sendBackframeLocked(a.instanceStatusByte())
	case OpQueryEventPriority:
		a.sendBackframeLocked(a.vars.EventPriority)
	case OpQueryInstanceEnabled:
		a.sendBackframeLocked(boolByte(a.vars.InstanceActive))
	case OpQueryPrimaryInstanceGroup:
		a.sendBackframeLocked(a.vars.InstanceGroup0)
	case OpQueryInstanceGroup1:
		a.sendBackframeLocked(a.vars.InstanceGroup1)
	case OpQueryInstanceGroup2:
		a.sendBackframeLocked(a.vars.InstanceGroup2)
	case OpQueryEventScheme:
		a.sendBackframeLocked(a.vars.EventScheme)
	case OpQueryInputValue:
		a.sendBackframeLocked(byte(a.inputValue >> 2))
	case OpQueryInputValueLatch:
		a.sendBackframeLocked(byte(a.inputValue >> 2))
	case OpQueryEventFilter0_7:
		a.sendBackframeLocked(byte(a.vars.EventFilter))
	case OpQueryEventFilter8_15:
		a.sendBackframeLocked(byte(a.vars.EventFilter >> 8))
	}
}

func boolByte(b bool) byte {
	if b {
		return 0xFF
	}
	return 0x00
}

func (a *App) deviceStatusByte() byte {
	var v byte
	if a.inputDeviceErr {
		v |= 0x01
	}
	if a.quiescentMode {
		v |= 0x02
	}
	if a.vars.ShortAddress != 0xFF {
		v |= 0x04
	}
	if a.vars.ApplicationActive {
		v |= 0x08
	}
	if a.appControllerErr {
		v |= 0x10
	}
	if a.powerCycleSeen {
		v |= 0x20
	}
	if a.resetState {
		v |= 0x40
	}
	return v
}

func (a *App) deviceCapabilitiesByte() byte {
	var v byte
	if a.cfg.ControllerPresent {
		v |= 0x01
	}
	v |= 0x02 // INSTANCE_PRESENT: this device always models one instance
	if a.cfg.ControllerAlwaysActive {
		v |= 0x04
	}
	return v
}

func (a *App) instanceStatusByte() byte {
	var v byte
	if a.instanceError {
		v |= 0x01
	}
	if !a.vars.InstanceActive {
		v |= 0x02
	}
	return v
}

// setEventFilterBitLocked toggles event-filter bit DTR1 per the standard
// command's convention (DTR0 holds 0/1, DTR1 the bit index).
func (a *App) setEventFilterBitLocked(dtr0 byte) {
	bit := uint16(1) << (a.DTR1 % 16)
	if dtr0 == 0 {
		a.vars.EventFilter &^= bit
	} else {
		a.vars.EventFilter |= bit
	}
}
