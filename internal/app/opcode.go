package app

// Standard (addressed) command opcodes, from the control-device command set
// (spec §4.7, IEC 62386-103). Mirrors the original firmware's
// opcode_app_controller enum one-for-one.
const (
	OpIdentifyDevice                      = 0x00
	OpResetPowerCycleSeen                  = 0x01
	OpResetVariable                        = 0x10
	OpResetMemoryBank                      = 0x11
	OpSetShortAddress                       = 0x14
	OpEnableWriteMemory                     = 0x15
	OpEnableApplicationController          = 0x16
	OpDisableApplicationController         = 0x17
	OpSetOperatingMode                      = 0x18
	OpAddToDeviceGroups0_15                 = 0x19
	OpAddToDeviceGroups16_31                = 0x1A
	OpRemoveFromDeviceGroups0_15            = 0x1B
	OpRemoveFromDeviceGroups16_31           = 0x1C
	OpStartQuiescentMode                    = 0x1D
	OpStopQuiescentMode                     = 0x1E
	OpEnablePowerCycleNotification          = 0x1F
	OpDisablePowerCycleNotification         = 0x20
	OpSavePersistentVariables               = 0x21
	OpQueryDeviceStatus                     = 0x30
	OpQueryApplicationControllerError       = 0x31
	OpQueryInputDeviceError                 = 0x32
	OpQueryMissingShortAddress              = 0x33
	OpQueryVersionNumber                    = 0x34
	OpQueryNumberOfInstances                = 0x35
	OpQueryContentDTR0                      = 0x36
	OpQueryContentDTR1                      = 0x37
	OpQueryContentDTR2                      = 0x38
	OpQueryRandomAddressH                   = 0x39
	OpQueryRandomAddressM                   = 0x3A
	OpQueryRandomAddressL                   = 0x3B
	OpReadMemoryLocation                    = 0x3C
	OpQueryApplicationControllerEnabled     = 0x3D
	OpQueryOperatingMode                    = 0x3E
	OpQueryManufacturerSpecificMode         = 0x3F
	OpQueryQuiescentMode                    = 0x40
	OpQueryDeviceGroups0_7                  = 0x41
	OpQueryDeviceGroups8_15                 = 0x42
	OpQueryDeviceGroups16_23                = 0x43
	OpQueryDeviceGroups24_31                = 0x44
	OpQueryPowerCycleNotification            = 0x45
	OpQueryDeviceCapabilities                = 0x46
	OpQueryExtendedVersionNumber             = 0x47
	OpQueryResetState                        = 0x48
	OpQueryApplicationControllerAlwaysActive = 0x49
	OpSetEventPriority                       = 0x61
	OpEnableInstance                         = 0x62
	OpDisableInstance                        = 0x63
	OpSetPrimaryInstanceGroup                = 0x64
	OpSetInstanceGroup1                      = 0x65
	OpSetInstanceGroup2                      = 0x66
	OpSetEventScheme                         = 0x67
	OpSetEventFilter                         = 0x68
	OpQueryInstanceType                      = 0x80
	OpQueryResolution                        = 0x81
	OpQueryInstanceError                     = 0x82
	OpQueryInstanceStatus                    = 0x83
	OpQueryEventPriority                     = 0x84
	OpQueryInstanceEnabled                   = 0x86
	OpQueryPrimaryInstanceGroup              = 0x88
	OpQueryInstanceGroup1                    = 0x89
	OpQueryInstanceGroup2                    = 0x8A
	OpQueryEventScheme                       = 0x8B
	OpQueryInputValue                        = 0x8C
	OpQueryInputValueLatch                   = 0x8D
	OpQueryFeatureType                       = 0x8E
	OpQueryNextFeatureType                   = 0x8F
	OpQueryEventFilter0_7                    = 0x90
	OpQueryEventFilter8_15                   = 0x91
	OpQueryEventFilter16_23                  = 0x92
)

// Input-device instance opcodes (spec §4.7, opcode_input_device_added):
// valid only when addressed to an instance (this device's instance number
// or the 0xFE instance broadcast, not the device-level 0xFF), so they
// share numeric space with the device-level
// QUERY_DEVICE_STATUS..QUERY_MANUFACTURER_SPECIFIC_MODE range above
// without colliding — the two are dispatched from separate switches keyed
// on whether the command targets the device or an instance.
const (
	OpSetReportTimer     = 0x30
	OpSetHysteresis      = 0x31
	OpSetDeadtimeTimer   = 0x32
	OpSetHysteresisMin   = 0x33
	OpQueryHysteresisMin = 0x3C
	OpQueryDeadtimeTimer = 0x3D
	OpQueryReportTimer   = 0x3E
	OpQueryHysteresis    = 0x3F
)

// SpecialCommand identifies the C1-targeted special commands carried on the
// 0xC1 reserved address (spec §4.7.3), driving the random-address
// initialisation dance.
type SpecialCommand int

const (
	CmdTerminate SpecialCommand = iota
	CmdInitialise
	CmdRandomise
	CmdCompare
	CmdWithdraw
	CmdSearchAddrH
	CmdSearchAddrM
	CmdSearchAddrL
	CmdProgramShortAddress
	CmdVerifyShortAddress
	CmdQueryShortAddress
	_ // gap: opcodes 0x0B-0x1F unused by this dance
	CmdWriteMemoryLocation        SpecialCommand = 0x20
	CmdWriteMemoryLocationNoReply SpecialCommand = 0x21
	CmdSetDTR0                    SpecialCommand = 0x30
	CmdSetDTR1                    SpecialCommand = 0x31
	CmdSetDTR2                    SpecialCommand = 0x32
	CmdSendTestframe              SpecialCommand = 0x33
	CmdDirectWriteMemory          SpecialCommand = 0xC5
	CmdDTR1DTR0                   SpecialCommand = 0xC7
	CmdDTR2DTR1                   SpecialCommand = 0xC9
)

// InitState is the three-valued random-address search state (spec §4.7.3).
type InitState int

const (
	InitDisabled InitState = iota
	InitEnabled
	InitWithdrawn
)
