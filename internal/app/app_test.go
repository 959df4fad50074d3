package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samoyed-dali/dali-link/internal/frame"
	"github.com/samoyed-dali/dali-link/internal/membank"
)

type fakeSender struct {
	sent            []frame.TxRequest
	sendTwiceCalls int
}

func (f *fakeSender) Send(req frame.TxRequest) error {
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeSender) ExpectSendTwice() { f.sendTwiceCalls++ }

type fakePersister struct {
	saved []Variables
}

func (f *fakePersister) SaveVariables(v Variables) error {
	f.saved = append(f.saved, v)
	return nil
}

func newTestApp(tx *fakeSender) *App {
	cfg := DeviceConfig{InstanceType: 3, Resolution: 10, InstanceNumber: 0}
	vars := Variables{ShortAddress: 0xFF}
	return New(cfg, vars, nil, tx, &fakePersister{}, 1)
}

func forward24(address, instance, opcode byte) frame.RxRecord {
	payload := uint32(address)<<16 | uint32(instance)<<8 | uint32(opcode)
	return frame.RxRecord{
		Payload: payload,
		Kind:    frame.Forward24,
		Error:   frame.ErrNone,
		Flags:   frame.RxFlags{ForwardFrameValid: true},
	}
}

func TestAddressMatchShortAddress(t *testing.T) {
	a := newTestApp(nil)
	a.vars.ShortAddress = 5

	ok, special := a.addressMatchLocked(2*5 + 1)
	assert.True(t, ok)
	assert.False(t, special)

	ok, _ = a.addressMatchLocked(2*6 + 1)
	assert.False(t, ok)
}

func TestAddressMatchGroup(t *testing.T) {
	a := newTestApp(nil)
	a.vars.DeviceGroups = 1 << 3 // member of group 3

	addressByte := byte(0x80 | (3 << 1))
	ok, special := a.addressMatchLocked(addressByte)
	assert.True(t, ok)
	assert.False(t, special)

	addressByte = byte(0x80 | (4 << 1))
	ok, _ = a.addressMatchLocked(addressByte)
	assert.False(t, ok)
}

func TestAddressMatchSpecialAndBroadcast(t *testing.T) {
	a := newTestApp(nil)

	ok, special := a.addressMatchLocked(0xC1)
	assert.True(t, ok)
	assert.True(t, special)

	ok, special = a.addressMatchLocked(0xFF)
	assert.True(t, ok)
	assert.False(t, special)

	// Broadcast-unaddressed only matches while unaddressed.
	a.vars.ShortAddress = 0xFF
	ok, _ = a.addressMatchLocked(0xFD)
	assert.True(t, ok)
	a.vars.ShortAddress = 5
	ok, _ = a.addressMatchLocked(0xFD)
	assert.False(t, ok)
}

func TestProcessFrameQueryDeviceStatus(t *testing.T) {
	tx := &fakeSender{}
	a := newTestApp(tx)
	a.vars.ShortAddress = 5

	rec := forward24(2*5+1, deviceInstance, OpQueryDeviceStatus)
	a.ProcessFrame(rec)

	require.Len(t, tx.sent, 1)
	assert.Equal(t, frame.Backward8, tx.sent[0].Kind)
	assert.True(t, tx.sent[0].BackFrame)
	assert.Equal(t, a.deviceStatusByte(), byte(tx.sent[0].Payload))
}

func TestProcessFrameIgnoresFrameNotAddressedToUs(t *testing.T) {
	tx := &fakeSender{}
	a := newTestApp(tx)
	a.vars.ShortAddress = 5

	rec := forward24(2*6+1, deviceInstance, OpQueryDeviceStatus)
	a.ProcessFrame(rec)

	assert.Empty(t, tx.sent)
}

func TestProcessFrameIgnoresRxError(t *testing.T) {
	tx := &fakeSender{}
	a := newTestApp(tx)
	a.vars.ShortAddress = 5

	rec := forward24(2*5+1, deviceInstance, OpQueryDeviceStatus)
	rec.Error = frame.ErrBitTiming
	a.ProcessFrame(rec)

	assert.Empty(t, tx.sent)
}

func TestSetShortAddressViaDTR0(t *testing.T) {
	a := newTestApp(nil)
	a.vars.ShortAddress = 0xFF
	a.DTR0 = 2*9 + 1

	rec := forward24(0xFF, deviceInstance, OpSetShortAddress) // 0xFF: broadcast
	a.ProcessFrame(rec)

	assert.Equal(t, byte(9), a.vars.ShortAddress)
}

func TestInstanceOpcodeOnlyAppliesToMatchingInstance(t *testing.T) {
	tx := &fakeSender{}
	a := newTestApp(tx)
	a.vars.ShortAddress = 5
	a.cfg.InstanceNumber = 0
	a.DTR0 = 3

	// Addressed to instance 1 (not ours, and not 0xFE broadcast-instance):
	// should be silently ignored.
	rec := forward24(2*5+1, 1, OpSetHysteresis)
	a.ProcessFrame(rec)
	assert.Equal(t, uint32(0), a.vars.Hysteresis)

	// Addressed to our own instance number: applies.
	rec = forward24(2*5+1, 0, OpSetHysteresis)
	a.ProcessFrame(rec)
	assert.Equal(t, uint32(3), a.vars.Hysteresis)
}

func TestDeviceAndInstanceOpcodeSplitDoesNotCollide(t *testing.T) {
	// OpQueryDeviceStatus and OpSetReportTimer both sit at 0x30: confirm
	// the device-level and instance-level dispatch tables really do treat
	// the same opcode byte differently depending on cmd.instance.
	tx := &fakeSender{}
	a := newTestApp(tx)
	a.vars.ShortAddress = 5
	a.DTR0 = 10

	rec := forward24(2*5+1, 0, OpSetReportTimer)
	a.ProcessFrame(rec)
	assert.Equal(t, uint16(20), a.vars.TReport)
	assert.Empty(t, tx.sent)

	rec = forward24(2*5+1, deviceInstance, OpQueryDeviceStatus)
	a.ProcessFrame(rec)
	require.Len(t, tx.sent, 1)
}

func TestSendTwiceGateRequiresIdenticalSecondFrame(t *testing.T) {
	tx := &fakeSender{}
	a := newTestApp(tx)

	initialise := forward24(0xC1, byte(CmdInitialise), 0xFF) // broadcast INITIALISE
	a.ProcessFrame(initialise)
	assert.Equal(t, InitState(InitDisabled), a.initState)
	assert.Equal(t, 1, tx.sendTwiceCalls)

	a.ProcessFrame(initialise)
	assert.Equal(t, InitEnabled, a.initState)
}

func TestSendTwiceGateResetsOnMismatch(t *testing.T) {
	tx := &fakeSender{}
	a := newTestApp(tx)

	first := forward24(0xC1, byte(CmdInitialise), 0xFF)
	second := forward24(0xC1, byte(CmdInitialise), 0x00)

	a.ProcessFrame(first)
	a.ProcessFrame(second) // mismatched payload: gate restarts, does not enable
	assert.Equal(t, InitState(InitDisabled), a.initState)
	assert.Equal(t, 2, tx.sendTwiceCalls)
}

func TestWriteMemoryLocationRequiresEnableWindow(t *testing.T) {
	flash := &stubFlashWriter{}
	mem := membank.New([6]byte{}, [8]byte{}, 0, 0, 0, 0, 0, 1, 0, flash)
	tx := &fakeSender{}
	a := newTestApp(tx)
	a.mem = mem
	a.DTR1 = 189
	a.DTR0 = membank.Bank189LockByte

	// Not enabled yet: no reply, no write.
	a.dispatchSpecialLocked(command{instance: byte(CmdWriteMemoryLocation), opcode: membank.UnlockSentinel}, 0)
	assert.Empty(t, tx.sent)

	a.writeEnableOn = true
	mem.SetWriteWindow(true)
	a.dispatchSpecialLocked(command{instance: byte(CmdWriteMemoryLocation), opcode: membank.UnlockSentinel}, 0)
	require.Len(t, tx.sent, 1)
	assert.Equal(t, uint32(membank.UnlockSentinel), tx.sent[0].Payload)
}

type stubFlashWriter struct{}

func (stubFlashWriter) Persist(bank int, offset int, value byte) error { return nil }

func TestEventSchemeZeroPayloadShape(t *testing.T) {
	a := newTestApp(nil)
	a.cfg.InstanceType = 3
	a.cfg.InstanceNumber = 2
	a.inputValue = 0x2C0 // arbitrary 10-bit-ish reading
	a.vars.EventScheme = 0

	payload, ok := a.eventPayloadLocked()
	require.True(t, ok)
	assert.NotZero(t, payload&0x800000)
}

func TestEventSchemeUnusableDegradesToZero(t *testing.T) {
	a := newTestApp(nil)
	a.vars.EventScheme = 1
	a.vars.ShortAddress = 0xFF // scheme 1 needs a short address

	a.degradeSchemeIfUnusableLocked()
	assert.Equal(t, byte(0), a.vars.EventScheme)
}

func TestLowestSetGroupCountsFromOne(t *testing.T) {
	assert.Equal(t, 0, lowestSetGroup(0))
	assert.Equal(t, 1, lowestSetGroup(1))
	assert.Equal(t, 3, lowestSetGroup(1<<2))
	assert.Equal(t, 5, lowestSetGroup(1<<4|1<<7))
}

func TestEventSchemeThreeReportsLowestGroup(t *testing.T) {
	a := newTestApp(nil)
	a.vars.EventScheme = 3
	a.vars.DeviceGroups = 1 << 4 // member of group 5 (1-based)
	a.cfg.InstanceType = 1

	payload, ok := a.eventPayloadLocked()
	require.True(t, ok)
	group := (payload >> 17) & 0x1F
	assert.Equal(t, uint32(5), group)
}

func TestTickFiresOnReportTimeout(t *testing.T) {
	tx := &fakeSender{}
	a := newTestApp(tx)
	a.vars.ApplicationActive = false
	a.vars.InstanceActive = true
	a.vars.EventFilter = 1
	a.vars.TReport = 30
	a.vars.TDeadtime = 0
	a.vars.EventPriority = 4
	a.vars.EventScheme = 0

	a.Tick()
	require.Len(t, tx.sent, 1)
	assert.Equal(t, frame.Forward24, tx.sent[0].Kind)
}

func TestTickGateClosedWhenInstanceInactive(t *testing.T) {
	tx := &fakeSender{}
	a := newTestApp(tx)
	a.vars.InstanceActive = false
	a.vars.EventFilter = 1
	a.vars.TReport = 0

	a.Tick()
	assert.Empty(t, tx.sent)
}

func TestResetVariablesRestoresDefaults(t *testing.T) {
	a := newTestApp(nil)
	a.vars.DeviceGroups = 0xFF
	a.vars.EventScheme = 3

	a.ResetVariables()

	assert.Equal(t, uint32(0), a.vars.DeviceGroups)
	assert.Equal(t, byte(0), a.vars.EventScheme)
	assert.Equal(t, byte(4), a.vars.EventPriority)
}

func TestShortAddress(t *testing.T) {
	a := newTestApp(nil)
	a.vars.ShortAddress = 7
	assert.Equal(t, byte(7), a.ShortAddress())
}
