// Package app implements the C7 application layer: opcode dispatch,
// addressing, the random-address initialisation dance, DTR registers,
// event generation, and the input-device hysteresis dispatcher, per spec
// §4.7. Grounded on the teacher's deviceid.go (identity/addressing state)
// and ptt.go (cooperative polling loop shape), generalised from AX.25
// station addressing to DALI short/group/broadcast addressing.
package app

import (
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/samoyed-dali/dali-link/internal/frame"
	"github.com/samoyed-dali/dali-link/internal/membank"
)

// DeviceConfig holds the manufacturing-time constants the original firmware
// compiled in (instance type/resolution/number, controller capability
// flags). These never change at runtime.
type DeviceConfig struct {
	InstanceType                   byte
	Resolution                     byte
	InstanceNumber                 byte
	NumberOfInstances               uint16
	ControllerPresent               bool
	ControllerAlwaysActive          bool
	VersionNumber                    uint16 // e.g. 0x0201 for "2.1"
	ExtendedVersionNumber            uint16
}

// Variables is the persistent (NVM-shadowed) device and instance state, laid
// out to mirror the original firmware's deviceGroups/randomAddress/... bank
// one field at a time (spec §6's variables page). Persistence is delegated
// to a membank.Store by the device layer; App only mutates the in-memory
// copy and calls Persist.
type Variables struct {
	DeviceGroups        uint32
	RandomAddress        uint32
	ShortAddress         byte // 0xFF == unaddressed
	OperatingMode        byte
	ApplicationActive    bool
	PowerCycleNotif      bool
	EventPriority        byte // 2..5

	InstanceGroup0 byte
	InstanceGroup1 byte
	InstanceGroup2 byte
	InstanceActive bool
	EventFilter    uint16
	EventScheme    byte

	TReport       uint16
	TDeadtime     uint16
	HysteresisMin uint32
	Hysteresis    uint32
}

// Persister commits Variables to non-volatile storage. The device layer
// implements this over a membank.Store-backed page, matching the original
// firmware's DALI_Save_Variable.
type Persister interface {
	SaveVariables(Variables) error
}

// Sender transmits a back-frame or forward-frame reply; the device layer
// wires this to the lsm.LSM.
type Sender interface {
	Send(frame.TxRequest) error
	ExpectSendTwice()
}

// App is the C7 collaborator: the live state machine an addressed command
// frame is dispatched against.
type App struct {
	mu sync.Mutex

	cfg  DeviceConfig
	vars Variables
	mem  *membank.Store
	tx   Sender
	save Persister
	log  *log.Logger
	rng  *rand.Rand

	DTR0, DTR1, DTR2 byte

	quiescentMode   bool
	writeEnableOn   bool
	powerCycleSeen  bool
	resetState      bool
	appControllerErr bool
	inputDeviceErr   bool

	searchAddress  uint32
	initState      InitState
	previousFrame  uint32
	previousValid  bool

	inputValue        uint16
	instanceError     bool
	hysteresisHigh    uint32
	hysteresisLow     uint32
	reportTicks       uint16
	deadTicks         uint16
}

// New builds an App around the given device configuration, persisted
// variables (loaded by the device layer at boot), memory-bank store, bus
// sender, and a seed for the RANDOMISE search-address PRNG.
func New(cfg DeviceConfig, vars Variables, mem *membank.Store, tx Sender, save Persister, seed uint64) *App {
	return &App{
		cfg:           cfg,
		vars:          vars,
		mem:           mem,
		tx:            tx,
		save:          save,
		log:           log.With("component", "app"),
		rng:           rand.New(rand.NewSource(int64(seed))),
		searchAddress: 0xFFFFFF,
		resetState:    true,
	}
}

// ResetVariables restores factory-default runtime variables, mirroring
// DALI_Reset_Variables. applicationActive preserves the caller's current
// value, matching the original's conditional eventFilter default.
func (a *App) ResetVariables() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetVariablesLocked()
}

func (a *App) resetVariablesLocked() {
	a.vars.DeviceGroups = 0
	a.searchAddress = 0xFFFFFF
	a.vars.RandomAddress = 0xFFFFFF
	a.quiescentMode = false
	a.writeEnableOn = false
	a.powerCycleSeen = false
	a.resetState = true
	a.vars.InstanceGroup0 = 0xFF
	a.vars.InstanceGroup1 = 0xFF
	a.vars.InstanceGroup2 = 0xFF
	a.vars.EventPriority = 4
	a.vars.EventScheme = 0

	if a.vars.ApplicationActive {
		a.vars.EventFilter = 0xFFFF
	} else {
		a.vars.EventFilter = 1
		a.vars.TReport = 30
		a.vars.TDeadtime = 30
		a.vars.Hysteresis = 5
		a.vars.HysteresisMin = hysteresisMinForResolution(a.cfg.Resolution)
	}
	a.persistLocked()
}

// hysteresisMinForResolution reproduces the original firmware's
// resolution-to-minimum-hysteresis lookup (dali_application.c,
// DALI_Reset_Variables); resolution is bits of ADC precision.
func hysteresisMinForResolution(resolution byte) uint32 {
	switch {
	case resolution <= 6:
		return 0
	case resolution == 7:
		return 1
	case resolution == 8:
		return 2
	case resolution == 9:
		return 5
	case resolution == 10:
		return 10
	case resolution == 11:
		return 20
	case resolution == 12:
		return 40
	case resolution == 13:
		return 81
	case resolution == 14:
		return 163
	default:
		return 255
	}
}

func (a *App) persistLocked() {
	if a.save == nil {
		return
	}
	if err := a.save.SaveVariables(a.vars); err != nil {
		a.log.Error("failed to persist variables", "err", err)
	}
}

// ShortAddress reports the device's current short address (0xFF if
// unaddressed).
func (a *App) ShortAddress() byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vars.ShortAddress
}
