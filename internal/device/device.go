// Package device wires the C1-C8 collaborators together into the running
// daemon: line driver, timers, codec, queues, link state machine, cable
// monitor, application layer, and memory-bank store, plus the persistence
// glue the simulation needs in place of real flash. Grounded on the
// teacher's main TNC struct that owns one audio channel's full stack
// (modem, HDLC, dispatcher), generalised to DALI-2's single-bus stack.
package device

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/samoyed-dali/dali-link/internal/app"
	"github.com/samoyed-dali/dali-link/internal/cable"
	"github.com/samoyed-dali/dali-link/internal/config"
	"github.com/samoyed-dali/dali-link/internal/frame"
	"github.com/samoyed-dali/dali-link/internal/line"
	"github.com/samoyed-dali/dali-link/internal/lsm"
	"github.com/samoyed-dali/dali-link/internal/membank"
)

// System owns the full stack for one DALI-2 control-device instance.
type System struct {
	cfg    config.Config
	Line   line.Driver
	LSM    *lsm.LSM
	Mem    *membank.Store
	App    *app.App
	Cable  *cable.Monitor
	log    *log.Logger
	flash  *membank.FlatFileFlash
	save   *fileVariablesPersister
}

// New builds a System from cfg, opening (or creating) its line driver,
// memory-bank flash shadow file, and persisted variables file.
func New(cfg config.Config, seed uint64) (*System, error) {
	drv, err := newLineDriver(cfg)
	if err != nil {
		return nil, fmt.Errorf("device: line driver: %w", err)
	}

	l := lsm.New(drv, seed)

	flash, err := membank.OpenFlatFileFlash(cfg.MemberBankFile)
	if err != nil {
		return nil, fmt.Errorf("device: open membank file: %w", err)
	}

	mem := membank.New(cfg.Identity.GTIN, cfg.Identity.SerialID,
		cfg.Identity.FirmwareMajor, cfg.Identity.FirmwareMinor,
		cfg.Identity.HardwareMajor, cfg.Identity.HardwareMinor,
		0, 1, 0, flash)
	flash.ReplayInto(mem)

	save := &fileVariablesPersister{path: cfg.VariablesFile}
	vars := save.load()

	sender := &lsmSender{l: l}
	application := app.New(cfg.AppDeviceConfig(), vars, mem, sender, save, seed)

	return &System{
		cfg:   cfg,
		Line:  drv,
		LSM:   l,
		Mem:   mem,
		App:   application,
		Cable: cable.New(),
		log:   log.With("component", "device"),
		flash: flash,
		save:  save,
	}, nil
}

// Close releases the line driver's hardware handles.
func (s *System) Close() error {
	return s.Line.Close()
}

// PumpRx drains every available RX record into the application layer. Call
// this from the main loop whenever the LSM's RX-ready callback fires (or on
// a coarse poll interval).
func (s *System) PumpRx() {
	for s.LSM.DataAvailable() {
		rec, ok := s.LSM.Receive()
		if !ok {
			return
		}
		s.App.ProcessFrame(rec)
	}
}

// SampleCable feeds one RX-line reading into the cable monitor; call at
// ~1kHz.
func (s *System) SampleCable() {
	s.Cable.Sample(s.Line.ReadRX())
}

// lsmSender adapts *lsm.LSM to app.Sender.
type lsmSender struct {
	l *lsm.LSM
}

func (s *lsmSender) Send(req frame.TxRequest) error { return s.l.Send(req) }
func (s *lsmSender) ExpectSendTwice()                { s.l.ExpectSendTwice() }

// fileVariablesPersister stores app.Variables as YAML, reusing the
// dependency already wired for device configuration rather than inventing
// a second serialisation format for a second small struct.
type fileVariablesPersister struct {
	path string
}

func (p *fileVariablesPersister) SaveVariables(v app.Variables) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o600)
}

func (p *fileVariablesPersister) load() app.Variables {
	var v app.Variables
	data, err := os.ReadFile(p.path)
	if err != nil {
		return v
	}
	_ = yaml.Unmarshal(data, &v)
	return v
}
