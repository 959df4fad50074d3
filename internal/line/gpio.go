//go:build linux

package line

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/warthog618/go-gpiocdev"
)

// GPIODriver drives the DALI bus via two GPIO lines on a Linux gpiochip:
// one output (through an open-drain driver transistor) for TX, one input
// with edge detection for RX. Grounded on the teacher's ptt.go GPIO PTT
// backend, generalised from "key the transmitter" to "drive a bus wire".
type GPIODriver struct {
	chip string
	txOffset, rxOffset int

	mu     sync.Mutex
	txLine *gpiocdev.Line
	rxLine *gpiocdev.Line

	lastTX int32 // atomic Level, as int32 for CAS-free idempotency check
	handler atomic.Pointer[EdgeHandler]

	log *log.Logger
}

// NewGPIODriver requests the TX and RX lines from chip and wires RX edge
// detection to the driver's internal dispatch. TX idles HI (line released)
// on open.
func NewGPIODriver(chip string, txOffset, rxOffset int) (*GPIODriver, error) {
	d := &GPIODriver{
		chip:     chip,
		txOffset: txOffset,
		rxOffset: rxOffset,
		log:      log.With("component", "line", "chip", chip),
	}
	atomic.StoreInt32(&d.lastTX, 1)

	tx, err := gpiocdev.RequestLine(chip, txOffset,
		gpiocdev.AsOutput(1), gpiocdev.WithConsumer("dali-tx"))
	if err != nil {
		return nil, fmt.Errorf("line: request tx offset %d: %w", txOffset, err)
	}
	d.txLine = tx

	rx, err := gpiocdev.RequestLine(chip, rxOffset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(d.onGPIOEvent),
		gpiocdev.WithConsumer("dali-rx"))
	if err != nil {
		tx.Close()
		return nil, fmt.Errorf("line: request rx offset %d: %w", rxOffset, err)
	}
	d.rxLine = rx

	return d, nil
}

func (d *GPIODriver) onGPIOEvent(evt gpiocdev.LineEvent) {
	h := d.handler.Load()
	if h == nil {
		return
	}
	var lvl Level
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		lvl = HI
	case gpiocdev.LineEventFallingEdge:
		lvl = LO
	default:
		return
	}
	(*h)(lvl)
}

func (d *GPIODriver) SetTX(level Level) {
	want := int32(0)
	if level == HI {
		want = 1
	}
	if atomic.SwapInt32(&d.lastTX, want) == want {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.txLine.SetValue(int(want)); err != nil {
		d.log.Error("set tx line failed", "level", level, "err", err)
	}
}

func (d *GPIODriver) ReadRX() Level {
	v, err := d.rxLine.Value()
	if err != nil {
		d.log.Error("read rx line failed", "err", err)
		return HI
	}
	if v != 0 {
		return HI
	}
	return LO
}

func (d *GPIODriver) OnEdge(h EdgeHandler) {
	d.handler.Store(&h)
}

func (d *GPIODriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err1 := d.txLine.Close()
	err2 := d.rxLine.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
