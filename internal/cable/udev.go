//go:build linux

package cable

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
)

// WatchAdapter subscribes to udev add/remove events for the USB-to-DALI
// bus adapter, filtered only by the udev subsystem supplied by config (any
// device removed from that subsystem counts), and folds a hot-unplug
// into the same disconnected flag the 1kHz sampler maintains. Either
// signal source can mark the bus down; only a fresh HI sample clears it.
// Grounded on the teacher's go-udev dependency, generalised from USB
// sound-card/serial-adapter hotplug detection to a USB DALI transceiver.
func (m *Monitor) WatchAdapter(ctx context.Context, subsystem string) error {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem(subsystem); err != nil {
		return err
	}

	events, cancel, err := mon.DeviceChan(ctx)
	if err != nil {
		return err
	}

	l := log.With("component", "cable-udev", "subsystem", subsystem)

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case dev, ok := <-events:
				if !ok {
					return
				}
				switch dev.Action() {
				case "remove":
					l.Warn("adapter removed, forcing cable disconnected", "syspath", dev.Syspath())
					m.ForceDisconnected()
				case "add":
					l.Info("adapter present", "syspath", dev.Syspath())
				}
			}
		}
	}()

	return nil
}
