// Command dalid runs the DALI-2 control-device daemon: it wires the line
// driver, link state machine, application layer, and memory-bank store
// together and drives the cooperative main loop, generalised from the
// teacher's direwolf daemon entry point to a single always-on bus device.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/samoyed-dali/dali-link/internal/cable"
	"github.com/samoyed-dali/dali-link/internal/config"
	"github.com/samoyed-dali/dali-link/internal/device"
)

func main() {
	fs := pflag.NewFlagSet("dalid", pflag.ExitOnError)
	config.RegisterFlags(fs)
	configPath := fs.String("config", "", "path to a YAML device config file")
	seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "PRNG seed for collision backoff and RANDOMISE")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		log.Fatal("config load failed", "err", err)
	}

	sys, err := device.New(cfg, *seed)
	if err != nil {
		log.Fatal("device init failed", "err", err)
	}
	defer sys.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.USBSubsystem != "" {
		watchAdapter(ctx, sys.Cable, cfg.USBSubsystem)
	}

	sys.LSM.OnRxReady(func() { sys.PumpRx() })

	log.Info("dalid running", "short_address", sys.App.ShortAddress())

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			sys.SampleCable()
			sys.PumpRx()
			sys.App.Tick()
		}
	}
}

// watchAdapter is split out so non-Linux builds (no go-udev hotplug
// support) still compile; see watch_*.go.
func watchAdapter(ctx context.Context, mon *cable.Monitor, subsystem string) {
	startAdapterWatch(ctx, mon, subsystem)
}
