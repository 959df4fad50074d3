// Command dali-monitor attaches to a DALI bus (real GPIO or a simulated
// driver for demos) and streams a human-readable trace of every frame and
// bus-health transition to a pseudo-terminal, so it can be tailed with any
// terminal program the way a serial sniffer would be. Grounded on the
// teacher's use of a pty-backed trace channel for its own KISS/AGW
// debugging output.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/samoyed-dali/dali-link/internal/config"
	"github.com/samoyed-dali/dali-link/internal/device"
	"github.com/samoyed-dali/dali-link/internal/frame"
)

func main() {
	fs := pflag.NewFlagSet("dali-monitor", pflag.ExitOnError)
	config.RegisterFlags(fs)
	configPath := fs.String("config", "", "path to a YAML device config file")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		log.Fatal("config load failed", "err", err)
	}

	sys, err := device.New(cfg, uint64(time.Now().UnixNano()))
	if err != nil {
		log.Fatal("device init failed", "err", err)
	}
	defer sys.Close()

	master, slave, err := pty.Open()
	if err != nil {
		log.Fatal("pty open failed", "err", err)
	}
	defer master.Close()
	fmt.Fprintf(os.Stderr, "trace available at %s\n", slave.Name())

	ts, err := strftime.New("%Y-%m-%d %H:%M:%S.%f")
	if err != nil {
		log.Fatal("strftime format failed", "err", err)
	}

	sys.LSM.OnRxReady(func() {
		for sys.LSM.DataAvailable() {
			rec, ok := sys.LSM.Receive()
			if !ok {
				return
			}
			writeTraceLine(master, ts, rec)
		}
	})

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	wasDisconnected := sys.Cable.Disconnected()
	for range ticker.C {
		sys.SampleCable()
		if down := sys.Cable.Disconnected(); down != wasDisconnected {
			wasDisconnected = down
			fmt.Fprintf(master, "%s  CABLE disconnected=%t\n", ts.FormatString(time.Now()), down)
		}
	}
}

func writeTraceLine(w *os.File, ts *strftime.Strftime, rec frame.RxRecord) {
	stamp := ts.FormatString(time.Now())
	if rec.Error != frame.ErrNone {
		fmt.Fprintf(w, "%s  ERROR %s\n", stamp, rec.Error)
		return
	}
	fmt.Fprintf(w, "%s  %-10s %0*X\n", stamp, rec.Kind, rec.Kind.Bits()/4, rec.Payload)
}
