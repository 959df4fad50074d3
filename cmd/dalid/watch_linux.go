//go:build linux

package main

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/samoyed-dali/dali-link/internal/cable"
)

func startAdapterWatch(ctx context.Context, mon *cable.Monitor, subsystem string) {
	if err := mon.WatchAdapter(ctx, subsystem); err != nil {
		log.Warn("udev adapter watch unavailable", "err", err)
	}
}
