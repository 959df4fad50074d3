//go:build !linux

package main

import (
	"context"

	"github.com/samoyed-dali/dali-link/internal/cable"
)

func startAdapterWatch(_ context.Context, _ *cable.Monitor, _ string) {}
