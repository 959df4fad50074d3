//go:build linux

package device

import (
	"github.com/samoyed-dali/dali-link/internal/config"
	"github.com/samoyed-dali/dali-link/internal/line"
)

func newLineDriver(cfg config.Config) (line.Driver, error) {
	if cfg.Simulated {
		return line.NewSimulated(), nil
	}
	return line.NewGPIODriver(cfg.GPIO.Chip, cfg.GPIO.TXOffset, cfg.GPIO.RXOffset)
}
