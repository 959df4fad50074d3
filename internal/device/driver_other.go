//go:build !linux

package device

import (
	"fmt"

	"github.com/samoyed-dali/dali-link/internal/config"
	"github.com/samoyed-dali/dali-link/internal/line"
)

func newLineDriver(cfg config.Config) (line.Driver, error) {
	if !cfg.Simulated {
		return nil, fmt.Errorf("device: real GPIO line driver is only available on linux")
	}
	return line.NewSimulated(), nil
}
