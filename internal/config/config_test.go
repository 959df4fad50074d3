package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathReturnsDefault(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.yaml")
	contents := "identity:\n  firmware_major: 2\n  firmware_minor: 1\ninstance:\n  type: 3\n  resolution: 10\n  number: 0\ngpio:\n  chip: gpiochip1\n  tx_offset: 5\n  rx_offset: 6\nsimulated: false\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(2), cfg.Identity.FirmwareMajor)
	assert.Equal(t, "gpiochip1", cfg.GPIO.Chip)
	assert.Equal(t, 5, cfg.GPIO.TXOffset)
	assert.False(t, cfg.Simulated)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestFlagOverridesWinOverYAML(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--chip=gpiochip9", "--simulated=true"}))

	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gpio:\n  chip: gpiochip1\nsimulated: false\n"), 0o600))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "gpiochip9", cfg.GPIO.Chip)
	assert.True(t, cfg.Simulated)
}

func TestAppDeviceConfigCarriesInstanceFields(t *testing.T) {
	cfg := Config{Instance: Instance{Type: 3, Resolution: 10, Number: 2}}
	dc := cfg.AppDeviceConfig()
	assert.Equal(t, byte(3), dc.InstanceType)
	assert.Equal(t, byte(10), dc.Resolution)
	assert.Equal(t, byte(2), dc.InstanceNumber)
	assert.Equal(t, uint16(1), dc.NumberOfInstances)
}
