// Package config loads the daemon's device identity, GPIO wiring, and
// instance parameters from a YAML file plus command-line overrides,
// matching the way the rest of the pack layers pflag over a YAML/struct
// config rather than the teacher's own hand-rolled text format.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/samoyed-dali/dali-link/internal/app"
)

// Identity is the bank-0 identity block a manufacturer bakes in at build
// time: GTIN, serial number, and hardware/firmware versions.
type Identity struct {
	GTIN               [6]byte `yaml:"gtin"`
	SerialID           [8]byte `yaml:"serial_id"`
	FirmwareMajor      byte    `yaml:"firmware_major"`
	FirmwareMinor      byte    `yaml:"firmware_minor"`
	HardwareMajor      byte    `yaml:"hardware_major"`
	HardwareMinor      byte    `yaml:"hardware_minor"`
}

// Instance describes the single input-device instance this daemon exposes.
type Instance struct {
	Type       byte `yaml:"type"`
	Resolution byte `yaml:"resolution"`
	Number     byte `yaml:"number"`
}

// GPIO names the chip and line offsets the line driver binds to.
type GPIO struct {
	Chip      string `yaml:"chip"`
	TXOffset  int    `yaml:"tx_offset"`
	RXOffset  int    `yaml:"rx_offset"`
}

// Config is the full daemon configuration, loaded from YAML and
// selectively overridden by flags.
type Config struct {
	Identity          Identity `yaml:"identity"`
	Instance          Instance `yaml:"instance"`
	GPIO              GPIO     `yaml:"gpio"`
	Simulated         bool     `yaml:"simulated"`
	USBSubsystem      string   `yaml:"usb_subsystem"`
	MemberBankFile    string   `yaml:"membank_file"`
	VariablesFile     string   `yaml:"variables_file"`
}

// AppDeviceConfig converts the loaded config into the app package's
// DeviceConfig, applying the fixed DALI-2 control-device capability and
// version constants.
func (c Config) AppDeviceConfig() app.DeviceConfig {
	return app.DeviceConfig{
		InstanceType:           c.Instance.Type,
		Resolution:             c.Instance.Resolution,
		InstanceNumber:         c.Instance.Number,
		NumberOfInstances:      1,
		ControllerPresent:      false,
		ControllerAlwaysActive: false,
		VersionNumber:          0x0201,
		ExtendedVersionNumber:  0x0200,
	}
}

// Default returns a configuration usable out of the box against the
// in-memory simulated line driver, for tests and for the tools that don't
// need real hardware.
func Default() Config {
	return Config{
		Instance:       Instance{Type: 3, Resolution: 10, Number: 0},
		GPIO:           GPIO{Chip: "gpiochip0", TXOffset: 17, RXOffset: 27},
		Simulated:      true,
		USBSubsystem:   "usb",
		MemberBankFile: "membank.bin",
		VariablesFile:  "variables.bin",
	}
}

// Load reads a YAML config file at path, then applies flag overrides
// registered on fs (already parsed by the caller).
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if fs != nil {
		if fs.Changed("chip") {
			cfg.GPIO.Chip, _ = fs.GetString("chip")
		}
		if fs.Changed("tx-offset") {
			cfg.GPIO.TXOffset, _ = fs.GetInt("tx-offset")
		}
		if fs.Changed("rx-offset") {
			cfg.GPIO.RXOffset, _ = fs.GetInt("rx-offset")
		}
		if fs.Changed("simulated") {
			cfg.Simulated, _ = fs.GetBool("simulated")
		}
	}

	return cfg, nil
}

// RegisterFlags adds the CLI overrides Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("chip", "gpiochip0", "gpiocdev chip name for the DALI line pair")
	fs.Int("tx-offset", 17, "GPIO line offset driving the DALI bus")
	fs.Int("rx-offset", 27, "GPIO line offset sampling the DALI bus")
	fs.Bool("simulated", false, "use the in-memory simulated line driver instead of real GPIO")
}
