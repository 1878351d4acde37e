package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"timini-print/internal/device"
)

var ErrNoTarget = errors.New("configure exactly one of a bluetooth target or a serial port")

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Printer PrinterConfig `yaml:"printer"`
	BLE     BLEConfig     `yaml:"ble"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

type PrinterConfig struct {
	// Bluetooth is a BLE name prefix or hardware address; Serial is a
	// port path. Exactly one of the two selects the transport.
	Bluetooth string `yaml:"bluetooth"`
	Serial    string `yaml:"serial"`

	Model   string `yaml:"model"` // optional model override
	Density int    `yaml:"density"`

	// StrictResolve fails an address target that never advertises
	// during the scan window instead of connecting blind.
	StrictResolve bool `yaml:"strict_resolve"`
}

type BLEConfig struct {
	ScanTimeout  time.Duration `yaml:"scan_timeout"`
	PrintTimeout time.Duration `yaml:"print_timeout"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "console" or "json"
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			MaxBodyBytes: 10 * 1024, // enough for any reasonable label text
		},
		Printer: PrinterConfig{
			Density: 10,
		},
		BLE: BLEConfig{
			ScanTimeout:  5 * time.Second,
			PrintTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load layers an optional YAML file and the environment over the
// defaults. A missing file is not an error; a malformed one is.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PRINTER_BLUETOOTH"); v != "" {
		c.Printer.Bluetooth = v
	}
	if v := os.Getenv("PRINTER_SERIAL"); v != "" {
		c.Printer.Serial = v
	}
	if v := os.Getenv("PRINTER_MODEL"); v != "" {
		c.Printer.Model = v
	}
	if v := os.Getenv("PRINT_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PRINT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the transport selection. Exactly one of the
// bluetooth target and the serial path must be set.
func (c *Config) Validate() error {
	if (c.Printer.Bluetooth == "") == (c.Printer.Serial == "") {
		return ErrNoTarget
	}
	return nil
}

// Target builds the process-lifetime TargetSpec, immutable after startup.
func (c *Config) Target() device.TargetSpec {
	if c.Printer.Serial != "" {
		return device.TargetSpec{
			Kind:   device.KindSerial,
			Target: c.Printer.Serial,
			Model:  c.Printer.Model,
		}
	}
	return device.TargetSpec{
		Kind:   device.KindBLE,
		Target: c.Printer.Bluetooth,
		Model:  c.Printer.Model,
	}
}
