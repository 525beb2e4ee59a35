// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the pn532 command's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
)

const (
	appName    = "pn532"
	configFile = "config.yaml"

	// BackendPeriph selects transport/i2c.
	BackendPeriph = "periph"
	// BackendI2CDev selects transport/i2cdev.
	BackendI2CDev = "i2cdev"

	currentVersion = 1
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the on-disk configuration. Zero fields take their Default
// value when loaded.
type Config struct {
	// Bus is the I2C bus, optionally with an address suffix
	// ("/dev/i2c-1:0x24"). Empty means auto-detect.
	Bus          string   `yaml:"bus"`
	Backend      string   `yaml:"backend"`
	LogLevel     string   `yaml:"log_level"`
	AckTimeout   Duration `yaml:"ack_timeout"`
	ListTimeout  Duration `yaml:"list_timeout"`
	PollInterval Duration `yaml:"poll_interval"`
	Version      int      `yaml:"version"`
	Address      uint16   `yaml:"address"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:      currentVersion,
		Backend:      BackendPeriph,
		Address:      pn532.DefaultAddress,
		AckTimeout:   Duration(pn532.DefaultAckTimeout),
		ListTimeout:  Duration(pn532.DefaultListTimeout),
		PollInterval: Duration(250 * time.Millisecond),
		LogLevel:     "",
	}
}

// Dir returns $XDG_CONFIG_HOME/pn532, falling back to $HOME/.config/pn532.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the full path to the configuration file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration at path. An empty path means DefaultPath, and
// a missing default file yields Default(). A missing explicit path is an
// error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Version != currentVersion {
		return fmt.Errorf("%w: unsupported config version %d (expected %d)", ErrInvalid, c.Version, currentVersion)
	}
	switch c.Backend {
	case BackendPeriph, BackendI2CDev:
	default:
		return fmt.Errorf("%w: backend %q (want %q or %q)", ErrInvalid, c.Backend, BackendPeriph, BackendI2CDev)
	}
	if c.Address < 0x08 || c.Address > 0x77 {
		return fmt.Errorf("%w: address 0x%02X outside 0x08-0x77", ErrInvalid, c.Address)
	}
	for name, d := range map[string]Duration{
		"ack_timeout":   c.AckTimeout,
		"list_timeout":  c.ListTimeout,
		"poll_interval": c.PollInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, name, d)
		}
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// BusPath returns Bus with Address applied unless Bus already names one.
func (c *Config) BusPath() (string, error) {
	if c.Bus == "" {
		return "", nil
	}
	bus, addr, err := pn532.ParseBusPath(c.Bus)
	if err != nil {
		return "", err
	}
	if bus == c.Bus {
		addr = c.Address
	}
	return fmt.Sprintf("%s:0x%02X", bus, addr), nil
}

// Save writes the configuration to path atomically.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append([]byte("# pn532 configuration\n\n"), data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}
