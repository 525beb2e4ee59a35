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

// Package detection finds PN532 controllers attached to the host's I2C
// buses.
package detection

import (
	"errors"
	"fmt"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
)

// Mode represents the level of invasiveness for device detection
type Mode int

const (
	// Passive mode only checks that the bus node exists, with no bus traffic
	Passive Mode = iota
	// Safe mode performs minimal probing with GetFirmwareVersion
	Safe
	// Full mode also runs Setup on the probed controller
	Full
)

func (m Mode) String() string {
	switch m {
	case Passive:
		return "passive"
	case Safe:
		return "safe"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{Passive, Safe, Full} {
		if m.String() == s {
			return m, nil
		}
	}
	return Passive, fmt.Errorf("unknown detection mode %q", s)
}

// Confidence represents the confidence level of device detection
type Confidence int

const (
	// Low confidence - something answered at a non-default address
	Low Confidence = iota
	// Medium confidence - the bus exists and the default address is assumed
	Medium
	// High confidence - the device answered GetFirmwareVersion
	High
)

func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// DeviceInfo represents a detected PN532 device
type DeviceInfo struct {
	// Probe results, e.g. "firmware" or "probe_error"
	Metadata map[string]string
	// Connection path with address suffix, e.g. "/dev/i2c-1:0x24"
	Path string
	// Bus node, e.g. "/dev/i2c-1"
	Bus string
	// Human-readable device name
	Name string
	// Firmware reported by the probe, zero in passive mode
	Firmware pn532.FirmwareVersion
	// 7-bit I2C address
	Address uint16
	// Detection confidence level
	Confidence Confidence
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	return fmt.Sprintf("i2c device at %s (confidence: %s)", d.Path, d.Confidence)
}

// Opener opens a controller on a detection path such as "/dev/i2c-1:0x24".
type Opener func(path string) (*pn532.Controller, error)

// Options configures the detection behavior
type Options struct {
	// Opens controllers for probing; nil uses transport/i2cdev
	Opener Opener
	// Bus nodes to scan (empty = every /dev/i2c-* node)
	Buses []string
	// Device paths to explicitly ignore (e.g., ["/dev/i2c-1:0x24"])
	IgnorePaths []string
	// Addresses to probe on each bus (empty = pn532.DefaultAddress)
	Addresses []uint16
	// Cache TTL duration
	CacheTTL time.Duration
	// Maximum time to wait for detection
	Timeout time.Duration
	// Per-device probe bound
	ProbeTimeout time.Duration
	// Detection invasiveness level
	Mode Mode
	// Enable result caching
	EnableCache bool
}

// DefaultOptions returns sensible default detection options
func DefaultOptions() Options {
	return Options{
		Mode:         Safe,
		Timeout:      5 * time.Second,
		ProbeTimeout: time.Second,
		EnableCache:  true,
		CacheTTL:     30 * time.Second,
	}
}

// Errors
var (
	// ErrNoDevicesFound indicates no PN532 devices were detected
	ErrNoDevicesFound = errors.New("no PN532 devices found")
	// ErrDetectionTimeout indicates detection timed out
	ErrDetectionTimeout = errors.New("detection timeout")
	// ErrUnsupportedPlatform indicates the platform has no i2c-dev nodes
	ErrUnsupportedPlatform = errors.New("platform not supported")
)
