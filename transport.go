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

package pn532

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultAddress is the PN532 7-bit I2C slave address.
const DefaultAddress uint16 = 0x24

// statusReady is bit 0 of the status byte the PN532 prepends to every I2C
// read.
const statusReady byte = 0x01

// Transport is raw byte access to an I2C bus. Implementations live in
// transport/i2c (periph.io) and transport/i2cdev (Linux i2c-dev); tests use
// the simulator in internal/testing.
//
// Read returns at most n bytes. For the PN532 the first byte is the status
// byte. A result shorter than n is treated as "not ready", never as a
// partial frame.
type Transport interface {
	Write(addr uint16, data []byte) error
	Read(addr uint16, n int) ([]byte, error)
	Close() error
}

// Named is implemented by transports that can describe the bus they are
// attached to. The name is used in wire traces and logs.
type Named interface {
	String() string
}

func transportName(t Transport) string {
	if n, ok := t.(Named); ok {
		return n.String()
	}
	return "i2c"
}

// ParseBusPath splits a bus path as produced by detection ("/dev/i2c-1:0x24")
// into the bus name and the device address. A bare bus name yields
// DefaultAddress.
func ParseBusPath(path string) (bus string, addr uint16, err error) {
	bus, suffix, found := strings.Cut(path, ":")
	if !found {
		return bus, DefaultAddress, nil
	}
	v, err := strconv.ParseUint(suffix, 0, 7)
	if err != nil {
		return "", 0, fmt.Errorf("%w: I2C address %q: %w", ErrInvalidParameter, suffix, err)
	}
	return bus, uint16(v), nil
}
