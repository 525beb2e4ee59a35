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

// Package i2cdev provides a PN532 transport on the Linux i2c-dev interface
// (/dev/i2c-N) without the periph.io host drivers.
package i2cdev

import (
	"errors"
	"strings"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
)

// ErrUnsupportedPlatform is returned by New on systems without i2c-dev.
var ErrUnsupportedPlatform = errors.New("i2c-dev is only available on Linux")

var _ pn532.Transport = (*Transport)(nil)

// DevicePath maps a bus name to its i2c-dev node. "1" and "i2c-1" both
// become "/dev/i2c-1"; anything containing a slash is returned unchanged.
func DevicePath(bus string) string {
	if strings.Contains(bus, "/") {
		return bus
	}
	return "/dev/i2c-" + strings.TrimPrefix(bus, "i2c-")
}

// Open opens bus and returns a controller on it. bus may carry an address
// suffix as produced by detection ("/dev/i2c-1:0x24").
func Open(bus string, opts ...pn532.Option) (*pn532.Controller, error) {
	name, addr, err := pn532.ParseBusPath(bus)
	if err != nil {
		return nil, err
	}
	t, err := New(name)
	if err != nil {
		return nil, err
	}
	opts = append([]pn532.Option{pn532.WithChannel(pn532.WithAddress(addr))}, opts...)
	ctrl, err := pn532.New(t, opts...)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return ctrl, nil
}
