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

//go:build linux

package detection

import (
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"
)

const (
	// ioctlFuncs reports the adapter functionality bitmap
	ioctlFuncs = 0x0705
	// funcI2C indicates plain I2C support
	funcI2C = 0x00000001
)

// FindBuses returns the /dev/i2c-* nodes whose adapter supports plain I2C
// transfers. Nodes that cannot be opened are skipped.
func FindBuses() ([]string, error) {
	matches, err := filepath.Glob("/dev/i2c-*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for I2C devices: %w", err)
	}
	sort.Strings(matches)

	buses := make([]string, 0, len(matches))
	for _, path := range matches {
		var busNum int
		if _, err := fmt.Sscanf(filepath.Base(path), "i2c-%d", &busNum); err != nil {
			continue
		}
		if supportsI2C(path) {
			buses = append(buses, path)
		}
	}
	return buses, nil
}

func supportsI2C(path string) bool {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return false
	}
	defer func() { _ = unix.Close(fd) }()

	funcs, err := unix.IoctlGetUint32(fd, ioctlFuncs)
	if err != nil {
		return false
	}
	return funcs&funcI2C != 0
}
