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

package detection

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	"github.com/ZaparooProject/go-pn532-i2c/transport/i2cdev"
)

type detectionResult struct {
	err     error
	devices []DeviceInfo
}

// Detect searches the configured buses for PN532 devices. Buses are
// scanned in parallel; a bus that fails does not hide devices found on
// the others.
func Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	candidates := opts.Buses
	if len(candidates) == 0 {
		found, err := FindBuses()
		if err != nil {
			return nil, err
		}
		candidates = found
	}
	buses := make([]string, 0, len(candidates))
	for _, bus := range candidates {
		if !IsPathIgnored(bus, opts.IgnorePaths) {
			buses = append(buses, bus)
		}
	}
	if len(buses) == 0 {
		return nil, ErrNoDevicesFound
	}

	results := make(chan detectionResult, len(buses))
	for _, bus := range buses {
		go func(bus string) {
			results <- detectBus(ctx, bus, opts)
		}(bus)
	}
	return collectDetectionResults(ctx, results, len(buses))
}

// detectBus performs detection for a single bus, consulting the cache first
func detectBus(ctx context.Context, bus string, opts *Options) detectionResult {
	if opts.EnableCache {
		if cached, found := defaultCache.get(bus, opts.CacheTTL); found {
			return detectionResult{devices: filterDevices(cached, opts.IgnorePaths)}
		}
	}

	devices, err := scanBus(ctx, bus, opts)
	if err != nil {
		return detectionResult{err: err}
	}

	if opts.EnableCache {
		if len(devices) > 0 {
			defaultCache.set(bus, devices)
		} else {
			// A stale entry would point consumers at a device that is gone.
			defaultCache.clearBus(bus)
		}
	}
	return detectionResult{devices: devices}
}

func scanBus(ctx context.Context, bus string, opts *Options) ([]DeviceInfo, error) {
	if _, err := os.Stat(bus); err != nil {
		return nil, fmt.Errorf("I2C bus %s: %w", bus, err)
	}

	addrs := opts.Addresses
	if len(addrs) == 0 {
		addrs = []uint16{pn532.DefaultAddress}
	}

	devices := make([]DeviceInfo, 0, len(addrs))
	for _, addr := range addrs {
		if ctx.Err() != nil {
			return devices, ErrDetectionTimeout
		}
		device, skip := createDeviceInfo(ctx, bus, addr, opts)
		if skip {
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}

// createDeviceInfo creates a DeviceInfo for a single address
func createDeviceInfo(ctx context.Context, bus string, addr uint16, opts *Options) (DeviceInfo, bool) {
	devicePath := fmt.Sprintf("%s:0x%02X", bus, addr)
	if IsPathIgnored(devicePath, opts.IgnorePaths) {
		return DeviceInfo{}, true
	}

	device := DeviceInfo{
		Path:    devicePath,
		Bus:     bus,
		Address: addr,
		Name:    fmt.Sprintf("PN532 on %s address 0x%02X", bus, addr),
		Metadata: map[string]string{
			"bus":     bus,
			"address": fmt.Sprintf("0x%02X", addr),
		},
		Confidence: Low,
	}
	if addr == pn532.DefaultAddress {
		device.Confidence = Medium
	}

	if opts.Mode == Passive {
		// Without probing only the default address is worth reporting
		return device, addr != pn532.DefaultAddress
	}

	fw, err := probe(ctx, devicePath, opts)
	if err != nil {
		if device.Confidence == Low {
			return DeviceInfo{}, true
		}
		device.Metadata["probe_error"] = err.Error()
		return device, false
	}

	device.Confidence = High
	device.Firmware = fw
	device.Metadata["firmware"] = fw.String()
	return device, false
}

// probe opens a controller on path and asks for its firmware version. Full
// mode also runs Setup.
func probe(ctx context.Context, path string, opts *Options) (pn532.FirmwareVersion, error) {
	opener := opts.Opener
	if opener == nil {
		opener = func(p string) (*pn532.Controller, error) { return i2cdev.Open(p) }
	}

	if opts.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ProbeTimeout)
		defer cancel()
	}

	ctrl, err := opener(path)
	if err != nil {
		return pn532.FirmwareVersion{}, err
	}
	defer func() { _ = ctrl.Close() }()

	fw, err := ctrl.FirmwareVersion(ctx)
	if err != nil {
		return pn532.FirmwareVersion{}, err
	}
	if opts.Mode == Full {
		if err := ctrl.Setup(ctx); err != nil {
			return fw, err
		}
	}
	return fw, nil
}

// collectDetectionResults gathers results from all bus goroutines
func collectDetectionResults(
	ctx context.Context,
	results chan detectionResult,
	numBuses int,
) ([]DeviceInfo, error) {
	var allDevices []DeviceInfo
	var errs []error

	for range numBuses {
		select {
		case res := <-results:
			if res.err != nil {
				errs = append(errs, res.err)
			} else {
				allDevices = append(allDevices, res.devices...)
			}
		case <-ctx.Done():
			return nil, ErrDetectionTimeout
		}
	}

	if len(allDevices) > 0 {
		slices.SortFunc(allDevices, func(a, b DeviceInfo) int { return strings.Compare(a.Path, b.Path) })
		return allDevices, nil
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, ErrNoDevicesFound
}
