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

// Package i2c provides the periph.io I2C transport for PN532
package i2c

import (
	"fmt"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	"github.com/ZaparooProject/go-pn532-i2c/internal/syncutil"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultSpeed is the PN532's maximum I2C clock.
const DefaultSpeed = 400 * physic.KiloHertz

// Transport implements pn532.Transport on a periph.io I2C bus.
type Transport struct {
	bus     i2c.Bus
	closer  i2c.BusCloser // nil when the bus is owned by the caller
	busName string
	mu      syncutil.Mutex
	closed  bool
}

// TransportOption configures New.
type TransportOption func(*transportConfig)

type transportConfig struct {
	speed physic.Frequency
}

// WithSpeed sets the bus clock. Adapters that cannot change speed keep
// their default.
func WithSpeed(f physic.Frequency) TransportOption {
	return func(c *transportConfig) { c.speed = f }
}

// New initializes the periph host drivers and opens busName, which may be
// "/dev/i2c-1", "1", "I2C1" or a detection path with an address suffix.
func New(busName string, opts ...TransportOption) (*Transport, error) {
	cfg := transportConfig{speed: DefaultSpeed}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	name, _, err := pn532.ParseBusPath(busName)
	if err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Ignore error, continue with default speed
	_ = bus.SetSpeed(cfg.speed)

	return &Transport{bus: bus, closer: bus, busName: name}, nil
}

// NewFromBus wraps an already opened bus. Close does not close it.
func NewFromBus(bus i2c.Bus) *Transport {
	return &Transport{bus: bus, busName: bus.String()}
}

// Open opens busName and returns a controller on it. An address suffix in
// busName overrides the default PN532 address.
func Open(busName string, opts ...pn532.Option) (*pn532.Controller, error) {
	_, addr, err := pn532.ParseBusPath(busName)
	if err != nil {
		return nil, err
	}
	t, err := New(busName)
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

// Write sends data to addr in a single write transaction.
func (t *Transport) Write(addr uint16, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pn532.ErrTransportClosed
	}
	if err := t.bus.Tx(addr, data, nil); err != nil {
		return fmt.Errorf("I2C write failed: %w", err)
	}
	return nil
}

// Read performs a single n-byte read transaction from addr. For the PN532
// the first byte is the status byte.
func (t *Transport) Read(addr uint16, n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, pn532.ErrTransportClosed
	}
	buf := make([]byte, n)
	if err := t.bus.Tx(addr, nil, buf); err != nil {
		return nil, fmt.Errorf("I2C read failed: %w", err)
	}
	return buf, nil
}

// Close releases the bus if New opened it.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.closer == nil {
		return nil
	}
	if err := t.closer.Close(); err != nil {
		return fmt.Errorf("failed to close I2C bus: %w", err)
	}
	return nil
}

// String returns the bus name.
func (t *Transport) String() string {
	return t.busName
}
