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

package i2cdev

import (
	"errors"
	"fmt"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	"github.com/ZaparooProject/go-pn532-i2c/internal/syncutil"
	"golang.org/x/sys/unix"
)

const (
	// ioctlSlave selects the slave address for subsequent read/write calls.
	ioctlSlave = 0x0703
	// ioctlFuncs reports the adapter functionality bitmap.
	ioctlFuncs = 0x0705
	// funcI2C is set when the adapter supports plain I2C transfers.
	funcI2C = 0x00000001
)

// Transport implements pn532.Transport on an i2c-dev file descriptor.
type Transport struct {
	path     string
	fd       int
	addr     uint16 // address last selected with ioctlSlave
	selected bool   // addr is valid
	mu       syncutil.Mutex
}

// New opens the i2c-dev node for bus and checks that the adapter can do
// plain I2C transfers.
func New(bus string) (*Transport, error) {
	path := DevicePath(bus)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	funcs, err := unix.IoctlGetUint32(fd, ioctlFuncs)
	if err == nil && funcs&funcI2C == 0 {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%s: adapter does not support plain I2C transfers", path)
	}

	return &Transport{path: path, fd: fd}, nil
}

func (t *Transport) selectAddress(addr uint16) error {
	if t.selected && t.addr == addr {
		return nil
	}
	if err := unix.IoctlSetInt(t.fd, ioctlSlave, int(addr)); err != nil {
		return fmt.Errorf("failed to select address 0x%02X: %w", addr, err)
	}
	t.addr, t.selected = addr, true
	return nil
}

// Write sends data to addr in a single write transaction.
func (t *Transport) Write(addr uint16, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fd < 0 {
		return pn532.ErrTransportClosed
	}
	if err := t.selectAddress(addr); err != nil {
		return err
	}
	n, err := unix.Write(t.fd, data)
	if err != nil {
		return fmt.Errorf("I2C write failed: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("I2C write failed: wrote %d of %d bytes", n, len(data))
	}
	return nil
}

// Read performs a single read of up to n bytes from addr.
func (t *Transport) Read(addr uint16, n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fd < 0 {
		return nil, pn532.ErrTransportClosed
	}
	if err := t.selectAddress(addr); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	got, err := unix.Read(t.fd, buf)
	if err != nil {
		return nil, fmt.Errorf("I2C read failed: %w", err)
	}
	return buf[:got], nil
}

// Close releases the file descriptor. Calling it twice is a no-op.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fd < 0 {
		return nil
	}
	err := unix.Close(t.fd)
	t.fd = -1
	if err != nil && !errors.Is(err, unix.EBADF) {
		return fmt.Errorf("failed to close %s: %w", t.path, err)
	}
	return nil
}

// String returns the device node path.
func (t *Transport) String() string {
	return t.path
}
