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

package i2c

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	virt "github.com/ZaparooProject/go-pn532-i2c/internal/testing"
)

var errBusClosed = errors.New("mock bus closed")

// MockI2CBus implements i2c.Bus backed by VirtualPN532. Like a real
// adapter, each Tx is one write or one full-length read.
type MockI2CBus struct {
	sim    *virt.VirtualPN532
	speed  physic.Frequency
	txs    int
	closed bool
}

// NewMockI2CBus creates a new mock I2C bus wrapping the VirtualPN532 simulator.
func NewMockI2CBus(sim *virt.VirtualPN532) *MockI2CBus {
	return &MockI2CBus{sim: sim}
}

// Tx implements i2c.Bus.Tx.
func (m *MockI2CBus) Tx(addr uint16, w, r []byte) error {
	if m.closed {
		return errBusClosed
	}
	m.txs++
	if len(w) > 0 {
		if err := m.sim.Write(addr, w); err != nil {
			return fmt.Errorf("mock i2c write: %w", err)
		}
	}
	if len(r) > 0 {
		data, err := m.sim.Read(addr, len(r))
		if err != nil {
			return fmt.Errorf("mock i2c read: %w", err)
		}
		n := copy(r, data)
		clear(r[n:])
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (m *MockI2CBus) SetSpeed(f physic.Frequency) error {
	m.speed = f
	return nil
}

// Close closes the mock bus.
func (m *MockI2CBus) Close() error {
	m.closed = true
	return nil
}

// String returns the bus name.
func (*MockI2CBus) String() string {
	return "mock://i2c"
}

var _ i2c.BusCloser = (*MockI2CBus)(nil)

func newTestController(t *testing.T, sim *virt.VirtualPN532) (*pn532.Controller, *MockI2CBus) {
	t.Helper()
	bus := NewMockI2CBus(sim)
	ctrl, err := pn532.New(NewFromBus(bus), pn532.WithChannel(
		pn532.WithAckTimeout(50*time.Millisecond),
		pn532.WithPollInterval(time.Millisecond),
	))
	require.NoError(t, err)
	return ctrl, bus
}

func TestI2C_GetFirmwareVersion(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	sim.SetFirmwareVersion(0x32, 0x01, 0x06, 0x07)
	ctrl, _ := newTestController(t, sim)

	fw, err := ctrl.FirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pn532.FirmwareVersion{IC: 0x32, Version: 0x01, Revision: 0x06, Support: 0x07}, fw)
}

func TestI2C_SetupAndList(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	ctrl, _ := newTestController(t, sim)
	ctx := context.Background()

	require.NoError(t, ctrl.Setup(ctx))

	targets, err := ctrl.List(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, targets)

	sim.SetTag(virt.NewVirtualNTAG213([]byte{0x04, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}))
	targets, err = ctrl.List(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "04010203040506", targets[0].UIDString())
	assert.Equal(t, pn532.TagKindNTAG, targets[0].Kind())
}

func TestI2C_ResponseDelayPolling(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	sim.SetResponseDelay(20 * time.Millisecond)
	ctrl, bus := newTestController(t, sim)

	_, err := ctrl.FirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Greater(t, bus.txs, 3, "status byte should be polled until ready")
}

func TestI2C_BusErrorIsIOError(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	sim.FailReads(syscall.EIO)
	ctrl, _ := newTestController(t, sim)

	_, err := ctrl.FirmwareVersion(context.Background())
	var ioErr *pn532.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, syscall.EIO)
	assert.True(t, pn532.IsFatal(err))
}

func TestI2C_CloseDoesNotCloseBorrowedBus(t *testing.T) {
	t.Parallel()

	bus := NewMockI2CBus(virt.NewVirtualPN532())
	tr := NewFromBus(bus)
	require.NoError(t, tr.Close())
	assert.False(t, bus.closed)

	_, err := tr.Read(pn532.DefaultAddress, 1)
	require.ErrorIs(t, err, pn532.ErrTransportClosed)
	require.ErrorIs(t, tr.Write(pn532.DefaultAddress, []byte{0}), pn532.ErrTransportClosed)
	assert.Equal(t, "mock://i2c", tr.String())
}

func TestI2C_CloseOwnedBus(t *testing.T) {
	t.Parallel()

	bus := NewMockI2CBus(virt.NewVirtualPN532())
	tr := &Transport{bus: bus, closer: bus, busName: bus.String()}
	require.NoError(t, tr.Close())
	assert.True(t, bus.closed)
	require.NoError(t, tr.Close(), "second close is a no-op")
}
