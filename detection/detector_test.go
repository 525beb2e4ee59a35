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
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	testutil "github.com/ZaparooProject/go-pn532-i2c/internal/testing"
)

// sharedBus keeps the simulator open across probes; each probe closes its
// controller.
type sharedBus struct {
	*testutil.VirtualPN532
}

func (sharedBus) Close() error { return nil }

// fakeBus creates a bus node on disk so scanBus finds it, and an Opener
// that routes the node to sim.
func fakeBus(t *testing.T, sim *testutil.VirtualPN532) (string, Opener, *atomic.Int32) {
	t.Helper()

	bus := filepath.Join(t.TempDir(), "i2c-1")
	require.NoError(t, os.WriteFile(bus, nil, 0o600))

	var opens atomic.Int32
	opener := func(path string) (*pn532.Controller, error) {
		opens.Add(1)
		name, addr, err := pn532.ParseBusPath(path)
		if err != nil {
			return nil, err
		}
		if name != bus {
			return nil, errors.New("unknown bus " + name)
		}
		return pn532.New(sharedBus{sim}, pn532.WithChannel(
			pn532.WithAddress(addr),
			pn532.WithAckTimeout(30*time.Millisecond),
			pn532.WithPollInterval(time.Millisecond),
		))
	}
	return bus, opener, &opens
}

func TestDetect_SafeModeConfirmsFirmware(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	bus, opener, _ := fakeBus(t, sim)

	devices, err := Detect(context.Background(), &Options{
		Buses:  []string{bus},
		Opener: opener,
		Mode:   Safe,
	})
	require.NoError(t, err)
	require.Len(t, devices, 1)

	d := devices[0]
	assert.Equal(t, bus+":0x24", d.Path)
	assert.Equal(t, bus, d.Bus)
	assert.Equal(t, pn532.DefaultAddress, d.Address)
	assert.Equal(t, High, d.Confidence)
	assert.Equal(t, pn532.FirmwareVersion{IC: 0x32, Version: 1, Revision: 6, Support: 7}, d.Firmware)
	assert.Equal(t, "IC=0x32 firmware=1.6 support=0x07", d.Metadata["firmware"])
	assert.False(t, sim.GetState().SAMConfigured, "safe mode must not run setup")
}

func TestDetect_FullModeRunsSetup(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	bus, opener, _ := fakeBus(t, sim)

	devices, err := Detect(context.Background(), &Options{
		Buses:  []string{bus},
		Opener: opener,
		Mode:   Full,
	})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, High, devices[0].Confidence)
	assert.True(t, sim.GetState().SAMConfigured)
}

func TestDetect_PassiveModeDoesNotProbe(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	bus, opener, opens := fakeBus(t, sim)

	devices, err := Detect(context.Background(), &Options{
		Buses:     []string{bus},
		Addresses: []uint16{0x24, 0x30},
		Opener:    opener,
		Mode:      Passive,
	})
	require.NoError(t, err)
	require.Len(t, devices, 1, "only the default address is reported without probing")
	assert.Equal(t, Medium, devices[0].Confidence)
	assert.Zero(t, opens.Load())
	assert.Zero(t, sim.WriteCount())
}

func TestDetect_UnresponsiveDevices(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	sim.SetNeverReady(true)
	bus, opener, opens := fakeBus(t, sim)

	devices, err := Detect(context.Background(), &Options{
		Buses:     []string{bus},
		Addresses: []uint16{0x24, 0x30},
		Opener:    opener,
		Mode:      Safe,
	})
	require.NoError(t, err)
	require.Len(t, devices, 1, "non-default addresses that do not answer are dropped")
	assert.Equal(t, Medium, devices[0].Confidence)
	assert.Contains(t, devices[0].Metadata["probe_error"], "timed out waiting for ACK")
	assert.Equal(t, int32(2), opens.Load())
}

func TestDetect_NonDefaultAddress(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	sim.SetAddress(0x25)
	bus, opener, _ := fakeBus(t, sim)

	devices, err := Detect(context.Background(), &Options{
		Buses:     []string{bus},
		Addresses: []uint16{0x24, 0x25},
		Opener:    opener,
		Mode:      Safe,
	})
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, bus+":0x24", devices[0].Path)
	assert.Equal(t, Medium, devices[0].Confidence)
	assert.Equal(t, bus+":0x25", devices[1].Path)
	assert.Equal(t, High, devices[1].Confidence)
}

func TestDetect_IgnorePaths(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	bus, opener, opens := fakeBus(t, sim)

	devices, err := Detect(context.Background(), &Options{
		Buses:       []string{bus},
		IgnorePaths: []string{bus + ":0x24"},
		Opener:      opener,
		Mode:        Safe,
	})
	require.ErrorIs(t, err, ErrNoDevicesFound)
	assert.Empty(t, devices)
	assert.Zero(t, opens.Load())
}

func TestDetect_IgnoredBusIsNotScanned(t *testing.T) {
	t.Parallel()

	// The bus node is missing, so scanning it would fail with ErrNotExist.
	bus := filepath.Join(t.TempDir(), "i2c-4")
	devices, err := Detect(context.Background(), &Options{
		Buses:       []string{bus},
		IgnorePaths: []string{bus},
		Mode:        Passive,
	})
	require.ErrorIs(t, err, ErrNoDevicesFound)
	assert.Empty(t, devices)
}

func TestDetect_MissingBus(t *testing.T) {
	t.Parallel()

	_, err := Detect(context.Background(), &Options{
		Buses: []string{filepath.Join(t.TempDir(), "i2c-7")},
		Mode:  Passive,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetect_CacheSkipsProbe(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	bus, opener, opens := fakeBus(t, sim)
	t.Cleanup(func() { ClearDetectionCacheForBus(bus) })

	opts := &Options{
		Buses:       []string{bus},
		Opener:      opener,
		Mode:        Safe,
		EnableCache: true,
		CacheTTL:    time.Minute,
	}

	first, err := Detect(context.Background(), opts)
	require.NoError(t, err)
	second, err := Detect(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), opens.Load())

	// Cached results still honor IgnorePaths
	opts.IgnorePaths = []string{bus + ":0x24"}
	_, err = Detect(context.Background(), opts)
	require.ErrorIs(t, err, ErrNoDevicesFound)
	assert.Equal(t, int32(1), opens.Load())

	ClearDetectionCacheForBus(bus)
	opts.IgnorePaths = nil
	_, err = Detect(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int32(2), opens.Load())
}

func TestDetect_Timeout(t *testing.T) {
	t.Parallel()

	bus := filepath.Join(t.TempDir(), "i2c-3")
	require.NoError(t, os.WriteFile(bus, nil, 0o600))

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	_, err := Detect(context.Background(), &Options{
		Buses:   []string{bus},
		Timeout: 20 * time.Millisecond,
		Mode:    Safe,
		Opener: func(string) (*pn532.Controller, error) {
			<-release
			return nil, errors.New("released")
		},
	})
	require.ErrorIs(t, err, ErrDetectionTimeout)
}
