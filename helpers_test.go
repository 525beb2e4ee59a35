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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-pn532-i2c/internal/testing"
)

// Short timings keep failure paths fast in tests.
const (
	testAckTimeout   = 50 * time.Millisecond
	testPollInterval = time.Millisecond
)

func fastChannelOptions() []ChannelOption {
	return []ChannelOption{
		WithAckTimeout(testAckTimeout),
		WithPollInterval(testPollInterval),
		WithWakeDelay(0),
	}
}

// newSimController returns a controller wired to a fresh simulator.
func newSimController(t *testing.T, opts ...Option) (*Controller, *testutil.VirtualPN532) {
	t.Helper()
	sim := testutil.NewVirtualPN532()
	opts = append([]Option{WithChannel(fastChannelOptions()...)}, opts...)
	ctrl, err := New(sim, opts...)
	require.NoError(t, err)
	return ctrl, sim
}

// countingTransport wraps a Transport and counts every call.
type countingTransport struct {
	Transport
	mu     sync.Mutex
	writes int
	reads  int
	closes int
}

func (c *countingTransport) Write(addr uint16, data []byte) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Transport.Write(addr, data)
}

func (c *countingTransport) Read(addr uint16, n int) ([]byte, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.Transport.Read(addr, n)
}

func (c *countingTransport) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	return c.Transport.Close()
}

func (c *countingTransport) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes + c.reads + c.closes
}
