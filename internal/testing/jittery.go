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

package testing

import (
	"math/rand/v2"
	"time"

	"github.com/ZaparooProject/go-pn532-i2c/internal/syncutil"
)

// Bus is the byte-level I2C access that JitteryBus wraps. It has the same
// shape as pn532.Transport.
type Bus interface {
	Write(addr uint16, data []byte) error
	Read(addr uint16, n int) ([]byte, error)
	Close() error
}

// JitterConfig configures the behavior of JitteryBus.
type JitterConfig struct {
	// MaxLatency is the upper bound of the random delay added to each read.
	MaxLatency time.Duration
	// ShortReadRate is the probability (0-1) that a read is cut short
	// before reaching the device, as happens with clock stretching
	// timeouts on some adapters.
	ShortReadRate float64
	// Seed makes the jitter reproducible. Zero picks a random seed.
	Seed uint64
}

// DefaultJitterConfig returns a sensible default configuration for testing.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxLatency:    2 * time.Millisecond,
		ShortReadRate: 0.2,
	}
}

// JitteryBus wraps a Bus to simulate a flaky I2C adapter: reads are delayed
// by a random amount and some are cut short. A cut-short read never reaches
// the backend, so no frame is lost.
type JitteryBus struct {
	backend Bus
	rng     *rand.Rand
	config  JitterConfig
	short   int
	mu      syncutil.Mutex
}

// NewJitteryBus wraps backend with jitter simulation.
func NewJitteryBus(backend Bus, config JitterConfig) *JitteryBus {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &JitteryBus{
		backend: backend,
		config:  config,
		rng:     rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)), //nolint:gosec // Test code, not crypto
	}
}

// Write passes writes through to the backend without modification.
func (j *JitteryBus) Write(addr uint16, data []byte) error {
	return j.backend.Write(addr, data) //nolint:wrapcheck // Pass-through wrapper
}

// Read reads from the backend with simulated latency and short reads.
func (j *JitteryBus) Read(addr uint16, n int) ([]byte, error) {
	j.mu.Lock()
	var delay time.Duration
	if j.config.MaxLatency > 0 {
		delay = time.Duration(j.rng.Int64N(int64(j.config.MaxLatency) + 1))
	}
	cut := n > 0 && j.rng.Float64() < j.config.ShortReadRate
	var keep int
	if cut {
		keep = j.rng.IntN(n)
		j.short++
	}
	j.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if cut {
		return make([]byte, keep), nil
	}
	return j.backend.Read(addr, n) //nolint:wrapcheck // Pass-through wrapper
}

// Close closes the backend.
func (j *JitteryBus) Close() error {
	return j.backend.Close() //nolint:wrapcheck // Pass-through wrapper
}

// ShortReads returns how many reads were cut short so far.
func (j *JitteryBus) ShortReads() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.short
}
