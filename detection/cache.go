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
	"maps"
	"time"

	"github.com/ZaparooProject/go-pn532-i2c/internal/syncutil"
)

// cacheEntry holds cached detection results for one bus.
type cacheEntry struct {
	timestamp time.Time
	devices   []DeviceInfo
}

// detectionCache provides thread-safe caching of detection results keyed by
// bus node.
type detectionCache struct {
	entries map[string]cacheEntry
	mu      syncutil.RWMutex
}

func newCache() *detectionCache {
	return &detectionCache{entries: make(map[string]cacheEntry)}
}

var defaultCache = newCache()

// get returns cached devices if available and not expired
func (c *detectionCache) get(bus string, ttl time.Duration) ([]DeviceInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[bus]
	if !exists || time.Since(entry.timestamp) > ttl {
		return nil, false
	}
	return copyDevices(entry.devices), true
}

func (c *detectionCache) set(bus string, devices []DeviceInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[bus] = cacheEntry{
		devices:   copyDevices(devices),
		timestamp: time.Now(),
	}
}

func (c *detectionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}

func (c *detectionCache) clearBus(bus string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, bus)
}

func copyDevices(devices []DeviceInfo) []DeviceInfo {
	out := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		d.Metadata = maps.Clone(d.Metadata)
		out[i] = d
	}
	return out
}

// ClearDetectionCache removes all cached detection results
func ClearDetectionCache() {
	defaultCache.clear()
}

// ClearDetectionCacheForBus removes cached results for one bus node
func ClearDetectionCacheForBus(bus string) {
	defaultCache.clearBus(bus)
}
