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

import "time"

// Handshake timing. These are defaults for ChannelConfig; every value can
// be overridden per channel.
const (
	// DefaultAckTimeout bounds the wait for the ACK frame after a command
	// is written.
	DefaultAckTimeout = 1 * time.Second
	// DefaultResponseTimeout bounds the wait for the response frame when the
	// caller passes zero.
	DefaultResponseTimeout = 100 * time.Millisecond
	// DefaultPollInterval is the spacing between ready-status reads.
	// Tens of milliseconds keeps the bus mostly idle while staying well
	// inside the ACK window.
	DefaultPollInterval = 10 * time.Millisecond
	// DefaultWakeDelay is how long the chip is given to leave power-down
	// after the I2C address match.
	DefaultWakeDelay = 2 * time.Millisecond
	// PowerDownQuietPeriod is how long the bus is left untouched after a
	// successful PowerDown (PN532 User Manual, PowerDown remarks).
	PowerDownQuietPeriod = 1 * time.Millisecond
	// DefaultListTimeout is the response window used by List callers that
	// have no preference.
	DefaultListTimeout = 1 * time.Second
)

// ackAttempts is the total number of times a command frame is written:
// the original send plus one retry after an ACK timeout.
const ackAttempts = 2

// defaultTraceSize bounds the per-transaction wire trace.
const defaultTraceSize = 16
