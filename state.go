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

// DeviceState is the channel's view of the chip. It changes only inside
// Channel.
type DeviceState int

const (
	// StateIdle means no transaction is in flight.
	StateIdle DeviceState = iota
	// StateAwaitingAck means a command frame was written and the ACK has
	// not been read yet.
	StateAwaitingAck
	// StateAwaitingResponse means the command was acknowledged.
	StateAwaitingResponse
	// StateError means the last transaction failed. The next transaction
	// starts normally.
	StateError
	// StatePoweredDown means PowerDown succeeded and Wake has not been
	// called since.
	StatePoweredDown
)

func (s DeviceState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingAck:
		return "AwaitingAck"
	case StateAwaitingResponse:
		return "AwaitingResponse"
	case StateError:
		return "Error"
	case StatePoweredDown:
		return "PoweredDown"
	default:
		return "Unknown"
	}
}
