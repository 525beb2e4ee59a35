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

// SAMMode represents the SAM configuration mode
type SAMMode byte

const (
	// SAMModeNormal - normal mode, the SAM is not used
	SAMModeNormal SAMMode = 0x01
	// SAMModeVirtualCard - Virtual Card mode
	SAMModeVirtualCard SAMMode = 0x02
	// SAMModeWiredCard - Wired Card mode
	SAMModeWiredCard SAMMode = 0x03
	// SAMModeDualCard - Dual Card mode
	SAMModeDualCard SAMMode = 0x04
)

// samConfigPayload is Normal mode, virtual card timeout disabled, IRQ pin
// not driven. The IRQ line is unused since readiness is polled over I2C.
var samConfigPayload = []byte{byte(SAMModeNormal), 0x00, 0x00}

// RFRetries holds the RFConfiguration MaxRetries item (CfgItem 0x05).
type RFRetries struct {
	ATR               byte // MxRtyATR
	PSL               byte // MxRtyPSL
	PassiveActivation byte // MxRtyPassiveActivation, 0xFF retries forever
}

// DefaultRFRetries returns the retry counts applied by Setup.
func DefaultRFRetries() RFRetries {
	return RFRetries{ATR: 0xFF, PSL: 0x01, PassiveActivation: 0x0A}
}

func (r RFRetries) payload() []byte {
	return []byte{rfItemMaxRetries, r.ATR, r.PSL, r.PassiveActivation}
}
