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

import "fmt"

// FirmwareVersion is the GetFirmwareVersion reply. IC and Support are
// passed through as reported by the chip.
type FirmwareVersion struct {
	IC       byte
	Version  byte
	Revision byte
	Support  byte
}

func (f FirmwareVersion) String() string {
	return fmt.Sprintf("IC=0x%02X firmware=%d.%d support=0x%02X", f.IC, f.Version, f.Revision, f.Support)
}

func parseFirmwareVersion(payload []byte) (FirmwareVersion, error) {
	if len(payload) != 4 {
		return FirmwareVersion{}, fmt.Errorf("%w: firmware version payload is %d bytes, want 4",
			ErrProtocol, len(payload))
	}
	return FirmwareVersion{
		IC:       payload[0],
		Version:  payload[1],
		Revision: payload[2],
		Support:  payload[3],
	}, nil
}

// TargetStatus is one target entry of a GetGeneralStatus reply.
type TargetStatus struct {
	Number     byte
	BaudRateRx byte
	BaudRateTx byte
	Modulation byte
}

// GeneralStatus contains PN532 general status information
type GeneralStatus struct {
	Targets      []TargetStatus
	LastError    byte
	FieldPresent bool
	SAMStatus    byte
}

// parseGeneralStatus decodes Err, Field, NbTg, NbTg*[Tg BrRx BrTx Type], SAM.
func parseGeneralStatus(payload []byte) (GeneralStatus, error) {
	if len(payload) < 3 {
		return GeneralStatus{}, fmt.Errorf("%w: general status payload is %d bytes", ErrProtocol, len(payload))
	}
	count := int(payload[2])
	want := 3 + count*4 + 1
	if len(payload) < want {
		return GeneralStatus{}, fmt.Errorf("%w: general status reports %d targets in %d bytes",
			ErrProtocol, count, len(payload))
	}
	status := GeneralStatus{
		LastError:    payload[0],
		FieldPresent: payload[1] != 0,
		Targets:      make([]TargetStatus, 0, count),
		SAMStatus:    payload[want-1],
	}
	for i := range count {
		off := 3 + i*4
		status.Targets = append(status.Targets, TargetStatus{
			Number:     payload[off],
			BaudRateRx: payload[off+1],
			BaudRateTx: payload[off+2],
			Modulation: payload[off+3],
		})
	}
	return status, nil
}
