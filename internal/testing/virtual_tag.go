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
	"encoding/hex"
	"strings"
)

// VirtualTag is an ISO14443 Type A card in the simulated RF field.
type VirtualTag struct {
	UID  []byte
	ATS  []byte
	ATQA [2]byte
	SAK  byte
	// Present is false while the tag is out of the field.
	Present bool
}

// NewVirtualNTAG213 creates an NTAG213 with a 7-byte UID.
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	if uid == nil {
		uid = []byte{0x04, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC}
	}
	return &VirtualTag{UID: uid, ATQA: [2]byte{0x00, 0x44}, SAK: 0x00, Present: true}
}

// NewVirtualMIFARE1K creates a MIFARE Classic 1K with a 4-byte UID.
func NewVirtualMIFARE1K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = []byte{0x04, 0xA1, 0xB2, 0xC3}
	}
	return &VirtualTag{UID: uid, ATQA: [2]byte{0x00, 0x04}, SAK: 0x08, Present: true}
}

// NewVirtualMIFARE4K creates a MIFARE Classic 4K with a 4-byte UID.
func NewVirtualMIFARE4K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = []byte{0x04, 0xD4, 0xE5, 0xF6}
	}
	return &VirtualTag{UID: uid, ATQA: [2]byte{0x00, 0x02}, SAK: 0x18, Present: true}
}

// NewVirtualISODEP creates an ISO14443-4 card that answers RATS with ats.
// ats must start with its own length byte.
func NewVirtualISODEP(uid, ats []byte) *VirtualTag {
	return &VirtualTag{UID: uid, ATS: ats, ATQA: [2]byte{0x03, 0x44}, SAK: 0x20, Present: true}
}

// GetUIDString returns the UID as upper-case hex.
func (v *VirtualTag) GetUIDString() string {
	return strings.ToUpper(hex.EncodeToString(v.UID))
}

// Remove takes the tag out of the field.
func (v *VirtualTag) Remove() {
	v.Present = false
}

// Insert puts the tag back into the field.
func (v *VirtualTag) Insert() {
	v.Present = true
}
