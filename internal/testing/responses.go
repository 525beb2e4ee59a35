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

// Payload builders for InListPassiveTarget (106 kbps Type A) responses.
// They return the payload only, without TFI and response opcode, which is
// what the simulator frames and what Controller parses.

// BuildTargetEntry encodes one target: Tg, SENS_RES, SEL_RES, NFCIDLength,
// NFCID1 and, for ISO14443-4 tags, the ATS.
func BuildTargetEntry(tg byte, tag *VirtualTag) []byte {
	entry := make([]byte, 0, 5+len(tag.UID)+len(tag.ATS))
	entry = append(entry, tg, tag.ATQA[0], tag.ATQA[1], tag.SAK, byte(len(tag.UID)))
	entry = append(entry, tag.UID...)
	if tag.SAK&0x20 != 0 {
		entry = append(entry, tag.ATS...)
	}
	return entry
}

// BuildListResponse encodes NbTg followed by one entry per tag, numbered
// from 1.
func BuildListResponse(tags ...*VirtualTag) []byte {
	payload := []byte{byte(len(tags))}
	for i, tag := range tags {
		payload = append(payload, BuildTargetEntry(byte(i+1), tag)...)
	}
	return payload
}

// BuildNoTagResponse is the InListPassiveTarget payload for an empty field.
func BuildNoTagResponse() []byte {
	return []byte{0x00}
}

// BuildFirmwareResponse is a GetFirmwareVersion payload.
func BuildFirmwareResponse(ic, ver, rev, support byte) []byte {
	return []byte{ic, ver, rev, support}
}

// BuildStatusResponse is a single status byte payload, as returned by
// PowerDown and InRelease.
func BuildStatusResponse(code byte) []byte {
	return []byte{code}
}
