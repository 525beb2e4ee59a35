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

package frame

// TFI values
const (
	HostToPn532 = 0xD4
	Pn532ToHost = 0xD5
	// ErrorTFI only appears in ErrorFrame.
	ErrorTFI = 0x7F
)

// Envelope bytes: 00 00 FF <LEN> <LCS> <TFI> ... <DCS> 00
const (
	Preamble   = 0x00
	StartCode1 = 0x00
	StartCode2 = 0xFF
	Postamble  = 0x00
)

const (
	// MaxPayloadLength is the largest command payload (excluding opcode) that
	// fits a normal information frame. LEN covers TFI + opcode + payload and
	// must stay below the 0xFF extended-frame marker.
	MaxPayloadLength = 252

	// MinFrameLength is the smallest data frame: preamble, start code, LEN,
	// LCS, TFI, opcode, DCS, postamble.
	MinFrameLength = 9

	// Overhead is the number of envelope bytes around the LEN-counted data.
	Overhead = 7

	// MaxFrameLength is the largest normal frame on the wire.
	MaxFrameLength = Overhead + MaxPayloadLength + 2

	// AckLength is the size of the ACK and NACK sentinels.
	AckLength = 6
)

// ResponseOffset is added to a command opcode to form its response opcode.
const ResponseOffset = 0x01

// Fixed frames. A NACK asks the chip to resend its last response.
var (
	AckFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}

	// ErrorFrame is the fixed syntax error frame sent by the PN532 when it
	// could not parse the last command.
	ErrorFrame = []byte{0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00}
)
