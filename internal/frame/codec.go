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

// Package frame implements the PN532 normal information frame format
// (PN532 User Manual section 6.2.1). It performs no I/O.
package frame

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned for bytes that are not a valid data frame.
	ErrMalformed = errors.New("malformed frame")
	// ErrUnexpectedAck is returned when the ACK sentinel is decoded as data.
	ErrUnexpectedAck = errors.New("unexpected ACK frame")
	// ErrApplication is returned for the PN532 syntax error frame.
	ErrApplication = errors.New("application error frame")
)

// Frame is a decoded information frame.
type Frame struct {
	Payload []byte
	TFI     byte
	Opcode  byte
}

// Encode builds a normal information frame:
//
//	00 00 FF LEN LCS TFI OPCODE PAYLOAD... DCS 00
//
// Encode panics if payload exceeds MaxPayloadLength; callers must check the
// limit before encoding.
func Encode(tfi, opcode byte, payload []byte) []byte {
	if len(payload) > MaxPayloadLength {
		panic(fmt.Sprintf("frame: payload of %d bytes exceeds maximum of %d", len(payload), MaxPayloadLength))
	}

	dataLen := byte(len(payload) + 2) // TFI + opcode + payload
	frm := make([]byte, 0, Overhead+int(dataLen))
	frm = append(frm,
		Preamble, StartCode1, StartCode2,
		dataLen,
		LengthChecksum(dataLen),
		tfi,
		opcode,
	)
	frm = append(frm, payload...)
	frm = append(frm, Checksum(tfi, append([]byte{opcode}, payload...)...), Postamble)
	return frm
}

// EncodeCommand builds a host to PN532 command frame.
func EncodeCommand(opcode byte, payload []byte) []byte {
	return Encode(HostToPn532, opcode, payload)
}

// IsAck reports whether b starts with the ACK sentinel.
func IsAck(b []byte) bool {
	return len(b) >= AckLength && bytes.Equal(b[:AckLength], AckFrame)
}

// IsNack reports whether b starts with the NACK sentinel.
func IsNack(b []byte) bool {
	return len(b) >= AckLength && bytes.Equal(b[:AckLength], NackFrame)
}

// Decode parses a data frame starting at b[0]. Bytes following the
// postamble are ignored, since I2C reads return a fixed-size buffer.
func Decode(b []byte) (Frame, error) {
	if IsAck(b) {
		return Frame{}, ErrUnexpectedAck
	}
	if len(b) >= len(ErrorFrame) && bytes.Equal(b[:len(ErrorFrame)], ErrorFrame) {
		return Frame{}, ErrApplication
	}
	if len(b) < MinFrameLength {
		return Frame{}, fmt.Errorf("%w: %d bytes is shorter than the %d byte envelope",
			ErrMalformed, len(b), MinFrameLength)
	}
	if b[0] != Preamble || b[1] != StartCode1 || b[2] != StartCode2 {
		return Frame{}, fmt.Errorf("%w: bad start code % X", ErrMalformed, b[:3])
	}

	dataLen, lcs := b[3], b[4]
	if dataLen == 0xFF && lcs == 0xFF {
		return Frame{}, fmt.Errorf("%w: extended frames are not supported", ErrMalformed)
	}
	if dataLen+lcs != 0 {
		return Frame{}, fmt.Errorf("%w: length checksum mismatch (LEN=0x%02X LCS=0x%02X)",
			ErrMalformed, dataLen, lcs)
	}
	if dataLen < 2 {
		return Frame{}, fmt.Errorf("%w: LEN %d leaves no room for an opcode", ErrMalformed, dataLen)
	}

	end := Overhead + int(dataLen)
	if len(b) < end {
		return Frame{}, fmt.Errorf("%w: truncated, need %d bytes, have %d", ErrMalformed, end, len(b))
	}

	// TFI through DCS must sum to zero
	if !sumsToZero(b[5 : end-1]) {
		return Frame{}, fmt.Errorf("%w: data checksum mismatch", ErrMalformed)
	}
	if b[end-1] != Postamble {
		return Frame{}, fmt.Errorf("%w: bad postamble 0x%02X", ErrMalformed, b[end-1])
	}

	tfi := b[5]
	if tfi != HostToPn532 && tfi != Pn532ToHost {
		return Frame{}, fmt.Errorf("%w: unknown TFI 0x%02X", ErrMalformed, tfi)
	}

	payload := make([]byte, int(dataLen)-2)
	copy(payload, b[7:7+len(payload)])
	return Frame{TFI: tfi, Opcode: b[6], Payload: payload}, nil
}
