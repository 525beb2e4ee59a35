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

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/ZaparooProject/go-pn532-i2c/internal/frame"
)

// Handshake errors
var (
	// ErrAckTimeout means the chip never became ready to deliver an ACK.
	// It is the only error the channel retries on its own.
	ErrAckTimeout = errors.New("timed out waiting for ACK")
	// ErrAckMismatch means the chip was ready but did not send the ACK frame.
	ErrAckMismatch = errors.New("ACK mismatch")
	// ErrResponseTimeout means the chip acknowledged the command but did not
	// produce a response in time.
	ErrResponseTimeout = errors.New("timed out waiting for response")
	// ErrOpcodeMismatch means the response does not correlate with the
	// command that was sent.
	ErrOpcodeMismatch = errors.New("response opcode mismatch")
)

// Frame errors, shared with internal/frame so errors.Is works across the
// package boundary.
var (
	ErrMalformedFrame   = frame.ErrMalformed
	ErrUnexpectedAck    = frame.ErrUnexpectedAck
	ErrApplicationFrame = frame.ErrApplication
)

// Device errors
var (
	// ErrProtocol means a well-formed response carried an unexpected payload.
	ErrProtocol = errors.New("protocol error")
	// ErrDeviceAsleep is returned without touching the bus while the chip is
	// powered down.
	ErrDeviceAsleep = errors.New("device is powered down")
	// ErrPayloadTooLarge is returned for commands that do not fit a normal
	// information frame.
	ErrPayloadTooLarge = errors.New("command payload too large")
	// ErrTransportClosed is returned after Close.
	ErrTransportClosed = errors.New("transport is closed")
	// ErrInvalidParameter is returned for option values the chip cannot use.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// IOError wraps a transport failure. The underlying error is kept verbatim.
type IOError struct {
	Err  error
	Op   string // "read" or "write"
	Addr uint16
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i2c %s 0x%02X: %v", e.Op, e.Addr, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// CommandError records which command a channel failure belongs to.
type CommandError struct {
	Err     error
	Command byte
	// Attempts is the number of times the command frame was written.
	Attempts int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", CommandName(e.Command), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// SetupStep identifies the Setup sub-command that failed.
type SetupStep string

const (
	// SetupStepSAMConfiguration is the SAMConfiguration command.
	SetupStepSAMConfiguration SetupStep = "SAMConfiguration"
	// SetupStepRFConfiguration is the RFConfiguration MaxRetries command.
	SetupStepRFConfiguration SetupStep = "RFConfiguration"
)

// SetupError reports how far Setup progressed. Steps before Step were
// applied and are not rolled back.
type SetupError struct {
	Err  error
	Step SetupStep
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed at %s: %v", e.Step, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// StatusError is a non-zero status byte returned by the chip inside an
// otherwise valid response.
type StatusError struct {
	Command byte
	Code    byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error 0x%02X (%s)", CommandName(e.Command), e.Code, statusMeaning(e.Code))
}

// Timeout reports whether the chip gave up waiting on the RF side.
func (e *StatusError) Timeout() bool {
	return e.Code&0x3F == 0x01
}

// statusMeaning returns the PN532 User Manual section 7.1 description of
// the low six bits of a status byte.
func statusMeaning(code byte) string {
	meanings := map[byte]string{
		0x00: "success",
		0x01: "timeout",
		0x02: "CRC error",
		0x03: "parity error",
		0x04: "erroneous bit count during anti-collision",
		0x05: "framing error during mifare operation",
		0x06: "abnormal bit collision",
		0x07: "communication buffer size insufficient",
		0x09: "RF buffer overflow",
		0x0A: "RF field not activated in time",
		0x0B: "RF protocol error",
		0x0D: "overheating",
		0x0E: "internal buffer overflow",
		0x10: "invalid parameter",
		0x12: "DEP protocol not supported",
		0x13: "dataformat does not match",
		0x14: "authentication error",
		0x23: "UID check byte is wrong",
		0x25: "DEP invalid state",
		0x26: "operation not allowed",
		0x27: "wrong context for command",
		0x29: "target released by initiator",
		0x2A: "card ID mismatch",
		0x2B: "card disappeared",
		0x2C: "NFCID3 initiator/target mismatch",
		0x2D: "over-current event",
		0x2E: "NAD missing in DEP frame",
	}
	if m, ok := meanings[code&0x3F]; ok {
		return m
	}
	return "unknown error"
}

// IsRetryable reports whether the channel would retry err by itself. Only
// ACK timeouts qualify: any other failure may mean the chip already accepted
// the command.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAckTimeout)
}

// IsFatal returns true if the error indicates the bus or device is gone and
// callers should stop polling entirely.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if isDeviceGoneError(err) {
		return true
	}
	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// isDeviceGoneError checks for OS-level errors indicating the adapter or
// chip disappeared from the bus.
func isDeviceGoneError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}
	}
	return false
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}
