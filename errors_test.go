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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "ACK timeout", err: ErrAckTimeout, want: true},
		{name: "wrapped ACK timeout", err: &CommandError{Command: cmdSamConfiguration, Err: ErrAckTimeout}, want: true},
		{name: "ACK mismatch", err: ErrAckMismatch, want: false},
		{name: "response timeout", err: ErrResponseTimeout, want: false},
		{name: "malformed", err: ErrMalformedFrame, want: false},
		{name: "opcode mismatch", err: ErrOpcodeMismatch, want: false},
		{name: "I/O", err: &IOError{Op: "read", Err: syscall.EIO}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "EIO", err: &IOError{Op: "read", Err: syscall.EIO}, want: true},
		{name: "ENXIO", err: fmt.Errorf("tx: %w", syscall.ENXIO), want: true},
		{name: "ENODEV", err: syscall.ENODEV, want: true},
		{name: "EAGAIN", err: syscall.EAGAIN, want: false},
		{name: "closed", err: ErrTransportClosed, want: true},
		{name: "EOF", err: io.EOF, want: true},
		{name: "ACK timeout", err: ErrAckTimeout, want: false},
		{name: "asleep", err: ErrDeviceAsleep, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	ioErr := &IOError{Op: "write", Addr: 0x24, Err: syscall.EIO}
	assert.Equal(t, "i2c write 0x24: input/output error", ioErr.Error())
	assert.ErrorIs(t, ioErr, syscall.EIO)

	cmdErr := &CommandError{Command: cmdInListPassiveTarget, Err: ErrResponseTimeout}
	assert.Equal(t, "InListPassiveTarget: timed out waiting for response", cmdErr.Error())

	setupErr := &SetupError{Step: SetupStepRFConfiguration, Err: cmdErr}
	assert.Equal(t, "setup failed at RFConfiguration: InListPassiveTarget: timed out waiting for response",
		setupErr.Error())
	assert.ErrorIs(t, setupErr, ErrResponseTimeout)

	statusErr := &StatusError{Command: cmdPowerDown, Code: 0x01}
	assert.Equal(t, "PowerDown error 0x01 (timeout)", statusErr.Error())
	assert.True(t, statusErr.Timeout())

	unknown := &StatusError{Command: 0x7E, Code: 0x3F}
	assert.Equal(t, "0x7E error 0x3F (unknown error)", unknown.Error())
	assert.False(t, unknown.Timeout())
}

func TestFrameErrorsAreShared(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("decoding response: %w", ErrMalformedFrame)
	assert.True(t, errors.Is(wrapped, ErrMalformedFrame))
	assert.NotErrorIs(t, ErrUnexpectedAck, ErrMalformedFrame)
}
