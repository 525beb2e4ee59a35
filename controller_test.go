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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-pn532-i2c/internal/testing"
)

func TestNew_SendsNothing(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	ctrl, err := New(sim)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Zero(t, sim.WriteCount())
	assert.Zero(t, sim.ReadCount())
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(testutil.NewVirtualPN532(), WithWakeupSources(0))
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(testutil.NewVirtualPN532(), WithLogger(nil))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestController_FirmwareVersion(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	sim.SetFirmwareVersion(32, 1, 6, 7)

	fw, err := ctrl.FirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FirmwareVersion{IC: 32, Version: 1, Revision: 6, Support: 7}, fw)
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestController_FirmwareVersion_WrongLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: nil},
		{name: "short", payload: []byte{0x32, 0x01, 0x06}},
		{name: "long", payload: []byte{0x32, 0x01, 0x06, 0x07, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl, sim := newSimController(t)
			sim.SetResponse(cmdGetFirmwareVersion, tt.payload)

			_, err := ctrl.FirmwareVersion(context.Background())
			require.ErrorIs(t, err, ErrProtocol)
		})
	}
}

func TestController_Setup(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	require.NoError(t, ctrl.Setup(context.Background()))

	state := sim.GetState()
	assert.True(t, state.SAMConfigured)
	assert.Equal(t, []byte{0xFF, 0x01, 0x0A}, state.MaxRetries)
	assert.Equal(t, []byte{cmdSamConfiguration, cmdRFConfiguration}, sim.Commands())
}

func TestController_Setup_CustomRetries(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t, WithRFRetries(RFRetries{ATR: 0x02, PSL: 0x01, PassiveActivation: 0xFF}))
	require.NoError(t, ctrl.Setup(context.Background()))
	assert.Equal(t, []byte{0x02, 0x01, 0xFF}, sim.GetState().MaxRetries)
}

func TestController_Setup_NeverReady(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	sim.SetNeverReady(true)
	ctrl, err := New(sim, WithChannel(fastChannelOptions()...))
	require.NoError(t, err)

	err = ctrl.Setup(context.Background())

	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, SetupStepSAMConfiguration, setupErr.Step)
	require.ErrorIs(t, err, ErrAckTimeout)

	// One original attempt plus exactly one retry
	assert.Equal(t, 2, sim.WriteCount())
	assert.Equal(t, []byte{cmdSamConfiguration, cmdSamConfiguration}, sim.Commands())
	assert.Equal(t, StateError, ctrl.State())

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 2, cmdErr.Attempts)
}

func TestController_Setup_FailsAtRFStep(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	sim.SetResponse(cmdRFConfiguration, []byte{0x01})

	err := ctrl.Setup(context.Background())
	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, SetupStepRFConfiguration, setupErr.Step)
	require.ErrorIs(t, err, ErrProtocol)
	assert.True(t, sim.GetState().SAMConfigured, "earlier step is not rolled back")
}

func TestController_List(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	sim.SetTag(testutil.NewVirtualMIFARE1K([]byte{0x04, 0xA1, 0xB2, 0xC3}))

	targets, err := ctrl.List(context.Background(), time.Second)
	require.NoError(t, err)
	require.Len(t, targets, 1)

	tgt := targets[0]
	assert.Equal(t, []byte{0x04, 0xA1, 0xB2, 0xC3}, tgt.UID)
	assert.Equal(t, [2]byte{0x00, 0x04}, tgt.ATQA)
	assert.Equal(t, byte(0x08), tgt.SAK)
	assert.Equal(t, byte(0x01), tgt.Number)
	assert.Equal(t, BaudRate106A, tgt.Type)
	assert.Equal(t, TagKindMIFAREClassic, tgt.Kind())
	assert.Equal(t, "04A1B2C3", tgt.UIDString())
}

func TestController_List_EmptyFieldIsIdempotent(t *testing.T) {
	t.Parallel()

	ctrl, _ := newSimController(t)
	for range 5 {
		targets, err := ctrl.List(context.Background(), 50*time.Millisecond)
		require.NoError(t, err)
		assert.NotNil(t, targets)
		assert.Empty(t, targets)
	}
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestController_List_ISODEPWithATS(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	ats := []byte{0x05, 0x78, 0x80, 0x70, 0x02}
	sim.SetTag(testutil.NewVirtualISODEP([]byte{0x08, 0x11, 0x22, 0x33}, ats))

	targets, err := ctrl.List(context.Background(), time.Second)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, ats, targets[0].ATS)
	assert.Equal(t, TagKindISODEP, targets[0].Kind())
}

func TestController_List_Truncated(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	sim.SetResponse(cmdInListPassiveTarget, []byte{0x01, 0x01, 0x00, 0x04, 0x08, 0x07, 0x04})

	_, err := ctrl.List(context.Background(), time.Second)
	require.ErrorIs(t, err, ErrProtocol)
}

func TestController_List_TimeoutMonotonicity(t *testing.T) {
	t.Parallel()

	const delay = 100 * time.Millisecond

	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{name: "shorter than delay", timeout: 20 * time.Millisecond, wantErr: true},
		{name: "half the delay", timeout: delay / 2, wantErr: true},
		{name: "longer than delay", timeout: 300 * time.Millisecond, wantErr: false},
		{name: "much longer than delay", timeout: time.Second, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl, sim := newSimController(t)
			sim.SetResponseDelay(delay)

			_, err := ctrl.List(context.Background(), tt.timeout)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrResponseTimeout)
				// No retry after a response timeout
				assert.Equal(t, 1, sim.WriteCount())
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestController_PowerDownThenCommandIsAsleep(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN532()
	counter := &countingTransport{Transport: sim}
	ctrl, err := New(counter, WithChannel(fastChannelOptions()...))
	require.NoError(t, err)

	require.NoError(t, ctrl.PowerDown(context.Background()))
	assert.Equal(t, StatePoweredDown, ctrl.State())
	assert.Equal(t, WakeupI2C|WakeupINT1, sim.GetState().WakeupSources)

	before := counter.calls()
	_, err = ctrl.FirmwareVersion(context.Background())
	require.ErrorIs(t, err, ErrDeviceAsleep)
	assert.True(t, IsAsleep(err))
	assert.Equal(t, before, counter.calls(), "no transport call while asleep")
	assert.Equal(t, StatePoweredDown, ctrl.State())
}

func TestController_WakeAfterPowerDown(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.PowerDown(ctx))
	require.NoError(t, ctrl.Wake(ctx))
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Equal(t, testutil.PowerModeNormal, sim.GetState().PowerMode)

	fw, err := ctrl.FirmwareVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(0x32), fw.IC)
}

func TestController_PowerDown_StatusError(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	sim.SetResponse(cmdPowerDown, []byte{0x27})

	err := ctrl.PowerDown(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, byte(0x27), statusErr.Code)
	assert.NotEqual(t, StatePoweredDown, ctrl.State())
}

func TestController_PowerDown_CustomWakeupSources(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t, WithWakeupSources(WakeupI2C|WakeupRF))
	require.NoError(t, ctrl.PowerDown(context.Background()))
	assert.Equal(t, WakeupI2C|WakeupRF, sim.GetState().WakeupSources)
}

func TestController_GeneralStatus(t *testing.T) {
	t.Parallel()

	ctrl, _ := newSimController(t)
	ctx := context.Background()

	status, err := ctrl.GeneralStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.FieldPresent)
	assert.Empty(t, status.Targets)

	_, err = ctrl.List(ctx, 20*time.Millisecond)
	require.NoError(t, err)

	status, err = ctrl.GeneralStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.FieldPresent)
}

func TestController_Release(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	require.NoError(t, ctrl.Release(context.Background(), 0))
	assert.Equal(t, []byte{cmdInRelease}, sim.Commands())

	sim.SetResponse(cmdInRelease, []byte{0x2B})
	err := ctrl.Release(context.Background(), 1)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Contains(t, err.Error(), "card disappeared")
}

func TestController_Command_UnknownOpcode(t *testing.T) {
	t.Parallel()

	ctrl, _ := newSimController(t)
	_, err := ctrl.Command(context.Background(), 0x7E, nil, 0)
	require.ErrorIs(t, err, ErrApplicationFrame)
}

func TestController_Close(t *testing.T) {
	t.Parallel()

	ctrl, _ := newSimController(t)
	require.NoError(t, ctrl.Close())
	require.NoError(t, ctrl.Close())

	_, err := ctrl.FirmwareVersion(context.Background())
	require.ErrorIs(t, err, ErrTransportClosed)
	assert.True(t, IsFatal(err))
}

func TestController_IOErrorPropagates(t *testing.T) {
	t.Parallel()

	ctrl, sim := newSimController(t)
	boom := errors.New("adapter unplugged")
	sim.FailWrites(boom)

	_, err := ctrl.FirmwareVersion(context.Background())
	require.ErrorIs(t, err, boom)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)
	assert.Equal(t, DefaultAddress, ioErr.Addr)
	assert.Equal(t, 1, sim.WriteCount(), "I/O errors are not retried")
}
