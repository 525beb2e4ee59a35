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

//go:build linux

package i2cdev

import (
	"testing"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// /dev/null opens fine but rejects the i2c-dev ioctls, which exercises the
// error paths without hardware.
func TestTransport_NonAdapterNode(t *testing.T) {
	t.Parallel()

	tr, err := New("/dev/null")
	require.NoError(t, err)
	assert.Equal(t, "/dev/null", tr.String())

	err = tr.Write(pn532.DefaultAddress, []byte{0x00})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select address 0x24")

	_, err = tr.Read(pn532.DefaultAddress, 7)
	require.Error(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close(), "second close is a no-op")

	require.ErrorIs(t, tr.Write(pn532.DefaultAddress, nil), pn532.ErrTransportClosed)
	_, err = tr.Read(pn532.DefaultAddress, 1)
	require.ErrorIs(t, err, pn532.ErrTransportClosed)
}

func TestTransport_SelectsGeneralCallAddress(t *testing.T) {
	t.Parallel()

	tr, err := New("/dev/null")
	require.NoError(t, err)
	defer func() { _ = tr.Close() }()

	// 0x00 must still reach ioctlSlave on a fresh transport
	err = tr.Write(0x00, []byte{0x00})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select address 0x00")

	_, err = tr.Read(0x00, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select address 0x00")
}
