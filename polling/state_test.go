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

package polling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
)

func TestCardState_Transitions(t *testing.T) {
	t.Parallel()

	var cs CardState
	assert.Equal(t, StateIdle, cs.DetectionState)
	assert.False(t, cs.RemovalDue(time.Now(), 0), "nothing to remove")

	now := time.Now()
	cs.TransitionToDetected(pn532.Target{UID: []byte{0x04, 0xA1, 0xB2, 0xC3}, ATQA: [2]byte{0x00, 0x04}, SAK: 0x08}, now)
	assert.Equal(t, StateTagDetected, cs.DetectionState)
	assert.Equal(t, "TagDetected", cs.DetectionState.String())
	assert.True(t, cs.Present)
	assert.Equal(t, "04A1B2C3", cs.LastUID)
	assert.Equal(t, pn532.TagKindMIFAREClassic, cs.LastKind)

	assert.False(t, cs.RemovalDue(now.Add(100*time.Millisecond), time.Second))
	assert.True(t, cs.RemovalDue(now.Add(time.Second), time.Second))

	cs.TransitionToIdle()
	assert.Equal(t, CardState{}, cs)
	assert.Equal(t, "Idle", cs.DetectionState.String())
}

func TestSleepRecoveryConfig_DetectSleep(t *testing.T) {
	t.Parallel()

	cfg := DefaultSleepRecoveryConfig()
	poll := 250 * time.Millisecond

	tests := []struct {
		name    string
		elapsed time.Duration
		enabled bool
		want    bool
	}{
		{name: "on schedule", elapsed: poll, enabled: true},
		{name: "at threshold", elapsed: poll + 2*time.Second, enabled: true},
		{name: "past threshold", elapsed: poll + 2*time.Second + 1, enabled: true, want: true},
		{name: "disabled", elapsed: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := cfg
			c.Enabled = tt.enabled
			assert.Equal(t, tt.want, c.DetectSleep(tt.elapsed, poll))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, pn532.DefaultListTimeout, cfg.ListTimeout)
	assert.Equal(t, 600*time.Millisecond, cfg.CardRemovalTimeout)
	assert.True(t, cfg.SleepRecovery.Enabled)
	assert.Nil(t, cfg.Logger)
}

func TestConfig_Normalized(t *testing.T) {
	t.Parallel()

	cfg := (&Config{PollInterval: -1, CardRemovalTimeout: -time.Second}).normalized()
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, pn532.DefaultListTimeout, cfg.ListTimeout)
	assert.Zero(t, cfg.CardRemovalTimeout)
	assert.NotNil(t, cfg.Logger)

	custom := DefaultConfig()
	custom.ListTimeout = 3 * time.Second
	assert.Equal(t, 3*time.Second, custom.normalized().ListTimeout)
	assert.Nil(t, custom.Logger, "normalized must not modify the receiver")
}
