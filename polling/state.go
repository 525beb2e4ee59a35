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
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
)

// CardDetectionState represents the finite state machine for card detection
type CardDetectionState int

const (
	StateIdle CardDetectionState = iota
	StateTagDetected
)

func (s CardDetectionState) String() string {
	if s == StateTagDetected {
		return "TagDetected"
	}
	return "Idle"
}

// CardState tracks the state of a card on a reader
type CardState struct {
	LastSeenTime   time.Time
	LastUID        string
	LastKind       pn532.TagKind
	DetectionState CardDetectionState
	Present        bool
}

// TransitionToDetected records target as the card currently in the field
func (cs *CardState) TransitionToDetected(target pn532.Target, now time.Time) {
	cs.DetectionState = StateTagDetected
	cs.Present = true
	cs.LastUID = target.UIDString()
	cs.LastKind = target.Kind()
	cs.LastSeenTime = now
}

// TransitionToIdle resets to idle state
func (cs *CardState) TransitionToIdle() {
	cs.DetectionState = StateIdle
	cs.Present = false
	cs.LastUID = ""
	cs.LastKind = ""
	cs.LastSeenTime = time.Time{}
}

// RemovalDue reports whether a present card has been unseen for at least
// timeout.
func (cs *CardState) RemovalDue(now time.Time, timeout time.Duration) bool {
	return cs.Present && now.Sub(cs.LastSeenTime) >= timeout
}
