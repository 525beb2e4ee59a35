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
	"context"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
)

// Device is the controller surface a Session needs. Both *pn532.Controller
// and *pn532.SharedController satisfy it.
type Device interface {
	List(ctx context.Context, timeout time.Duration) ([]pn532.Target, error)
	Setup(ctx context.Context) error
	Wake(ctx context.Context) error
}

// DeviceRecoverer handles device recovery after sleep/wake or errors
type DeviceRecoverer interface {
	// AttemptRecovery tries to bring the device back to a configured state.
	// Returns nil if recovery was successful, error otherwise.
	AttemptRecovery(ctx context.Context) error
}

// DefaultRecoverer wakes the chip and re-runs Setup, since a host suspend
// may have power-cycled it.
type DefaultRecoverer struct {
	device      Device
	backoff     time.Duration
	maxAttempts int
}

// NewDefaultRecoverer creates a recoverer. Non-positive arguments fall back
// to the DefaultSleepRecoveryConfig values.
func NewDefaultRecoverer(device Device, backoff time.Duration, maxAttempts int) *DefaultRecoverer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &DefaultRecoverer{
		device:      device,
		backoff:     backoff,
		maxAttempts: maxAttempts,
	}
}

// AttemptRecovery wakes the chip and re-runs Setup, up to maxAttempts times.
// The delay between attempts starts at backoff and doubles.
func (r *DefaultRecoverer) AttemptRecovery(ctx context.Context) error {
	var lastErr error
	delay := newBackoff(r.backoff)

	for attempt := range r.maxAttempts {
		if attempt > 0 {
			if err := sleepContext(ctx, delay.Next()); err != nil {
				return err
			}
		}

		// A chip that is not powered down just ignores the wake byte
		_ = r.device.Wake(ctx)

		err := r.device.Setup(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}
