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
	"crypto/rand"
	"encoding/binary"
	"time"
)

const (
	backoffMultiplier = 2.0
	backoffJitter     = 0.1
	// maxBackoffFactor caps the delay at this multiple of the initial one.
	maxBackoffFactor = 8
)

// backoff produces doubling delays with up to 10% jitter.
type backoff struct {
	next time.Duration
	max  time.Duration
}

func newBackoff(initial time.Duration) *backoff {
	return &backoff{next: initial, max: initial * maxBackoffFactor}
}

// Next returns the delay to wait now and advances to the following one.
func (b *backoff) Next() time.Duration {
	sleep := jittered(b.next, backoffJitter)
	b.next = time.Duration(float64(b.next) * backoffMultiplier)
	if b.next > b.max {
		b.next = b.max
	}
	return sleep
}

// jittered adds up to factor*base of random delay.
func jittered(base time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return base
	}
	var randBytes [8]byte
	if _, err := rand.Read(randBytes[:]); err != nil {
		return base
	}
	randFloat := float64(binary.LittleEndian.Uint64(randBytes[:])) / float64(1<<64)
	return base + time.Duration(randFloat*float64(base)*factor)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
