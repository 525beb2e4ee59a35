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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_DoublesUpToCap(t *testing.T) {
	t.Parallel()

	b := newBackoff(10 * time.Millisecond)
	bases := []time.Duration{10, 20, 40, 80, 80, 80}
	for i, base := range bases {
		base *= time.Millisecond
		got := b.Next()
		assert.GreaterOrEqual(t, got, base, "step %d", i)
		assert.LessOrEqual(t, got, base+base/10, "step %d", i)
	}
}

func TestJittered(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, jittered(time.Second, 0))
	for range 50 {
		got := jittered(time.Second, 0.5)
		assert.GreaterOrEqual(t, got, time.Second)
		assert.Less(t, got, 1500*time.Millisecond)
	}
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
