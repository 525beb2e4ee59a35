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
	"go.uber.org/zap"
)

const (
	defaultPollInterval       = 250 * time.Millisecond
	defaultCardRemovalTimeout = 600 * time.Millisecond
)

// SleepRecoveryConfig controls what a Session does when the gap between two
// polls is much longer than PollInterval, which happens when the host was
// suspended. The PN532 may have lost power in the meantime, so the session
// wakes it and re-runs Setup before polling again.
type SleepRecoveryConfig struct {
	// TimeDiscontinuityThreshold is the slack allowed on top of
	// PollInterval before a gap counts as a sleep.
	TimeDiscontinuityThreshold time.Duration
	// RecoveryBackoff is the first delay between recovery attempts. It
	// doubles on each further attempt.
	RecoveryBackoff     time.Duration
	MaxRecoveryAttempts int
	Enabled             bool
}

// DefaultSleepRecoveryConfig allows 2s of slack and three attempts.
func DefaultSleepRecoveryConfig() SleepRecoveryConfig {
	return SleepRecoveryConfig{
		Enabled:                    true,
		TimeDiscontinuityThreshold: 2 * time.Second,
		MaxRecoveryAttempts:        3,
		RecoveryBackoff:            500 * time.Millisecond,
	}
}

// DetectSleep reports whether elapsed, the time since the previous poll
// finished, is too long to be scheduling jitter.
func (cfg SleepRecoveryConfig) DetectSleep(elapsed, pollInterval time.Duration) bool {
	return cfg.Enabled && elapsed > pollInterval+cfg.TimeDiscontinuityThreshold
}

// Config holds polling configuration options
type Config struct {
	// Logger receives poll failures and recovery attempts; nil discards them
	Logger *zap.Logger
	// PollInterval is the pause between the end of one List and the next
	PollInterval time.Duration
	// ListTimeout is passed to Controller.List; the chip searches the RF
	// field for this long
	ListTimeout time.Duration
	// CardRemovalTimeout is how long a card may go unseen before it is
	// reported removed. Zero reports removal on the first empty poll.
	CardRemovalTimeout time.Duration
	SleepRecovery      SleepRecoveryConfig
}

// DefaultConfig returns the default polling configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:       defaultPollInterval,
		ListTimeout:        pn532.DefaultListTimeout,
		CardRemovalTimeout: defaultCardRemovalTimeout,
		SleepRecovery:      DefaultSleepRecoveryConfig(),
	}
}

// normalized returns a copy with non-positive intervals replaced by their
// defaults and a no-op logger in place of nil.
func (c Config) normalized() *Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.ListTimeout <= 0 {
		c.ListTimeout = pn532.DefaultListTimeout
	}
	if c.CardRemovalTimeout < 0 {
		c.CardRemovalTimeout = 0
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &c
}
