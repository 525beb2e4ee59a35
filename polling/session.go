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

// Package polling watches a PN532 for cards arriving in and leaving the RF
// field by issuing repeated passive-target listings.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	"github.com/ZaparooProject/go-pn532-i2c/internal/syncutil"
	"go.uber.org/zap"
)

// ErrRecoveryFailed wraps the last recovery error after a host sleep.
var ErrRecoveryFailed = errors.New("device recovery failed")

// Session handles continuous card monitoring with state machine
type Session struct {
	device         Device
	recoverer      DeviceRecoverer
	config         *Config
	log            *zap.Logger
	onCardDetected func(pn532.Target) error
	onCardChanged  func(pn532.Target) error
	onCardRemoved  func()
	pauseChan      chan struct{}
	resumeChan     chan struct{}
	ackChan        chan struct{}
	runDone        chan struct{}
	now            func() time.Time
	state          CardState
	stateMutex     syncutil.RWMutex
	isPaused       atomic.Bool
	running        atomic.Bool
}

// NewSession creates a new card monitoring session. A nil config uses
// DefaultConfig.
func NewSession(device Device, config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.normalized()
	return &Session{
		device: device,
		recoverer: NewDefaultRecoverer(
			device,
			config.SleepRecovery.RecoveryBackoff,
			config.SleepRecovery.MaxRecoveryAttempts,
		),
		config:     config,
		log:        config.Logger,
		pauseChan:  make(chan struct{}, 1),
		resumeChan: make(chan struct{}, 1),
		ackChan:    make(chan struct{}, 1),
		now:        time.Now,
	}
}

// SetRecoverer replaces the recoverer used after a detected host sleep.
func (s *Session) SetRecoverer(r DeviceRecoverer) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.recoverer = r
}

// SetOnCardDetected sets the callback for a card entering an empty field.
// A returned error stops the session.
func (s *Session) SetOnCardDetected(callback func(pn532.Target) error) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.onCardDetected = callback
}

// SetOnCardChanged sets the callback for a different card replacing the
// current one between two polls.
func (s *Session) SetOnCardChanged(callback func(pn532.Target) error) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.onCardChanged = callback
}

// SetOnCardRemoved sets the callback for the current card leaving the field.
func (s *Session) SetOnCardRemoved(callback func()) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.onCardRemoved = callback
}

// GetState returns a copy of the current card state
func (s *Session) GetState() CardState {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.state
}

// Start polls until ctx is done, a callback fails, or the device reports a
// fatal error. It returns ctx.Err() on cancellation.
func (s *Session) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("polling session already running")
	}
	defer s.running.Store(false)

	runDone := make(chan struct{})
	s.stateMutex.Lock()
	s.runDone = runDone
	s.stateMutex.Unlock()
	defer close(runDone)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	lastPoll := s.now()
	for {
		if err := s.handleContextAndPause(ctx); err != nil {
			return err
		}

		if err := s.checkSleep(ctx, s.now().Sub(lastPoll)); err != nil {
			return err
		}

		if err := s.executeSinglePollingCycle(ctx); err != nil {
			return err
		}
		lastPoll = s.now()

		if err := s.waitForNextPollOrPause(ctx, ticker); err != nil {
			return err
		}
	}
}

// checkSleep runs recovery when the gap since the last poll is too long to
// be scheduling jitter.
func (s *Session) checkSleep(ctx context.Context, elapsed time.Duration) error {
	if !s.config.SleepRecovery.DetectSleep(elapsed, s.config.PollInterval) {
		return nil
	}

	s.log.Info("host sleep detected, recovering device", zap.Duration("elapsed", elapsed))
	s.stateMutex.RLock()
	recoverer := s.recoverer
	s.stateMutex.RUnlock()

	if err := recoverer.AttemptRecovery(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrRecoveryFailed, err)
	}
	// Whatever was in the field before the sleep is stale
	s.handleCardRemoval()
	return nil
}

// executeSinglePollingCycle performs one List and processes the result
func (s *Session) executeSinglePollingCycle(ctx context.Context) error {
	targets, err := s.device.List(ctx, s.config.ListTimeout)
	if err != nil {
		return s.handlePollingError(ctx, err)
	}

	if len(targets) == 0 {
		s.removeIfDue()
		return nil
	}

	if err := s.processPollingResults(targets[0]); err != nil {
		return fmt.Errorf("callback error during polling: %w", err)
	}
	return nil
}

// handlePollingError decides whether a failed List ends the session.
func (s *Session) handlePollingError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if pn532.IsFatal(err) || pn532.IsAsleep(err) {
		s.handleCardRemoval()
		return fmt.Errorf("polling stopped: %w", err)
	}

	// Counts as an empty poll; the card goes only once the removal
	// timeout has passed.
	s.log.Warn("poll failed", zap.Error(err))
	s.removeIfDue()
	return nil
}

// removeIfDue reports the card removed once it has been unseen for
// CardRemovalTimeout.
func (s *Session) removeIfDue() {
	s.stateMutex.RLock()
	due := s.state.RemovalDue(s.now(), s.config.CardRemovalTimeout)
	s.stateMutex.RUnlock()
	if due {
		s.handleCardRemoval()
	}
}

// waitForNextPollOrPause waits for the next poll interval or handles pause signals
func (s *Session) waitForNextPollOrPause(ctx context.Context, ticker *time.Ticker) error {
	select {
	case <-ticker.C:
		return nil
	case <-s.pauseChan:
		return s.handlePauseSignal(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handlePauseSignal sends acknowledgment and waits for resume
func (s *Session) handlePauseSignal(ctx context.Context) error {
	select {
	case s.ackChan <- struct{}{}:
	default:
	}
	return s.waitForResume(ctx)
}

func (s *Session) handleContextAndPause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.pauseChan:
		return s.handlePauseSignal(ctx)
	default:
		return nil
	}
}

func (s *Session) waitForResume(ctx context.Context) error {
	select {
	case <-s.resumeChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause stops the polling loop and blocks until it is parked between polls,
// so an in-flight List has returned and the bus is free for other
// commands. If the loop is not running it returns at once and the pause
// takes effect on the next Start. If ctx ends first the pause is withdrawn
// and ctx.Err() is returned.
func (s *Session) Pause(ctx context.Context) error {
	if !s.isPaused.CompareAndSwap(false, true) {
		return nil
	}

	// An ack left over from an earlier pause must not satisfy this one
	select {
	case <-s.ackChan:
	default:
	}
	select {
	case s.pauseChan <- struct{}{}:
	default:
	}

	s.stateMutex.RLock()
	runDone := s.runDone
	s.stateMutex.RUnlock()
	if runDone == nil {
		return nil
	}

	select {
	case <-s.ackChan:
		return nil
	case <-runDone:
		return nil
	case <-ctx.Done():
		s.withdrawPause()
		return ctx.Err()
	}
}

// withdrawPause undoes a pause the loop may or may not have picked up yet.
func (s *Session) withdrawPause() {
	select {
	case <-s.pauseChan:
	default:
		// The loop took the signal and is, or soon will be, parked
		select {
		case s.resumeChan <- struct{}{}:
		default:
		}
	}
	s.isPaused.Store(false)
}

// Resume restarts the polling loop after a pause
func (s *Session) Resume() {
	if s.isPaused.CompareAndSwap(true, false) {
		select {
		case s.resumeChan <- struct{}{}:
		default:
		}
	}
}

// IsPaused reports whether Pause is in effect
func (s *Session) IsPaused() bool {
	return s.isPaused.Load()
}

// handleCardRemoval reports the current card as removed, if there is one
func (s *Session) handleCardRemoval() {
	s.stateMutex.Lock()
	wasPresent := s.state.Present
	uid := s.state.LastUID
	if wasPresent {
		s.state.TransitionToIdle()
	}
	onRemoved := s.onCardRemoved
	s.stateMutex.Unlock()

	if !wasPresent {
		return
	}
	s.log.Debug("card removed", zap.String("uid", uid))
	if onRemoved != nil {
		onRemoved()
	}
}

// processPollingResults runs the arrival or change callback for target and
// records it as present
func (s *Session) processPollingResults(target pn532.Target) error {
	uid := target.UIDString()

	s.stateMutex.RLock()
	wasPresent := s.state.Present
	changed := wasPresent && s.state.LastUID != uid
	onDetected := s.onCardDetected
	onChanged := s.onCardChanged
	s.stateMutex.RUnlock()

	switch {
	case !wasPresent:
		s.log.Debug("card detected", zap.String("uid", uid), zap.String("kind", string(target.Kind())))
		if onDetected != nil {
			if err := safeCallCallback(onDetected, target, "OnCardDetected"); err != nil {
				return err
			}
		}
	case changed:
		s.log.Debug("card changed", zap.String("uid", uid))
		if onChanged != nil {
			if err := safeCallCallback(onChanged, target, "OnCardChanged"); err != nil {
				return err
			}
		}
	}

	s.stateMutex.Lock()
	s.state.TransitionToDetected(target, s.now())
	s.stateMutex.Unlock()
	return nil
}

// safeCallCallback executes a callback with panic recovery
func safeCallCallback(callback func(pn532.Target) error, target pn532.Target, callbackName string) error {
	var callbackErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callbackErr = fmt.Errorf("%s callback panicked: %v", callbackName, r)
			}
		}()
		callbackErr = callback(target)
	}()
	if callbackErr != nil {
		return fmt.Errorf("%s callback failed: %w", callbackName, callbackErr)
	}
	return nil
}
