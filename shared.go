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
	"time"

	"github.com/ZaparooProject/go-pn532-i2c/internal/syncutil"
)

// SharedController serializes access to a Controller so that several
// goroutines can use one chip. Each method holds the lock for the whole
// operation, so at most one transaction is in flight.
type SharedController struct {
	ctrl *Controller
	mu   syncutil.Mutex
}

// NewSharedController wraps ctrl. ctrl must not be used directly afterwards.
func NewSharedController(ctrl *Controller) *SharedController {
	return &SharedController{ctrl: ctrl}
}

// Do runs fn with exclusive access to the controller, for sequences that
// must not be interleaved with other callers (e.g. Wake then Setup).
func (s *SharedController) Do(fn func(*Controller) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.ctrl)
}

// State returns the current device state.
func (s *SharedController) State() DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.State()
}

// FirmwareVersion queries GetFirmwareVersion.
func (s *SharedController) FirmwareVersion(ctx context.Context) (FirmwareVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.FirmwareVersion(ctx)
}

// Setup configures the SAM and RF retries.
func (s *SharedController) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Setup(ctx)
}

// List looks for one 106 kbps Type A target.
func (s *SharedController) List(ctx context.Context, timeout time.Duration) ([]Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.List(ctx, timeout)
}

// ListPassive runs InListPassiveTarget at rate.
func (s *SharedController) ListPassive(
	ctx context.Context, rate BaudRate, initiator []byte, timeout time.Duration,
) ([]Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.ListPassive(ctx, rate, initiator, timeout)
}

// Release releases target number tg.
func (s *SharedController) Release(ctx context.Context, tg byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Release(ctx, tg)
}

// GeneralStatus queries GetGeneralStatus.
func (s *SharedController) GeneralStatus(ctx context.Context) (GeneralStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.GeneralStatus(ctx)
}

// PowerDown puts the chip to sleep.
func (s *SharedController) PowerDown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PowerDown(ctx)
}

// Wake wakes the chip.
func (s *SharedController) Wake(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Wake(ctx)
}

// Command sends an arbitrary command.
func (s *SharedController) Command(ctx context.Context, opcode byte, payload []byte, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Command(ctx, opcode, payload, timeout)
}

// Close closes the transport.
func (s *SharedController) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Close()
}
