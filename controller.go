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
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Option configures a Controller.
type Option func(*Controller) error

// WithChannel applies channel options such as WithAckTimeout or WithAddress.
func WithChannel(opts ...ChannelOption) Option {
	return func(c *Controller) error {
		for _, opt := range opts {
			opt(&c.channelCfg)
		}
		return nil
	}
}

// WithLogger sets the logger for the controller and its channel.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", ErrInvalidParameter)
		}
		c.channelCfg.Logger = l
		return nil
	}
}

// WithRFRetries overrides the MaxRetries values applied by Setup.
func WithRFRetries(r RFRetries) Option {
	return func(c *Controller) error {
		c.rfRetries = r
		return nil
	}
}

// WithWakeupSources sets the PowerDown WakeUpEnable mask. The mask must
// include at least one source or the chip could only be woken by reset.
func WithWakeupSources(mask byte) Option {
	return func(c *Controller) error {
		if mask == 0 {
			return fmt.Errorf("%w: empty wake-up source mask", ErrInvalidParameter)
		}
		c.wakeupSources = mask
		return nil
	}
}

// Controller exposes the PN532 operations. Each call runs one or more
// transactions on its Channel and returns when they complete or time out.
//
// Thread Safety: Controller is NOT thread-safe. Serialize calls with
// SharedController or an external mutex. Controllers on different buses
// share no state and may be used in parallel.
type Controller struct {
	channel       *Channel
	log           *zap.Logger
	channelCfg    ChannelConfig
	rfRetries     RFRetries
	wakeupSources byte
}

// New creates a controller on t. No command is sent: the chip may already
// be configured, or asleep, and the caller decides what to do first.
func New(t Transport, opts ...Option) (*Controller, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	c := &Controller{
		channelCfg:    DefaultChannelConfig(),
		rfRetries:     DefaultRFRetries(),
		wakeupSources: WakeupI2C | WakeupINT1,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.channel = newChannel(t, c.channelCfg)
	c.log = c.channel.log
	return c, nil
}

// State returns the current device state.
func (c *Controller) State() DeviceState {
	return c.channel.State()
}

// Channel returns the underlying channel.
func (c *Controller) Channel() *Channel {
	return c.channel
}

// FirmwareVersion queries GetFirmwareVersion.
func (c *Controller) FirmwareVersion(ctx context.Context) (FirmwareVersion, error) {
	resp, err := c.channel.Transceive(ctx, Command{Opcode: cmdGetFirmwareVersion}, 0)
	if err != nil {
		return FirmwareVersion{}, err
	}
	fw, err := parseFirmwareVersion(resp.Payload)
	if err != nil {
		return FirmwareVersion{}, err
	}
	c.log.Debug("firmware version", zap.Stringer("firmware", fw))
	return fw, nil
}

// Setup configures the SAM for normal mode with no timeout and the IRQ pin
// unused, then sets the RF retry counts. It stops at the first failing step
// and reports it in a *SetupError. Earlier steps are not undone.
func (c *Controller) Setup(ctx context.Context) error {
	if err := c.exec(ctx, cmdSamConfiguration, samConfigPayload); err != nil {
		return &SetupError{Step: SetupStepSAMConfiguration, Err: err}
	}
	if err := c.exec(ctx, cmdRFConfiguration, c.rfRetries.payload()); err != nil {
		return &SetupError{Step: SetupStepRFConfiguration, Err: err}
	}
	c.log.Debug("setup complete",
		zap.Uint8("mx_rty_atr", c.rfRetries.ATR),
		zap.Uint8("mx_rty_psl", c.rfRetries.PSL),
		zap.Uint8("mx_rty_passive", c.rfRetries.PassiveActivation))
	return nil
}

// List looks for one 106 kbps Type A target. timeout bounds the response
// wait, which is how long the chip keeps the field up looking for a card;
// zero selects DefaultListTimeout. Finding nothing is not an error: the
// result is an empty slice.
func (c *Controller) List(ctx context.Context, timeout time.Duration) ([]Target, error) {
	return c.ListPassive(ctx, BaudRate106A, nil, timeout)
}

// ListPassive runs InListPassiveTarget for a single target at rate.
// initiator is the rate-specific InitiatorData: empty for Type A and Jewel,
// the AFI for Type B, the 5-byte polling payload for FeliCa.
func (c *Controller) ListPassive(
	ctx context.Context, rate BaudRate, initiator []byte, timeout time.Duration,
) ([]Target, error) {
	if timeout <= 0 {
		timeout = DefaultListTimeout
	}
	payload := append([]byte{0x01, byte(rate)}, initiator...)
	resp, err := c.channel.Transceive(ctx, Command{Opcode: cmdInListPassiveTarget, Payload: payload}, timeout)
	if err != nil {
		return nil, err
	}
	targets, err := parseTargets(rate, resp.Payload)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		c.log.Debug("target detected", zap.Stringer("target", t))
	}
	return targets, nil
}

// Release releases target number tg (0 releases all targets).
func (c *Controller) Release(ctx context.Context, tg byte) error {
	resp, err := c.channel.Transceive(ctx, Command{Opcode: cmdInRelease, Payload: []byte{tg}}, 0)
	if err != nil {
		return err
	}
	return checkStatus(cmdInRelease, resp.Payload)
}

// GeneralStatus queries GetGeneralStatus.
func (c *Controller) GeneralStatus(ctx context.Context) (GeneralStatus, error) {
	resp, err := c.channel.Transceive(ctx, Command{Opcode: cmdGetGeneralStatus}, 0)
	if err != nil {
		return GeneralStatus{}, err
	}
	return parseGeneralStatus(resp.Payload)
}

// PowerDown puts the chip to sleep with the configured wake-up sources.
// Afterwards every operation fails with ErrDeviceAsleep, without touching
// the bus, until Wake is called.
func (c *Controller) PowerDown(ctx context.Context) error {
	resp, err := c.channel.Transceive(ctx, Command{Opcode: cmdPowerDown, Payload: []byte{c.wakeupSources}}, 0)
	if err != nil {
		return err
	}
	return checkStatus(cmdPowerDown, resp.Payload)
}

// Wake sends the I2C wake sequence and returns the controller to
// StateIdle.
func (c *Controller) Wake(ctx context.Context) error {
	return c.channel.Wake(ctx)
}

// Command sends an arbitrary command and returns the response payload. It
// is subject to the same handshake, retry and power-down rules as the
// typed operations.
func (c *Controller) Command(ctx context.Context, opcode byte, payload []byte, timeout time.Duration) ([]byte, error) {
	resp, err := c.channel.Transceive(ctx, Command{Opcode: opcode, Payload: payload}, timeout)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// Close closes the transport.
func (c *Controller) Close() error {
	return c.channel.Close()
}

// exec runs a command whose response carries no payload.
func (c *Controller) exec(ctx context.Context, opcode byte, payload []byte) error {
	resp, err := c.channel.Transceive(ctx, Command{Opcode: opcode, Payload: payload}, 0)
	if err != nil {
		return err
	}
	if len(resp.Payload) != 0 {
		return fmt.Errorf("%w: %s returned %d unexpected bytes",
			ErrProtocol, CommandName(opcode), len(resp.Payload))
	}
	return nil
}

// checkStatus validates a single status byte response.
func checkStatus(opcode byte, payload []byte) error {
	if len(payload) != 1 {
		return fmt.Errorf("%w: %s status is %d bytes, want 1", ErrProtocol, CommandName(opcode), len(payload))
	}
	if payload[0]&0x3F != 0 {
		return &StatusError{Command: opcode, Code: payload[0]}
	}
	return nil
}

// IsAsleep reports whether err was caused by a command issued while the chip
// was powered down.
func IsAsleep(err error) bool {
	return errors.Is(err, ErrDeviceAsleep)
}
