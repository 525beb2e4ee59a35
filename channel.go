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

	"github.com/ZaparooProject/go-pn532-i2c/internal/frame"
)

// errNotReady is internal: pollReady hit its deadline. Transceive maps it to
// ErrAckTimeout or ErrResponseTimeout depending on the phase.
var errNotReady = errors.New("device not ready")

// Command is one request to the PN532.
type Command struct {
	Payload []byte
	Opcode  byte
}

// Response is the decoded reply to a Command. Opcode is always the command
// opcode plus one.
type Response struct {
	Payload []byte
	Opcode  byte
}

// ChannelConfig holds the handshake parameters of a Channel.
type ChannelConfig struct {
	// Logger receives TX/RX frames and retries at debug level.
	Logger *zap.Logger
	// AckTimeout bounds the wait for the ACK frame.
	AckTimeout time.Duration
	// PollInterval is the spacing between ready-status reads.
	PollInterval time.Duration
	// WakeDelay is the pause after the wake sequence.
	WakeDelay time.Duration
	// TraceSize is the number of transfers kept for TraceableError.
	TraceSize int
	// Address is the 7-bit I2C address of the chip.
	Address uint16
}

// DefaultChannelConfig returns the default handshake parameters.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Address:      DefaultAddress,
		AckTimeout:   DefaultAckTimeout,
		PollInterval: DefaultPollInterval,
		WakeDelay:    DefaultWakeDelay,
		TraceSize:    defaultTraceSize,
	}
}

// normalize replaces unusable values with defaults.
func (c *ChannelConfig) normalize() {
	def := DefaultChannelConfig()
	if c.AckTimeout <= 0 {
		c.AckTimeout = def.AckTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.WakeDelay < 0 {
		c.WakeDelay = def.WakeDelay
	}
	if c.TraceSize <= 0 {
		c.TraceSize = def.TraceSize
	}
	if c.Logger == nil {
		c.Logger = defaultLogger()
	}
}

// ChannelOption configures a Channel.
type ChannelOption func(*ChannelConfig)

// WithAddress overrides the I2C address (default 0x24).
func WithAddress(addr uint16) ChannelOption {
	return func(c *ChannelConfig) { c.Address = addr }
}

// WithAckTimeout overrides the ACK wait bound (default 1s).
func WithAckTimeout(d time.Duration) ChannelOption {
	return func(c *ChannelConfig) { c.AckTimeout = d }
}

// WithPollInterval overrides the ready-poll spacing (default 10ms).
func WithPollInterval(d time.Duration) ChannelOption {
	return func(c *ChannelConfig) { c.PollInterval = d }
}

// WithWakeDelay overrides the pause after the wake sequence.
func WithWakeDelay(d time.Duration) ChannelOption {
	return func(c *ChannelConfig) { c.WakeDelay = d }
}

// WithTraceSize sets how many transfers a TraceableError carries.
func WithTraceSize(n int) ChannelOption {
	return func(c *ChannelConfig) { c.TraceSize = n }
}

// WithChannelLogger sets the logger used for wire-level debug output.
func WithChannelLogger(l *zap.Logger) ChannelOption {
	return func(c *ChannelConfig) { c.Logger = l }
}

// Channel runs PN532 transactions over a Transport: write the command frame,
// wait for the ACK, wait for the response, check that it belongs to the
// command.
//
// Channel is not safe for concurrent use. It owns the transport for the
// duration of every call; use SharedController to serialize access from
// several goroutines.
type Channel struct {
	transport Transport
	log       *zap.Logger
	trace     *TraceBuffer
	cfg       ChannelConfig
	state     DeviceState
	closed    bool
}

// NewChannel creates a channel. No bus traffic happens until the first
// Transceive or Wake.
func NewChannel(t Transport, opts ...ChannelOption) *Channel {
	cfg := DefaultChannelConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newChannel(t, cfg)
}

func newChannel(t Transport, cfg ChannelConfig) *Channel {
	cfg.normalize()
	return &Channel{
		transport: t,
		cfg:       cfg,
		log:       cfg.Logger,
		trace:     NewTraceBuffer(transportName(t), cfg.Address, cfg.TraceSize),
		state:     StateIdle,
	}
}

// Config returns the effective channel configuration.
func (c *Channel) Config() ChannelConfig {
	return c.cfg
}

// State returns the current device state.
func (c *Channel) State() DeviceState {
	return c.state
}

// Transceive performs one full handshake for cmd. responseTimeout bounds the
// wait for the response frame; zero selects DefaultResponseTimeout.
//
// The command is written a second time only if the first attempt ended in
// ErrAckTimeout. Every failure is returned as a *TraceableError wrapping a
// *CommandError, so errors.Is works against the sentinel errors.
func (c *Channel) Transceive(ctx context.Context, cmd Command, responseTimeout time.Duration) (Response, error) {
	if c.closed {
		return Response{}, &CommandError{Command: cmd.Opcode, Err: ErrTransportClosed}
	}
	if c.state == StatePoweredDown {
		return Response{}, &CommandError{Command: cmd.Opcode, Err: ErrDeviceAsleep}
	}
	if len(cmd.Payload) > frame.MaxPayloadLength {
		return Response{}, &CommandError{
			Command: cmd.Opcode,
			Err: fmt.Errorf("%w: %d bytes, maximum is %d",
				ErrPayloadTooLarge, len(cmd.Payload), frame.MaxPayloadLength),
		}
	}
	if responseTimeout <= 0 {
		responseTimeout = DefaultResponseTimeout
	}

	c.trace.Clear()
	out := frame.EncodeCommand(cmd.Opcode, cmd.Payload)

	var err error
	attempts := 0
	for attempts < ackAttempts {
		attempts++
		var resp Response
		resp, err = c.handshake(ctx, cmd.Opcode, out, responseTimeout)
		if err == nil {
			c.state = StateIdle
			if cmd.Opcode == cmdPowerDown {
				c.enterPowerDown(ctx, resp)
			}
			return resp, nil
		}
		if !errors.Is(err, ErrAckTimeout) {
			break
		}
		if attempts < ackAttempts {
			c.log.Debug("ACK timeout, resending command",
				zap.String("command", CommandName(cmd.Opcode)),
				zap.Duration("ack_timeout", c.cfg.AckTimeout))
		}
	}

	c.state = StateError
	c.log.Debug("transaction failed",
		zap.String("command", CommandName(cmd.Opcode)),
		zap.Int("attempts", attempts),
		zap.Error(err))
	return Response{}, c.trace.WrapError(&CommandError{Command: cmd.Opcode, Attempts: attempts, Err: err})
}

func (c *Channel) handshake(
	ctx context.Context, opcode byte, out []byte, responseTimeout time.Duration,
) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if err := c.write(out, CommandName(opcode)); err != nil {
		return Response{}, err
	}

	c.state = StateAwaitingAck
	ack, err := c.pollReady(ctx, frame.AckLength, c.cfg.AckTimeout)
	if errors.Is(err, errNotReady) {
		c.trace.RecordTimeout("ACK")
		return Response{}, ErrAckTimeout
	}
	if err != nil {
		return Response{}, err
	}
	c.trace.RecordRX(ack, "ACK")
	if !frame.IsAck(ack) {
		return Response{}, fmt.Errorf("%w: got %s", ErrAckMismatch, formatHexBytes(ack))
	}

	c.state = StateAwaitingResponse
	raw, err := c.pollReady(ctx, frame.MaxFrameLength, responseTimeout)
	if errors.Is(err, errNotReady) {
		c.trace.RecordTimeout("response")
		return Response{}, fmt.Errorf("%w after %v", ErrResponseTimeout, responseTimeout)
	}
	if err != nil {
		return Response{}, err
	}

	f, err := frame.Decode(raw)
	if err != nil {
		c.trace.RecordRX(raw, "undecodable response")
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}
	c.trace.RecordRX(raw[:frame.Overhead+len(f.Payload)+2], "response")
	c.log.Debug("rx",
		zap.String("command", CommandName(opcode)),
		hexField("payload", f.Payload))

	if f.TFI != frame.Pn532ToHost {
		return Response{}, fmt.Errorf("%w: response TFI 0x%02X", ErrMalformedFrame, f.TFI)
	}
	if want := opcode + frame.ResponseOffset; f.Opcode != want {
		return Response{}, fmt.Errorf("%w: want 0x%02X, got 0x%02X", ErrOpcodeMismatch, want, f.Opcode)
	}
	return Response{Opcode: f.Opcode, Payload: f.Payload}, nil
}

// pollReady reads 1+n bytes until the status byte reports ready, then
// returns the n bytes after it. The deadline is checked after each read, so
// at least one read happens even with a zero timeout. A short read counts as
// not ready.
func (c *Channel) pollReady(ctx context.Context, n int, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		buf, err := c.read(n + 1)
		if err != nil {
			return nil, err
		}
		if len(buf) == n+1 && buf[0]&statusReady != 0 {
			return buf[1:], nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errNotReady
		}
		if err := sleepCtx(ctx, min(c.cfg.PollInterval, remaining)); err != nil {
			return nil, err
		}
	}
}

// enterPowerDown moves the channel to StatePoweredDown when the chip
// reported success, then leaves the bus idle for the quiet period.
func (c *Channel) enterPowerDown(ctx context.Context, resp Response) {
	if len(resp.Payload) != 1 || resp.Payload[0]&0x3F != 0 {
		return
	}
	c.state = StatePoweredDown
	c.log.Debug("device powered down")
	_ = sleepCtx(ctx, PowerDownQuietPeriod)
}

// Wake sends the I2C wake sequence: an address-match write of a single zero
// byte, then WakeDelay. A powered-down chip may NAK that write, so write
// errors are logged and otherwise ignored. The channel returns to StateIdle.
func (c *Channel) Wake(ctx context.Context) error {
	if c.closed {
		return ErrTransportClosed
	}
	if err := c.transport.Write(c.cfg.Address, []byte{0x00}); err != nil {
		c.log.Debug("wake write not acknowledged", zap.Error(err))
	}
	if err := sleepCtx(ctx, c.cfg.WakeDelay); err != nil {
		return err
	}
	c.state = StateIdle
	return nil
}

// Close closes the underlying transport. Further calls fail with
// ErrTransportClosed.
func (c *Channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.transport.Close(); err != nil {
		return fmt.Errorf("closing transport: %w", err)
	}
	return nil
}

func (c *Channel) write(data []byte, note string) error {
	c.log.Debug("tx", zap.String("command", note), hexField("frame", data))
	c.trace.RecordTX(data, note)
	if err := c.transport.Write(c.cfg.Address, data); err != nil {
		return &IOError{Op: "write", Addr: c.cfg.Address, Err: err}
	}
	return nil
}

func (c *Channel) read(n int) ([]byte, error) {
	buf, err := c.transport.Read(c.cfg.Address, n)
	if err != nil {
		return nil, &IOError{Op: "read", Addr: c.cfg.Address, Err: err}
	}
	return buf, nil
}

// sleepCtx performs a context-aware sleep. Returns ctx.Err() if context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
