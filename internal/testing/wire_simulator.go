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

// Package testing provides a simulated PN532 on an I2C bus.
//
// VirtualPN532 implements the same Write/Read/Close methods as the
// pn532.Transport interface and behaves like the chip behind its I2C
// interface (PN532 User Manual section 6.2.4): every read starts with a
// status byte whose bit 0 is set once the ACK or response frame is
// available, and reading a ready frame consumes it.
package testing

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-pn532-i2c/internal/frame"
	"github.com/ZaparooProject/go-pn532-i2c/internal/syncutil"
)

// PN532 command codes handled by the simulator
const (
	cmdGetFirmwareVersion  = 0x02
	cmdGetGeneralStatus    = 0x04
	cmdSAMConfiguration    = 0x14
	cmdPowerDown           = 0x16
	cmdRFConfiguration     = 0x32
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
)

// DefaultAddress is the address the simulator answers on.
const DefaultAddress uint16 = 0x24

// ErrBusClosed is returned by every call after Close.
var ErrBusClosed = errors.New("simulated bus closed")

// SimulatorPowerMode represents the PN532 power state
type SimulatorPowerMode int

const (
	PowerModeNormal    SimulatorPowerMode = iota // CPU running
	PowerModePowerDown                           // Oscillator stopped
)

// SimulatorState tracks the internal state of the simulated PN532
type SimulatorState struct {
	PowerMode     SimulatorPowerMode
	RFFieldOn     bool
	SAMConfigured bool
	// MaxRetries is the last RFConfiguration item 0x05 payload.
	MaxRetries []byte
	// WakeupSources is the last PowerDown WakeUpEnable mask.
	WakeupSources byte
}

// VirtualPN532 simulates a PN532 at the I2C level. All methods are safe
// for concurrent use.
type VirtualPN532 struct {
	readyAt         time.Time
	readErr         error
	writeErr        error
	overrides       map[byte][]byte
	pending         []byte
	queued          []byte
	commands        []byte
	tags            []*VirtualTag
	state           SimulatorState
	ackDelay        time.Duration
	responseDelay   time.Duration
	writes          int
	reads           int
	shortReads      int
	dropACKs        int
	addr            uint16
	mu              syncutil.Mutex
	firmware        [4]byte
	pendingIsAck    bool
	sleepAfterRead  bool
	neverReady      bool
	injectBadAck    bool
	injectChecksum  bool
	injectOpcode    bool
	closed          bool
}

// NewVirtualPN532 creates a simulator in normal power mode with no tags in
// the field. It reports firmware IC 0x32, version 1.6, support 0x07.
func NewVirtualPN532() *VirtualPN532 {
	return &VirtualPN532{
		addr:      DefaultAddress,
		firmware:  [4]byte{0x32, 0x01, 0x06, 0x07},
		overrides: make(map[byte][]byte),
	}
}

// String names the simulated bus in traces.
func (*VirtualPN532) String() string {
	return "sim"
}

// Write receives bytes from the host. A write while powered down wakes the
// chip and is otherwise discarded. A valid command frame is acknowledged and
// its response is queued behind the ACK.
func (v *VirtualPN532) Write(addr uint16, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkBus(addr); err != nil {
		return err
	}
	v.writes++
	if v.writeErr != nil {
		return v.writeErr
	}

	if v.state.PowerMode == PowerModePowerDown {
		v.state.PowerMode = PowerModeNormal
		return nil
	}
	if frame.IsAck(data) {
		// Host ACK aborts the current command
		v.pending, v.queued = nil, nil
		return nil
	}

	f, err := frame.Decode(data)
	if err != nil || f.TFI != frame.HostToPn532 {
		// The chip ignores frames it cannot parse
		return nil
	}
	v.commands = append(v.commands, f.Opcode)

	if v.neverReady {
		return nil
	}
	if v.dropACKs > 0 {
		v.dropACKs--
		return nil
	}

	ack := frame.AckFrame
	if v.injectBadAck {
		v.injectBadAck = false
		ack = frame.NackFrame
	}
	v.pending = append([]byte(nil), ack...)
	v.pendingIsAck = true
	v.readyAt = time.Now().Add(v.ackDelay)
	v.queued = v.respond(f.Opcode, f.Payload)
	return nil
}

// Read returns n bytes: the status byte and, when ready, the pending frame
// padded with zeros.
func (v *VirtualPN532) Read(addr uint16, n int) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkBus(addr); err != nil {
		return nil, err
	}
	v.reads++
	if v.readErr != nil {
		return nil, v.readErr
	}
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if v.shortReads > 0 {
		v.shortReads--
		return buf[:n-1], nil
	}
	if v.state.PowerMode == PowerModePowerDown || v.pending == nil || time.Now().Before(v.readyAt) {
		return buf, nil
	}

	buf[0] = 0x01
	copy(buf[1:], v.pending)
	v.consume()
	return buf, nil
}

// consume drops the frame just read and, after an ACK, arms the response.
func (v *VirtualPN532) consume() {
	wasAck := v.pendingIsAck
	v.pending = nil
	v.pendingIsAck = false
	if wasAck && v.queued != nil {
		v.pending = v.queued
		v.queued = nil
		v.readyAt = time.Now().Add(v.responseDelay)
		return
	}
	if !wasAck && v.sleepAfterRead {
		v.sleepAfterRead = false
		v.state.PowerMode = PowerModePowerDown
	}
}

// Close marks the bus closed.
func (v *VirtualPN532) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *VirtualPN532) checkBus(addr uint16) error {
	if v.closed {
		return ErrBusClosed
	}
	if addr != v.addr {
		return fmt.Errorf("no device at 0x%02X: %w", addr, syscall.ENXIO)
	}
	return nil
}

// respond builds the response frame for a command.
func (v *VirtualPN532) respond(opcode byte, params []byte) []byte {
	if payload, ok := v.overrides[opcode]; ok {
		return v.buildResponse(opcode, payload)
	}

	var payload []byte
	switch opcode {
	case cmdGetFirmwareVersion:
		payload = v.firmware[:]
	case cmdGetGeneralStatus:
		payload = v.generalStatus()
	case cmdSAMConfiguration:
		if len(params) < 1 {
			return append([]byte(nil), frame.ErrorFrame...)
		}
		v.state.SAMConfigured = true
	case cmdRFConfiguration:
		if len(params) < 1 {
			return append([]byte(nil), frame.ErrorFrame...)
		}
		if params[0] == 0x05 {
			v.state.MaxRetries = append([]byte(nil), params[1:]...)
		}
	case cmdInListPassiveTarget:
		if len(params) < 2 {
			return append([]byte(nil), frame.ErrorFrame...)
		}
		payload = v.listTargets(params[0], params[1])
	case cmdInRelease:
		payload = BuildStatusResponse(0x00)
	case cmdPowerDown:
		if len(params) < 1 {
			return append([]byte(nil), frame.ErrorFrame...)
		}
		v.state.WakeupSources = params[0]
		v.state.RFFieldOn = false
		v.sleepAfterRead = true
		payload = BuildStatusResponse(0x00)
	default:
		return append([]byte(nil), frame.ErrorFrame...)
	}
	return v.buildResponse(opcode, payload)
}

func (v *VirtualPN532) buildResponse(opcode byte, payload []byte) []byte {
	respOpcode := opcode + frame.ResponseOffset
	if v.injectOpcode {
		v.injectOpcode = false
		respOpcode++
	}
	out := frame.Encode(frame.Pn532ToHost, respOpcode, payload)
	if v.injectChecksum {
		v.injectChecksum = false
		out[len(out)-2] ^= 0xFF
	}
	return out
}

// listTargets answers InListPassiveTarget. Only 106 kbps Type A finds tags.
func (v *VirtualPN532) listTargets(maxTg, brTy byte) []byte {
	v.state.RFFieldOn = true
	if brTy != 0x00 {
		return BuildNoTagResponse()
	}
	limit := min(int(maxTg), 2)
	var found []*VirtualTag
	for _, tag := range v.tags {
		if len(found) == limit {
			break
		}
		if tag.Present {
			found = append(found, tag)
		}
	}
	if len(found) == 0 {
		return BuildNoTagResponse()
	}
	return BuildListResponse(found...)
}

func (v *VirtualPN532) generalStatus() []byte {
	field := byte(0)
	if v.state.RFFieldOn {
		field = 1
	}
	return []byte{0x00, field, 0x00, 0x00}
}

// SetAddress changes the address the simulator answers on.
func (v *VirtualPN532) SetAddress(addr uint16) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.addr = addr
}

// AddTag adds a virtual tag that can be detected by InListPassiveTarget.
func (v *VirtualPN532) AddTag(tag *VirtualTag) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tags = append(v.tags, tag)
}

// SetTag removes all existing tags and adds a single tag.
func (v *VirtualPN532) SetTag(tag *VirtualTag) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tags = []*VirtualTag{tag}
}

// RemoveAllTags empties the field.
func (v *VirtualPN532) RemoveAllTags() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tags = nil
}

// SetFirmwareVersion configures the GetFirmwareVersion reply.
func (v *VirtualPN532) SetFirmwareVersion(ic, ver, rev, support byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.firmware = [4]byte{ic, ver, rev, support}
}

// SetResponse makes every future opcode command answer with payload.
func (v *VirtualPN532) SetResponse(opcode byte, payload []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overrides[opcode] = append([]byte(nil), payload...)
}

// SetAckDelay delays the ACK after each command write.
func (v *VirtualPN532) SetAckDelay(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ackDelay = d
}

// SetResponseDelay delays the response after the ACK has been read.
func (v *VirtualPN532) SetResponseDelay(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.responseDelay = d
}

// SetNeverReady makes the chip accept writes but never report ready.
func (v *VirtualPN532) SetNeverReady(never bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.neverReady = never
}

// DropNextACKs makes the next n commands go unanswered.
func (v *VirtualPN532) DropNextACKs(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropACKs = n
}

// InjectBadAck replaces the next ACK with a NACK.
func (v *VirtualPN532) InjectBadAck() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.injectBadAck = true
}

// InjectChecksumError corrupts the data checksum of the next response.
func (v *VirtualPN532) InjectChecksumError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.injectChecksum = true
}

// InjectWrongOpcode makes the next response carry the wrong opcode.
func (v *VirtualPN532) InjectWrongOpcode() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.injectOpcode = true
}

// InjectShortReads makes the next n reads return one byte less than
// requested.
func (v *VirtualPN532) InjectShortReads(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shortReads = n
}

// FailReads makes every read fail with err until called with nil.
func (v *VirtualPN532) FailReads(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readErr = err
}

// FailWrites makes every write fail with err until called with nil.
func (v *VirtualPN532) FailWrites(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeErr = err
}

// GetState returns the current simulator state.
func (v *VirtualPN532) GetState() SimulatorState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// WriteCount returns the number of Write calls that reached the device.
func (v *VirtualPN532) WriteCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writes
}

// ReadCount returns the number of Read calls that reached the device.
func (v *VirtualPN532) ReadCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reads
}

// Commands returns the opcodes of every command frame received.
func (v *VirtualPN532) Commands() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.commands...)
}

// HasPendingResponse reports whether a frame is waiting to be read.
func (v *VirtualPN532) HasPendingResponse() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending != nil
}
