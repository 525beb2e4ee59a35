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

// PN532 command codes
const (
	cmdGetFirmwareVersion  = 0x02
	cmdGetGeneralStatus    = 0x04
	cmdSamConfiguration    = 0x14
	cmdPowerDown           = 0x16
	cmdRFConfiguration     = 0x32
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
)

// commandNames is used for log fields and error messages.
var commandNames = map[byte]string{
	cmdGetFirmwareVersion:  "GetFirmwareVersion",
	cmdGetGeneralStatus:    "GetGeneralStatus",
	cmdSamConfiguration:    "SAMConfiguration",
	cmdPowerDown:           "PowerDown",
	cmdRFConfiguration:     "RFConfiguration",
	cmdInListPassiveTarget: "InListPassiveTarget",
	cmdInRelease:           "InRelease",
}

// CommandName returns a readable name for opcode, or its hex form if the
// opcode is not one the driver issues itself.
func CommandName(opcode byte) string {
	if name, ok := commandNames[opcode]; ok {
		return name
	}
	return hexByte(opcode)
}

// PowerDown wake-up sources (PN532 User Manual section 7.2.11)
const (
	WakeupHSU     byte = 0x01 // Wake-up by High Speed UART
	WakeupSPI     byte = 0x02 // Wake-up by SPI
	WakeupI2C     byte = 0x04 // Wake-up by I2C
	WakeupGPIOP32 byte = 0x08 // Wake-up by GPIO P32
	WakeupGPIOP34 byte = 0x10 // Wake-up by GPIO P34
	WakeupRF      byte = 0x20 // Wake-up by RF field
	WakeupINT1    byte = 0x80 // Wake-up by GPIO P72/INT1
)

// RFConfiguration config items
const (
	rfItemMaxRetries byte = 0x05
)

// BaudRate selects the modulation used by InListPassiveTarget.
type BaudRate byte

const (
	// BaudRate106A is 106 kbps ISO/IEC 14443 Type A.
	BaudRate106A BaudRate = 0x00
	// BaudRateFeliCa212 is 212 kbps FeliCa polling.
	BaudRateFeliCa212 BaudRate = 0x01
	// BaudRateFeliCa424 is 424 kbps FeliCa polling.
	BaudRateFeliCa424 BaudRate = 0x02
	// BaudRate106B is 106 kbps ISO/IEC 14443-3B.
	BaudRate106B BaudRate = 0x03
	// BaudRateJewel is 106 kbps Innovision Jewel.
	BaudRateJewel BaudRate = 0x04
)

func (b BaudRate) String() string {
	switch b {
	case BaudRate106A:
		return "ISO14443A"
	case BaudRateFeliCa212:
		return "FeliCa212"
	case BaudRateFeliCa424:
		return "FeliCa424"
	case BaudRate106B:
		return "ISO14443B"
	case BaudRateJewel:
		return "Jewel"
	default:
		return "BaudRate(" + hexByte(byte(b)) + ")"
	}
}
