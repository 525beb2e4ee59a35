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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// TagKind is a coarse classification of a detected target.
type TagKind string

const (
	// TagKindNTAG is an NXP NTAG / MIFARE Ultralight style tag.
	TagKindNTAG TagKind = "NTAG"
	// TagKindMIFAREClassic is a MIFARE Classic 1K or 4K tag.
	TagKindMIFAREClassic TagKind = "MIFARE Classic"
	// TagKindISODEP is an ISO/IEC 14443-4 (ISO-DEP) Type A card.
	TagKindISODEP TagKind = "ISO14443-4"
	// TagKindFeliCa is a FeliCa card.
	TagKindFeliCa TagKind = "FeliCa"
	// TagKindISO14443B is an ISO/IEC 14443-3B card.
	TagKindISO14443B TagKind = "ISO14443B"
	// TagKindJewel is an Innovision Jewel / Topaz tag.
	TagKindJewel TagKind = "Jewel"
	// TagKindUnknown is anything else.
	TagKindUnknown TagKind = "Unknown"
)

// Target is one entry of an InListPassiveTarget response. ATQA, SAK and ATS
// are only set for Type A targets.
type Target struct {
	// UID is the NFCID1 for Type A, NFCID2 for FeliCa, the PUPI for Type B
	// and the Jewel ID for Jewel.
	UID []byte
	// ATS is the answer to select, including its length byte, when the
	// card is ISO14443-4 compliant.
	ATS []byte
	// Data is the raw target entry as reported by the chip, without the
	// target number.
	Data   []byte
	ATQA   [2]byte
	Number byte
	SAK    byte
	Type   BaudRate
}

// UIDString returns the UID as upper-case hex.
func (t Target) UIDString() string {
	return strings.ToUpper(hex.EncodeToString(t.UID))
}

// Kind classifies the target from its modulation and, for Type A, its SAK
// and ATQA.
func (t Target) Kind() TagKind {
	switch t.Type {
	case BaudRateFeliCa212, BaudRateFeliCa424:
		return TagKindFeliCa
	case BaudRate106B:
		return TagKindISO14443B
	case BaudRateJewel:
		return TagKindJewel
	case BaudRate106A:
		return classifyTypeA(t.ATQA, t.SAK)
	default:
		return TagKindUnknown
	}
}

func (t Target) String() string {
	if t.Type == BaudRate106A {
		return fmt.Sprintf("%s UID=%s ATQA=%02X%02X SAK=0x%02X",
			t.Kind(), t.UIDString(), t.ATQA[0], t.ATQA[1], t.SAK)
	}
	return fmt.Sprintf("%s UID=%s", t.Kind(), t.UIDString())
}

// classifyTypeA follows the NXP AN10833 SAK table. Some clone NTAGs report
// the ATQA bytes swapped, so both orders are accepted.
func classifyTypeA(atqa [2]byte, sak byte) TagKind {
	switch {
	case sak&0x20 != 0:
		return TagKindISODEP
	case sak == 0x08 || sak == 0x18 || sak == 0x09 || sak == 0x88:
		return TagKindMIFAREClassic
	case sak == 0x00 && (atqa == [2]byte{0x00, 0x44} || atqa == [2]byte{0x44, 0x00}):
		return TagKindNTAG
	default:
		return TagKindUnknown
	}
}

// Manufacturer is the ISO/IEC 7816-6 IC manufacturer code carried in the
// first byte of a 7-byte UID.
type Manufacturer string

const (
	// ManufacturerNXP is NXP Semiconductors (0x04).
	ManufacturerNXP Manufacturer = "NXP"
	// ManufacturerST is STMicroelectronics (0x02).
	ManufacturerST Manufacturer = "STMicroelectronics"
	// ManufacturerInfineon is Infineon Technologies (0x05).
	ManufacturerInfineon Manufacturer = "Infineon"
	// ManufacturerTI is Texas Instruments (0x07).
	ManufacturerTI Manufacturer = "Texas Instruments"
	// ManufacturerUnknown indicates an unrecognized code or a UID without
	// one.
	ManufacturerUnknown Manufacturer = "Unknown"
)

// Manufacturer returns the chip manufacturer for 7-byte Type A UIDs. Four
// byte UIDs are random or fixed per card and carry no manufacturer code.
func (t Target) Manufacturer() Manufacturer {
	if t.Type != BaudRate106A || len(t.UID) != 7 {
		return ManufacturerUnknown
	}
	switch t.UID[0] {
	case 0x04:
		return ManufacturerNXP
	case 0x02:
		return ManufacturerST
	case 0x05:
		return ManufacturerInfineon
	case 0x07:
		return ManufacturerTI
	default:
		return ManufacturerUnknown
	}
}

// parseTargets decodes the InListPassiveTarget response payload:
// NbTg followed by NbTg target entries whose layout depends on rate.
// A zero count yields an empty, non-nil slice.
func parseTargets(rate BaudRate, payload []byte) ([]Target, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: empty InListPassiveTarget response", ErrProtocol)
	}
	count := int(payload[0])
	targets := make([]Target, 0, count)
	off := 1
	for i := range count {
		t, n, err := parseTarget(rate, payload[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: target %d of %d: %w", ErrProtocol, i+1, count, err)
		}
		targets = append(targets, t)
		off += n
	}
	return targets, nil
}

var errTruncated = errors.New("truncated target data")

// parseTarget decodes one entry and returns the number of bytes consumed.
func parseTarget(rate BaudRate, p []byte) (Target, int, error) {
	if len(p) < 1 {
		return Target{}, 0, errTruncated
	}
	t := Target{Number: p[0], Type: rate}
	var n int
	var err error
	switch rate {
	case BaudRate106A:
		n, err = t.parseTypeA(p[1:])
	case BaudRateFeliCa212, BaudRateFeliCa424:
		n, err = t.parseFeliCa(p[1:])
	case BaudRate106B:
		n, err = t.parseTypeB(p[1:])
	case BaudRateJewel:
		n, err = t.parseJewel(p[1:])
	default:
		err = fmt.Errorf("unsupported baud rate 0x%02X", byte(rate))
	}
	if err != nil {
		return Target{}, 0, err
	}
	t.Data = append([]byte(nil), p[1:1+n]...)
	return t, 1 + n, nil
}

// parseTypeA: SENS_RES(2) SEL_RES NFCIDLength NFCID1 [ATS]. The chip only
// appends the ATS for ISO14443-4 cards, signalled by SAK bit 6.
func (t *Target) parseTypeA(p []byte) (int, error) {
	if len(p) < 4 {
		return 0, errTruncated
	}
	t.ATQA = [2]byte{p[0], p[1]}
	t.SAK = p[2]
	uidLen := int(p[3])
	n := 4 + uidLen
	if len(p) < n {
		return 0, errTruncated
	}
	t.UID = append([]byte(nil), p[4:n]...)

	if t.SAK&0x20 != 0 && len(p) > n {
		atsLen := int(p[n])
		if atsLen == 0 || len(p) < n+atsLen {
			return 0, fmt.Errorf("bad ATS length %d", atsLen)
		}
		t.ATS = append([]byte(nil), p[n:n+atsLen]...)
		n += atsLen
	}
	return n, nil
}

// parseFeliCa: POL_RES of POL_RES[0] bytes: length, 0x01, NFCID2(8),
// PAD(8) and an optional system code.
func (t *Target) parseFeliCa(p []byte) (int, error) {
	if len(p) < 1 {
		return 0, errTruncated
	}
	n := int(p[0])
	if n < 18 || len(p) < n {
		return 0, errTruncated
	}
	t.UID = append([]byte(nil), p[2:10]...)
	return n, nil
}

// parseTypeB: ATQB(12) ATTRIB_RESLength ATTRIB_RES. ATQB[1:5] is the PUPI.
func (t *Target) parseTypeB(p []byte) (int, error) {
	if len(p) < 13 {
		return 0, errTruncated
	}
	n := 13 + int(p[12])
	if len(p) < n {
		return 0, errTruncated
	}
	t.UID = append([]byte(nil), p[1:5]...)
	return n, nil
}

// parseJewel: SENS_RES(2) JEWELID(4).
func (t *Target) parseJewel(p []byte) (int, error) {
	if len(p) < 6 {
		return 0, errTruncated
	}
	t.ATQA = [2]byte{p[0], p[1]}
	t.UID = append([]byte(nil), p[2:6]...)
	return 6, nil
}
