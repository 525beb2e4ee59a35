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

package frame

// Checksum computes the data checksum (DCS) for a TFI and the data bytes
// that follow it. Adding every covered byte and the checksum yields zero.
func Checksum(tfi byte, data ...byte) byte {
	sum := tfi
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}

// LengthChecksum computes LCS, the two's complement of LEN.
func LengthChecksum(n byte) byte {
	return ^n + 1
}

// sumsToZero reports whether the bytes add up to zero modulo 256
func sumsToZero(data []byte) bool {
	var chk byte
	for _, b := range data {
		chk += b
	}
	return chk == 0
}
