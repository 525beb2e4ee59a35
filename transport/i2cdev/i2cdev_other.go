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

//go:build !linux

package i2cdev

// Transport is unavailable on this platform.
type Transport struct{}

// New always fails with ErrUnsupportedPlatform.
func New(string) (*Transport, error) {
	return nil, ErrUnsupportedPlatform
}

func (*Transport) Write(uint16, []byte) error      { return ErrUnsupportedPlatform }
func (*Transport) Read(uint16, int) ([]byte, error) { return nil, ErrUnsupportedPlatform }
func (*Transport) Close() error                     { return nil }
func (*Transport) String() string                   { return "i2c-dev" }
