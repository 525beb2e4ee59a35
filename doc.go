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

/*
Package pn532 drives a PN532 NFC controller over I2C.

The package covers the chip's command handshake: each operation writes a
framed command, waits for the ACK frame, polls the status byte until the
response is ready and checks that the response answers the command. On top
of that Controller offers a small command set: firmware query, SAM and RF
setup, passive target listing, general status, target release and power
down.

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-pn532-i2c"
	    "github.com/ZaparooProject/go-pn532-i2c/transport/i2c"
	)

	ctrl, err := i2c.Open("/dev/i2c-1")
	if err != nil {
	    log.Fatal(err)
	}
	defer ctrl.Close()

	if err := ctrl.Setup(ctx); err != nil {
	    log.Fatal(err)
	}
	targets, err := ctrl.List(ctx, time.Second)
	if err != nil {
	    log.Fatal(err)
	}
	for _, t := range targets {
	    fmt.Println(t.UIDString())
	}

Error handling:

Failures are typed. Use errors.Is with ErrAckTimeout, ErrAckMismatch,
ErrResponseTimeout, ErrMalformedFrame, ErrOpcodeMismatch, ErrProtocol and
ErrDeviceAsleep, and errors.As with *IOError, *SetupError and *StatusError.
Only an ACK timeout is retried automatically, once. Failed transactions
carry a wire trace reachable through GetTrace.

Concurrency:

Controller is not safe for concurrent use. SharedController serializes
callers with a mutex; build with -tags=deadlock to swap in
github.com/sasha-s/go-deadlock.

Debug logging:

Set PN532_DEBUG=1 to get zap development logs of every frame, or pass a
logger with WithLogger.
*/
package pn532
