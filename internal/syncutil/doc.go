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

// Package syncutil holds the mutexes used across the driver. Normal builds
// get the sync types; building with -tags=deadlock swaps in go-deadlock so
// lock-order inversions between the channel, the shared controller and the
// polling session are reported at runtime.
package syncutil

// TimeoutEnvVar overrides how long a lock may be held before go-deadlock
// reports it. Only read in deadlock builds.
const TimeoutEnvVar = "PN532_DEADLOCK_TIMEOUT"
