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
	"os"

	"go.uber.org/zap"
)

// DebugEnvVar enables development logging for channels created without
// WithLogger / WithChannelLogger.
const DebugEnvVar = "PN532_DEBUG"

// defaultLogger returns a no-op logger unless PN532_DEBUG is set.
func defaultLogger() *zap.Logger {
	if os.Getenv(DebugEnvVar) == "" {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named("pn532")
}

func hexField(key string, data []byte) zap.Field {
	return zap.String(key, formatHexBytes(data))
}
