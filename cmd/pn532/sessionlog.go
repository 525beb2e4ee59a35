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

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sessionLog is a debug log file for one run, named after its start time.
type sessionLog struct {
	file *os.File
	path string
}

// openSessionLog creates pn532_<timestamp>.log in dir and writes the
// session header.
func openSessionLog(dir string, now time.Time) (*sessionLog, error) {
	path := filepath.Join(dir, fmt.Sprintf("pn532_%s.log", now.Format("20060102_150405")))
	f, err := os.Create(path) //nolint:gosec // name is built from a timestamp
	if err != nil {
		return nil, fmt.Errorf("failed to create session log: %w", err)
	}
	writeSessionHeader(f, now)
	return &sessionLog{file: f, path: path}, nil
}

func writeSessionHeader(w io.Writer, now time.Time) {
	_, _ = fmt.Fprint(w, "=== PN532 Debug Session Log ===\n")
	_, _ = fmt.Fprintf(w, "Started: %s\n", now.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "PID: %d\n", os.Getpid())
	_, _ = fmt.Fprintf(w, "OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
	_, _ = fmt.Fprintf(w, "Command Line: %s\n", strings.Join(os.Args, " "))
	_, _ = fmt.Fprint(w, "================================\n\n")
}

// attach returns a logger that writes everything at debug level to the file
// in addition to log's own output.
func (s *sessionLog) attach(log *zap.Logger) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(s.file),
		zap.DebugLevel,
	)
	return zap.New(zapcore.NewTee(log.Core(), fileCore)).Named("pn532")
}

func (s *sessionLog) Close() error {
	_, _ = fmt.Fprintf(s.file, "\n%s === Session ended ===\n", time.Now().Format("15:04:05.000"))
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close session log: %w", err)
	}
	return nil
}
