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
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	"github.com/ZaparooProject/go-pn532-i2c/detection"
	"github.com/ZaparooProject/go-pn532-i2c/internal/config"
	"github.com/ZaparooProject/go-pn532-i2c/transport/i2c"
	"github.com/ZaparooProject/go-pn532-i2c/transport/i2cdev"
)

// openFunc opens a controller on a bus path such as "/dev/i2c-1:0x24".
type openFunc func(backend, path string, opts ...pn532.Option) (*pn532.Controller, error)

func openBackend(backend, path string, opts ...pn532.Option) (*pn532.Controller, error) {
	switch backend {
	case config.BackendI2CDev:
		return i2cdev.Open(path, opts...)
	case config.BackendPeriph:
		return i2c.Open(path, opts...)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// app carries what every command needs once flags and the configuration
// file have been merged.
type app struct {
	out     io.Writer
	errOut  io.Writer
	cfg     *config.Config
	log     *zap.Logger
	session *sessionLog
	open    openFunc
	styles  styles
	debug   bool
	logFile bool
}

func newApp(out io.Writer) *app {
	return &app{
		out:    out,
		errOut: os.Stderr,
		cfg:    config.Default(),
		log:    zap.NewNop(),
		open:   openBackend,
		styles: newStyles(out),
	}
}

func (a *app) sync() {
	_ = a.log.Sync()
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			_, _ = fmt.Fprintln(a.errOut, err)
		}
		a.session = nil
	}
}

func (a *app) println(s string) {
	_, _ = fmt.Fprintln(a.out, s)
}

func (a *app) controllerOptions() []pn532.Option {
	return []pn532.Option{
		pn532.WithLogger(a.log),
		pn532.WithChannel(pn532.WithAckTimeout(a.cfg.AckTimeout.Std())),
	}
}

// resolveBus returns the configured bus path, or the first device found by
// detection when none is configured.
func (a *app) resolveBus(ctx context.Context) (string, error) {
	path, err := a.cfg.BusPath()
	if err != nil || path != "" {
		return path, err
	}

	opts := detection.DefaultOptions()
	opts.Opener = a.detectionOpener()
	devices, err := detection.Detect(ctx, &opts)
	if err != nil {
		return "", fmt.Errorf("no bus configured and auto-detection failed: %w", err)
	}
	best := devices[0]
	for _, d := range devices[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	a.log.Info("auto-detected PN532", zap.String("path", best.Path), zap.Stringer("confidence", best.Confidence))
	return best.Path, nil
}

func (a *app) detectionOpener() detection.Opener {
	return func(path string) (*pn532.Controller, error) {
		return a.open(a.cfg.Backend, path, a.controllerOptions()...)
	}
}

// withController opens the controller, runs fn, and closes it.
func (a *app) withController(ctx context.Context, fn func(*pn532.Controller) error) error {
	path, err := a.resolveBus(ctx)
	if err != nil {
		return err
	}
	ctrl, err := a.open(a.cfg.Backend, path, a.controllerOptions()...)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}()

	err = fn(ctrl)
	if err != nil && a.debug {
		if te := pn532.GetTrace(err); te != nil {
			_, _ = fmt.Fprintln(a.errOut, a.styles.traceBox(a.errOut, te.FormatTrace()))
		}
	}
	return err
}
