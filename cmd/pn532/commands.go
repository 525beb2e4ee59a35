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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pn532 "github.com/ZaparooProject/go-pn532-i2c"
	"github.com/ZaparooProject/go-pn532-i2c/detection"
	"github.com/ZaparooProject/go-pn532-i2c/internal/config"
	"github.com/ZaparooProject/go-pn532-i2c/polling"
)

// errWatchDone ends watch after --count arrivals.
var errWatchDone = errors.New("watch count reached")

func row(key, value string) [2]string {
	return [2]string{key, value}
}

func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		bus        string
		backend    string
		logLevel   string
		address    uint16
		ackTimeout time.Duration
	)

	root := &cobra.Command{
		Use:   "pn532",
		Short: "PN532 NFC controller utility",
		Long: `Talk to a PN532 NFC controller on an I2C bus.

Settings come from the configuration file and are overridden by flags.
When no bus is configured the first PN532 found on /dev/i2c-* is used.`,
		Example: `  # Show the firmware version on bus 1
  pn532 firmware --bus /dev/i2c-1

  # Wait up to 5 seconds for a card
  pn532 list --timeout 5s

  # Print cards as they arrive and leave
  pn532 watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("bus") {
				cfg.Bus = bus
			}
			if flags.Changed("backend") {
				cfg.Backend = backend
			}
			if flags.Changed("address") {
				cfg.Address = address
			}
			if flags.Changed("ack-timeout") {
				cfg.AckTimeout = config.Duration(ackTimeout)
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if a.debug && cfg.LogLevel == "" {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := newLogger(cfg.LogLevel, a.errOut)
			if err != nil {
				return err
			}
			if a.logFile {
				session, err := openSessionLog(".", time.Now())
				if err != nil {
					return err
				}
				a.session = session
				log = session.attach(log)
				_, _ = fmt.Fprintf(a.errOut, "Session log: %s\n", session.path)
			}
			a.cfg = cfg
			a.log = log
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "configuration file (default $XDG_CONFIG_HOME/pn532/config.yaml)")
	pf.StringVarP(&bus, "bus", "b", "", "I2C bus, e.g. /dev/i2c-1 or /dev/i2c-1:0x24 (auto-detect if empty)")
	pf.StringVar(&backend, "backend", config.BackendPeriph, "transport backend: periph or i2cdev")
	pf.Uint16Var(&address, "address", pn532.DefaultAddress, "7-bit I2C address of the PN532")
	pf.DurationVar(&ackTimeout, "ack-timeout", pn532.DefaultAckTimeout, "how long to wait for each ACK")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (silent if empty)")
	pf.BoolVar(&a.debug, "debug", false, "debug logging and wire traces on failure")
	pf.BoolVar(&a.logFile, "session-log", false, "also write a debug log to pn532_<time>.log in the current directory")

	root.AddCommand(
		newFirmwareCmd(a),
		newSetupCmd(a),
		newListCmd(a),
		newWatchCmd(a),
		newPowerDownCmd(a),
		newStatusCmd(a),
		newScanCmd(a),
	)
	return root
}

func newFirmwareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "firmware",
		Short: "Print the PN532 firmware version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withController(ctx, func(ctrl *pn532.Controller) error {
				fw, err := ctrl.FirmwareVersion(ctx)
				if err != nil {
					return err
				}
				a.println(a.styles.title.Render("PN532 firmware"))
				a.println(a.styles.details(
					row("IC", fmt.Sprintf("0x%02X", fw.IC)),
					row("Version", fmt.Sprintf("%d.%d", fw.Version, fw.Revision)),
					row("Support", fmt.Sprintf("0x%02X", fw.Support)),
				))
				return nil
			})
		},
	}
}

func newSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Configure the SAM and RF retry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withController(ctx, func(ctrl *pn532.Controller) error {
				if err := ctrl.Setup(ctx); err != nil {
					return err
				}
				a.println(a.styles.ok("SAM and RF configuration applied"))
				return nil
			})
		},
	}
}

// parseRate maps --type values to a baud rate and its default initiator
// data.
func parseRate(s string) (pn532.BaudRate, []byte, error) {
	switch strings.ToLower(s) {
	case "a", "106a", "iso14443a":
		return pn532.BaudRate106A, nil, nil
	case "b", "106b", "iso14443b":
		return pn532.BaudRate106B, []byte{0x00}, nil
	case "felica", "felica212":
		return pn532.BaudRateFeliCa212, []byte{0x00, 0xFF, 0xFF, 0x00, 0x00}, nil
	case "felica424":
		return pn532.BaudRateFeliCa424, []byte{0x00, 0xFF, 0xFF, 0x00, 0x00}, nil
	case "jewel":
		return pn532.BaudRateJewel, nil, nil
	default:
		return 0, nil, fmt.Errorf("unknown target type %q", s)
	}
}

func (a *app) renderTarget(i int, t pn532.Target) string {
	rows := [][2]string{
		row("UID", t.UIDString()),
		row("Kind", string(t.Kind())),
		row("Modulation", t.Type.String()),
	}
	if t.Type == pn532.BaudRate106A {
		rows = append(rows,
			row("ATQA", fmt.Sprintf("%02X%02X", t.ATQA[0], t.ATQA[1])),
			row("SAK", fmt.Sprintf("0x%02X", t.SAK)),
		)
		if m := t.Manufacturer(); m != pn532.ManufacturerUnknown {
			rows = append(rows, row("Manufacturer", string(m)))
		}
	}
	if len(t.ATS) > 0 {
		rows = append(rows, row("ATS", fmt.Sprintf("% X", t.ATS)))
	}
	return a.styles.title.Render(fmt.Sprintf("Target %d", i+1)) + "\n" + a.styles.details(rows...)
}

func newListCmd(a *app) *cobra.Command {
	var (
		timeout  time.Duration
		kind     string
		skipInit bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Look for one passive target in the RF field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rate, initiator, err := parseRate(kind)
			if err != nil {
				return err
			}
			if timeout <= 0 {
				timeout = a.cfg.ListTimeout.Std()
			}

			ctx := cmd.Context()
			return a.withController(ctx, func(ctrl *pn532.Controller) error {
				if !skipInit {
					if err := ctrl.Setup(ctx); err != nil {
						return err
					}
				}
				targets, err := ctrl.ListPassive(ctx, rate, initiator, timeout)
				if err != nil {
					return err
				}
				if len(targets) == 0 {
					a.println(a.styles.muted.Render("no target in field"))
					return nil
				}
				for i, t := range targets {
					a.println(a.renderTarget(i, t))
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "how long the chip searches (default from config)")
	cmd.Flags().StringVar(&kind, "type", "a", "target type: a, b, felica, felica424 or jewel")
	cmd.Flags().BoolVar(&skipInit, "no-setup", false, "skip SAM/RF configuration before listing")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print cards as they arrive in and leave the RF field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withController(ctx, func(ctrl *pn532.Controller) error {
				if err := ctrl.Setup(ctx); err != nil {
					return err
				}
				err := a.watch(ctx, ctrl, interval, count)
				if errors.Is(err, errWatchDone) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "pause between polls (default from config)")
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many arrivals (0 runs until interrupted)")
	return cmd
}

func (a *app) watch(ctx context.Context, ctrl *pn532.Controller, interval time.Duration, count int) error {
	cfg := polling.DefaultConfig()
	cfg.Logger = a.log
	cfg.ListTimeout = a.cfg.ListTimeout.Std()
	cfg.PollInterval = a.cfg.PollInterval.Std()
	if interval > 0 {
		cfg.PollInterval = interval
	}

	session := polling.NewSession(ctrl, cfg)
	arrivals := 0
	var current string

	arrive := func(t pn532.Target) error {
		current = t.UIDString()
		a.println(a.styles.success.Render(arriveMarker) + " " + t.String())
		arrivals++
		if count > 0 && arrivals >= count {
			return errWatchDone
		}
		return nil
	}
	session.SetOnCardDetected(arrive)
	session.SetOnCardChanged(func(t pn532.Target) error {
		a.println(a.styles.warning.Render(departMarker) + " " + current)
		return arrive(t)
	})
	session.SetOnCardRemoved(func() {
		a.println(a.styles.warning.Render(departMarker) + " " + current)
		current = ""
	})

	a.println(a.styles.muted.Render("Watching for cards. Press Ctrl+C to stop."))
	a.log.Info("polling started", zap.Duration("interval", cfg.PollInterval), zap.Duration("list_timeout", cfg.ListTimeout))
	return session.Start(ctx)
}

func newPowerDownCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "powerdown",
		Short: "Put the PN532 into power-down mode",
		Long: `Put the PN532 into power-down mode with I2C and INT1 as wake-up
sources. The next command sent on the bus wakes it again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withController(ctx, func(ctrl *pn532.Controller) error {
				if err := ctrl.PowerDown(ctx); err != nil {
					return err
				}
				a.println(a.styles.ok("PN532 powered down"))
				return nil
			})
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the PN532 general status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withController(ctx, func(ctrl *pn532.Controller) error {
				st, err := ctrl.GeneralStatus(ctx)
				if err != nil {
					return err
				}
				field := "off"
				if st.FieldPresent {
					field = "on"
				}
				a.println(a.styles.title.Render("PN532 status"))
				a.println(a.styles.details(
					row("RF field", field),
					row("Last error", fmt.Sprintf("0x%02X", st.LastError)),
					row("Targets", fmt.Sprintf("%d", len(st.Targets))),
					row("SAM status", fmt.Sprintf("0x%02X", st.SAMStatus)),
				))
				return nil
			})
		},
	}
}

func newScanCmd(a *app) *cobra.Command {
	var (
		mode    string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Search the I2C buses for PN532 controllers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := detection.ParseMode(mode)
			if err != nil {
				return err
			}
			opts := detection.DefaultOptions()
			opts.Mode = m
			opts.EnableCache = !noCache
			opts.Opener = a.detectionOpener()
			opts.Addresses = []uint16{a.cfg.Address}
			if a.cfg.Bus != "" {
				bus, addr, err := pn532.ParseBusPath(a.cfg.Bus)
				if err != nil {
					return err
				}
				opts.Buses = []string{bus}
				if bus != a.cfg.Bus {
					opts.Addresses = []uint16{addr}
				}
			}

			devices, err := detection.Detect(cmd.Context(), &opts)
			if errors.Is(err, detection.ErrNoDevicesFound) {
				a.println(a.styles.muted.Render("no PN532 found"))
				return nil
			}
			if err != nil {
				return err
			}
			for _, d := range devices {
				line := d.String()
				if d.Confidence == detection.High {
					line += " " + d.Metadata["firmware"]
					a.println(a.styles.ok("%s", line))
					continue
				}
				if probeErr := d.Metadata["probe_error"]; probeErr != "" {
					a.println(a.styles.fail("%s: %s", line, probeErr))
					continue
				}
				a.println(a.styles.warning.Render("? ") + line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", detection.Safe.String(), "probe mode: passive, safe or full")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached detection results")
	return cmd
}
