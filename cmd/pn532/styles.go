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
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#43BF6D")
	errorColor   = lipgloss.Color("#FF5555")
	warningColor = lipgloss.Color("#FFA500")
	mutedColor   = lipgloss.Color("#626262")
)

// Step and event markers
const (
	successMarker = "✓"
	failureMarker = "✗"
	arriveMarker  = "+"
	departMarker  = "-"
)

// styles are bound to one output so colors are dropped when it is not a
// terminal.
type styles struct {
	title   lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Foreground(primaryColor).Bold(true),
		key:     r.NewStyle().Foreground(mutedColor).Width(14),
		value:   r.NewStyle(),
		success: r.NewStyle().Foreground(successColor).Bold(true),
		failure: r.NewStyle().Foreground(errorColor).Bold(true),
		warning: r.NewStyle().Foreground(warningColor),
		muted:   r.NewStyle().Foreground(mutedColor),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1),
	}
}

// details renders key/value rows in the given order.
func (s styles) details(rows ...[2]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, s.key.Render(row[0]+":")+s.value.Render(row[1]))
	}
	return strings.Join(lines, "\n")
}

func (s styles) ok(format string, args ...any) string {
	return s.success.Render(successMarker) + " " + fmt.Sprintf(format, args...)
}

func (s styles) fail(format string, args ...any) string {
	return s.failure.Render(failureMarker) + " " + fmt.Sprintf(format, args...)
}

// terminalWidth returns the width of w if it is a terminal, or 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// traceBox frames a wire trace, wrapped to the terminal width of w.
func (s styles) traceBox(w io.Writer, trace string) string {
	box := s.box
	// border takes one column on each side
	if width := terminalWidth(w); width > 20 {
		box = box.Width(width - 2)
	}
	return box.Render(trace)
}
