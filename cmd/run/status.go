package run

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"os"

	"freqcheck/internal/freqtest"
	"freqcheck/internal/report"
)

var spinChars = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// statusLine redraws a single line on stderr after every evaluation
type statusLine struct {
	out       io.Writer
	enabled   bool
	spinIndex int
	drawn     bool
}

func newStatusLine(enabled bool) *statusLine {
	return &statusLine{out: os.Stderr, enabled: enabled}
}

func (s *statusLine) update(eval freqtest.Evaluation, cpuHz float64, summary report.Summary) {
	if !s.enabled {
		return
	}
	fmt.Fprintf(s.out, "\r\x1b[2K%s  window %-6d %-9s elapsed %-10d cpu %.0f Hz  passed %d  faults %d",
		spinChars[s.spinIndex], eval.Window, eval.Verdict, eval.Elapsed, cpuHz, summary.Passed, summary.Faults)
	s.spinIndex = (s.spinIndex + 1) % len(spinChars)
	s.drawn = true
}

func (s *statusLine) finish() {
	if s.enabled && s.drawn {
		fmt.Fprintln(s.out)
	}
}
