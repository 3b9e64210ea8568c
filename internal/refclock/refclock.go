// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package refclock provides the periodic time reference the CPU clock is measured
// against.
package refclock

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ReferenceClock calls onTick once per reference interval until ctx is done.
// Ticks are delivered from a single goroutine and never overlap.
type ReferenceClock interface {
	Run(ctx context.Context, onTick func()) error
}

// Interval returns the duration of period ticks of a clock running at
// frequency Hz.
func Interval(period, frequency uint32) (time.Duration, error) {
	if period == 0 || frequency == 0 {
		return 0, fmt.Errorf("reference period and frequency must be greater than 0")
	}
	ns := uint64(period) * uint64(time.Second) / uint64(frequency)
	if ns == 0 {
		return 0, fmt.Errorf("reference interval of %d ticks at %d Hz is shorter than 1ns", period, frequency)
	}
	return time.Duration(ns), nil // #nosec G115
}

// Ticker is a ReferenceClock backed by the host monotonic clock.
type Ticker struct {
	interval time.Duration
}

// NewTicker returns a Ticker firing every period ticks of a frequency Hz clock.
func NewTicker(period, frequency uint32) (*Ticker, error) {
	interval, err := Interval(period, frequency)
	if err != nil {
		return nil, err
	}
	return &Ticker{interval: interval}, nil
}

// Interval returns the tick interval.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Run implements ReferenceClock.
func (t *Ticker) Run(ctx context.Context, onTick func()) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	slog.Debug("reference clock started", slog.String("interval", t.interval.String()))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			onTick()
		}
	}
}
