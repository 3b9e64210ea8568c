package sim

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"freqcheck/internal/config"
	"freqcheck/internal/refclock"
	"freqcheck/internal/ticksource"
)

// Stepper is a tick source that advances only when fed CPU cycles.
type Stepper interface {
	ticksource.TickSource
	AdvanceCycles(cycles uint64)
}

// slices per window, so overflow notifications are spread over the window
const defaultSlices = 16

// largest cycle count per window that float64 holds exactly
const maxWindowCycles = 1 << 53

// Driver is a ReferenceClock that, before every tick, feeds the tick source the
// number of CPU cycles the scenario says elapsed during one reference interval.
// Without a pace the windows run back to back in virtual time.
type Driver struct {
	source   Stepper
	scenario *Scenario
	period   uint32
	freq     uint32
	pace     refclock.ReferenceClock
	slices   int
	carry    float64
	window   uint64
	lastHz   float64
	evalErr  error
}

// NewDriver returns a virtual time driver for source. source must be a Stepper,
// such as *ticksource.Simulated.
func NewDriver(cfg config.Configuration, source ticksource.TickSource, scenario *Scenario) (*Driver, error) {
	stepper, ok := source.(Stepper)
	if !ok {
		return nil, fmt.Errorf("tick source %q cannot be driven by the simulator", cfg.TickSource)
	}
	if scenario == nil {
		var err error
		if scenario, err = NewScenario("", cfg.CPUFrequency); err != nil {
			return nil, err
		}
	}
	if cfg.ReferenceFrequency == 0 {
		return nil, fmt.Errorf("reference frequency must be greater than 0")
	}
	return &Driver{
		source:   stepper,
		scenario: scenario,
		period:   cfg.ReferencePeriod,
		freq:     cfg.ReferenceFrequency,
		slices:   defaultSlices,
	}, nil
}

// Pace makes the driver wait for clock between windows instead of running in
// virtual time.
func (d *Driver) Pace(clock refclock.ReferenceClock) {
	d.pace = clock
}

// Window returns the number of windows simulated so far.
func (d *Driver) Window() uint64 {
	return d.window
}

// LastFrequency returns the actual CPU frequency used for the latest window.
func (d *Driver) LastFrequency() float64 {
	return d.lastHz
}

// Run implements refclock.ReferenceClock. It returns the scenario error if the
// frequency expression fails, otherwise ctx.Err().
func (d *Driver) Run(ctx context.Context, onTick func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tick := func() {
		if err := d.Step(); err != nil {
			d.evalErr = err
			cancel()
			return
		}
		onTick()
	}
	var err error
	if d.pace != nil {
		err = d.pace.Run(ctx, tick)
	} else {
		for err == nil {
			select {
			case <-ctx.Done():
				err = ctx.Err()
			default:
				tick()
			}
		}
	}
	if d.evalErr != nil {
		return d.evalErr
	}
	return err
}

// Step advances the tick source by one reference interval of CPU cycles.
func (d *Driver) Step() error {
	hz, err := d.scenario.Frequency(d.window + 1)
	if err != nil {
		return err
	}
	cycles := hz*float64(d.period)/float64(d.freq) + d.carry
	if cycles >= maxWindowCycles {
		return fmt.Errorf("frequency %v Hz in window %d is too high, %.0f cycles per reference interval exceed %d", hz, d.window+1, cycles, uint64(maxWindowCycles))
	}
	whole := math.Floor(cycles)
	d.carry = cycles - whole
	total := uint64(whole)
	slice := total / uint64(d.slices)
	for i := 0; i < d.slices-1; i++ {
		d.source.AdvanceCycles(slice)
	}
	d.source.AdvanceCycles(total - slice*uint64(d.slices-1))
	d.window++
	d.lastHz = hz
	slog.Debug("simulated window", slog.Uint64("window", d.window), slog.Float64("cpu_hz", hz), slog.Uint64("cycles", total))
	return nil
}
