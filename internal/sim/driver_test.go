package sim

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freqcheck/internal/config"
	"freqcheck/internal/freqtest"
	"freqcheck/internal/ticksource"
)

// countOnly has no way to be stepped by the driver
type countOnly struct{}

func (countOnly) Start(prescaler uint32, period uint16, onOverflow func()) error { return nil }
func (countOnly) Count() uint16                                                  { return 0 }

// manualClock ticks a fixed number of times, then waits for cancellation
type manualClock struct {
	ticks int
}

func (m *manualClock) Run(ctx context.Context, onTick func()) error {
	for n := 0; n < m.ticks; n++ {
		onTick()
	}
	<-ctx.Done()
	return ctx.Err()
}

func newDriver(t *testing.T, cfg config.Configuration, expression string) (*Driver, *ticksource.Simulated) {
	t.Helper()
	source := ticksource.NewSimulated()
	scenario, err := NewScenario(expression, cfg.CPUFrequency)
	require.NoError(t, err)
	driver, err := NewDriver(cfg, source, scenario)
	require.NoError(t, err)
	return driver, source
}

func TestNewDriver(t *testing.T) {
	cfg := config.Default()
	_, err := NewDriver(cfg, countOnly{}, nil)
	assert.ErrorContains(t, err, "cannot be driven")

	driver, err := NewDriver(cfg, ticksource.NewSimulated(), nil)
	require.NoError(t, err)
	assert.Equal(t, VarExpected, driver.scenario.String())

	cfg.ReferenceFrequency = 0
	_, err = NewDriver(cfg, ticksource.NewSimulated(), nil)
	assert.Error(t, err)
}

func TestStep(t *testing.T) {
	driver, source := newDriver(t, config.Default(), "")
	require.NoError(t, source.Start(64, config.CounterPeriod, func() {}))
	require.NoError(t, driver.Step())
	assert.Equal(t, uint16(31250), source.Count())
	assert.Equal(t, uint64(1), driver.Window())
	assert.InDelta(t, 2000000, driver.LastFrequency(), 1e-9)
}

func TestStepCarriesFractionalCycles(t *testing.T) {
	cfg := config.Default()
	cfg.Prescaler = 1
	cfg.ReferencePeriod = 1
	cfg.ReferenceFrequency = 4
	// 250.25 cycles per window
	driver, source := newDriver(t, cfg, "1001")
	require.NoError(t, source.Start(1, config.CounterPeriod, func() {}))
	for n := 0; n < 3; n++ {
		require.NoError(t, driver.Step())
	}
	assert.Equal(t, uint16(750), source.Count())
	require.NoError(t, driver.Step())
	assert.Equal(t, uint16(1001), source.Count())
}

func TestStepRejectsHugeFrequency(t *testing.T) {
	driver, source := newDriver(t, config.Default(), "window > 1 ? expected * 1e30 : expected")
	require.NoError(t, source.Start(64, config.CounterPeriod, func() {}))
	require.NoError(t, driver.Step())
	err := driver.Step()
	assert.ErrorContains(t, err, "too high")
	assert.Equal(t, uint16(31250), source.Count(), "source untouched")
	assert.Equal(t, uint64(1), driver.Window())

	ticks := 0
	driver, source = newDriver(t, config.Default(), "expected * 1e30")
	require.NoError(t, source.Start(64, config.CounterPeriod, func() {}))
	err = driver.Run(context.Background(), func() { ticks++ })
	assert.ErrorContains(t, err, "too high")
	assert.Equal(t, 0, ticks)
}

func TestRunVirtualTime(t *testing.T) {
	cfg := config.Default()
	driver, source := newDriver(t, cfg, "window > 3 ? expected * 1.5 : expected")
	test, err := freqtest.New(cfg, source, freqtest.FaultReporterFunc(func(freqtest.FaultID) {}))
	require.NoError(t, err)
	require.NoError(t, test.SetupTimer())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var evals []freqtest.Evaluation
	var faultErr error
	err = driver.Run(ctx, func() {
		eval, err := test.OnReferenceTick()
		evals = append(evals, eval)
		if err != nil {
			faultErr = err
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, faultErr, freqtest.ErrFrequencyDeviation)
	require.Len(t, evals, 4)
	for _, eval := range evals[:3] {
		assert.Equal(t, uint32(31250), eval.Elapsed)
		assert.True(t, eval.Passed())
	}
	assert.Equal(t, uint32(46875), evals[3].Elapsed)
	assert.Equal(t, freqtest.VerdictDeviation, evals[3].Verdict)
	assert.Equal(t, uint64(4), driver.Window())
}

func TestRunScenarioError(t *testing.T) {
	driver, source := newDriver(t, config.Default(), "expected - window * 1000000")
	require.NoError(t, source.Start(64, config.CounterPeriod, func() {}))
	ticks := 0
	err := driver.Run(context.Background(), func() { ticks++ })
	assert.ErrorContains(t, err, "invalid frequency")
	assert.Equal(t, 2, ticks)
}

func TestRunPaced(t *testing.T) {
	driver, source := newDriver(t, config.Default(), "")
	require.NoError(t, source.Start(64, config.CounterPeriod, func() {}))
	driver.Pace(&manualClock{ticks: 3})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	ticks := 0
	err := driver.Run(ctx, func() { ticks++ })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, uint64(3), driver.Window())
}
