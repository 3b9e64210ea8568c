/*
Package freqtest implements the CPU clock frequency self-test.

A free-running counter clocked by the CPU is sampled on every tick of an independent
reference clock. The number of counter ticks elapsed since the previous sample is
compared with the count a correctly running clock would produce, and a fault is
reported when the difference is outside the configured tolerance or when the counter
wrapped more often than one reference interval allows.
*/
package freqtest

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"freqcheck/internal/accumulator"
	"freqcheck/internal/config"
	"freqcheck/internal/ticksource"
)

// State is the position of the test in its measurement window cycle.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateEvaluating
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateEvaluating:
		return "evaluating"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Verdict is the outcome of one evaluation.
type Verdict string

const (
	VerdictPass      Verdict = "pass"
	VerdictOverflow  Verdict = Verdict(ReasonOverflow)
	VerdictDeviation Verdict = Verdict(ReasonDeviation)
)

// Evaluation records one reference tick.
type Evaluation struct {
	Window     uint64    `json:"window" yaml:"window"`
	Time       time.Time `json:"time" yaml:"time"`
	Raw        uint16    `json:"raw" yaml:"raw"`
	Overflows  uint16    `json:"overflows" yaml:"overflows"`
	Elapsed    uint32    `json:"elapsed" yaml:"elapsed"`
	Difference uint32    `json:"difference" yaml:"difference"`
	Verdict    Verdict   `json:"verdict" yaml:"verdict"`
}

// Passed reports whether the evaluation passed.
func (e Evaluation) Passed() bool {
	return e.Verdict == VerdictPass
}

// Test binds a tick source, the derived constants and a fault reporter.
type Test struct {
	cfg       config.Configuration
	constants config.Constants
	source    ticksource.TickSource
	reporter  FaultReporter
	overflows accumulator.Accumulator
	observers []func(Evaluation)
	now       func() time.Time

	mu          sync.Mutex // serializes setup, evaluation and rearm
	state       State
	windowStart uint16
	window      uint64
}

// New resolves cfg and returns an idle test. A configuration that Resolve
// rejects yields an error matching config.ErrConfiguration.
func New(cfg config.Configuration, source ticksource.TickSource, reporter FaultReporter) (*Test, error) {
	constants, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("tick source is required")
	}
	if reporter == nil {
		return nil, fmt.Errorf("fault reporter is required")
	}
	slog.Debug("frequency test constants",
		slog.Int("tick_frequency", int(constants.TickFrequency)),
		slog.Int("reference_count", int(constants.ReferenceCount)),
		slog.Int("max_deviation", int(constants.MaxDeviation)),
		slog.Int("max_overflow_count", int(constants.MaxOverflowCount)))
	return &Test{
		cfg:       cfg,
		constants: constants,
		source:    source,
		reporter:  reporter,
		now:       time.Now,
	}, nil
}

// Open is New with the tick source chosen by cfg.TickSource.
func Open(cfg config.Configuration, reporter FaultReporter) (*Test, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	source, err := ticksource.Open(cfg.TickSource)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tick source")
	}
	return New(cfg, source, reporter)
}

// Observe registers fn to receive every evaluation. It must be called before
// SetupTimer.
func (t *Test) Observe(fn func(Evaluation)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

// Constants returns the derived constants.
func (t *Test) Constants() config.Constants {
	return t.constants
}

// Configuration returns the configuration the test was built from.
func (t *Test) Configuration() config.Configuration {
	return t.cfg
}

// Source returns the tick source.
func (t *Test) Source() ticksource.TickSource {
	return t.source
}

// State returns the current state.
func (t *Test) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetupTimer starts the tick source wrapping at config.CounterPeriod with its
// overflow notification bound to OnTickOverflow, and arms the test.
func (t *Test) SetupTimer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return fmt.Errorf("tick source already set up, test is %s", t.state)
	}
	if err := t.source.Start(t.cfg.Prescaler, config.CounterPeriod, t.OnTickOverflow); err != nil {
		return errors.Wrap(err, "failed to start tick source")
	}
	t.openWindow()
	t.state = StateArmed
	slog.Info("frequency test armed", slog.String("tick_source", t.cfg.TickSource), slog.Int("prescaler", int(t.cfg.Prescaler)))
	return nil
}

// OnTickOverflow is the tick source overflow handler. It only counts the wrap;
// the threshold is checked by OnReferenceTick.
func (t *Test) OnTickOverflow() {
	t.overflows.Increment()
}

// Overflows returns the wraps accumulated in the current window.
func (t *Test) Overflows() uint16 {
	return t.overflows.Load()
}

// OnReferenceTick is the reference clock handler. It closes the current window,
// evaluates it and opens the next one. A failing evaluation moves the test to
// StateFaulted, reports FaultFrequency once and returns a *FaultError.
func (t *Test) OnReferenceTick() (Evaluation, error) {
	t.mu.Lock()
	if t.state != StateArmed {
		state := t.state
		t.mu.Unlock()
		slog.Debug("reference tick ignored", slog.String("state", state.String()))
		return Evaluation{}, ErrNotArmed
	}
	t.state = StateEvaluating
	raw, overflows, start := t.closeWindow()
	t.window++
	eval := evaluate(t.constants, raw, overflows, start)
	eval.Window = t.window
	eval.Time = t.now()
	if eval.Passed() {
		t.state = StateArmed
	} else {
		t.state = StateFaulted
	}
	observers := t.observers
	t.mu.Unlock()

	for _, fn := range observers {
		fn(eval)
	}
	if eval.Passed() {
		slog.Debug("frequency test passed", slog.Uint64("window", eval.Window), slog.Int("elapsed", int(eval.Elapsed)), slog.Int("difference", int(eval.Difference)))
		return eval, nil
	}
	faultErr := &FaultError{Reason: Reason(eval.Verdict), Evaluation: eval}
	slog.Error("frequency test failed", slog.String("error", faultErr.Error()))
	t.reporter.ReportFault(FaultFrequency)
	return eval, faultErr
}

// Rearm discards the current window and arms the test again. It is the only
// way out of StateFaulted.
func (t *Test) Rearm() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateIdle {
		return fmt.Errorf("tick source not set up")
	}
	t.openWindow()
	t.state = StateArmed
	slog.Info("frequency test re-armed", slog.Uint64("window", t.window))
	return nil
}

// closeWindow samples the count and the wraps of the current window and opens
// the next one, with overflow notifications masked when the source allows it.
// A source that can clear its count hands back the wraps it held while masked,
// so they stay in the window they belong to.
func (t *Test) closeWindow() (raw, overflows, start uint16) {
	if masker, ok := t.source.(ticksource.OverflowMasker); ok {
		masker.MaskOverflow()
		defer masker.UnmaskOverflow()
	}
	start = t.windowStart
	if resetter, ok := t.source.(ticksource.CountResetter); ok {
		var held uint64
		raw, held = resetter.ReadAndResetCount()
		overflows = uint16(min(uint64(t.overflows.ReadAndReset())+held, math.MaxUint16))
		t.windowStart = 0
		return
	}
	raw = t.source.Count()
	overflows = t.overflows.ReadAndReset()
	t.windowStart = raw
	return
}

// openWindow discards the current window. A source that can clear its count
// restarts from 0; any other keeps running and its count becomes the window start.
func (t *Test) openWindow() {
	t.closeWindow()
}

// evaluate decides one window. The overflow limit is checked first: when it is
// exceeded the elapsed count is not trusted. A window that did not start at 0
// may cross one more wrap than its length accounts for.
func evaluate(c config.Constants, raw, overflows, start uint16) Evaluation {
	limit := uint32(c.MaxOverflowCount)
	if start != 0 {
		limit++
	}
	elapsed := uint32(overflows)<<config.NativeWidth + uint32(raw) - uint32(start)
	var diff uint32
	if elapsed > c.ReferenceCount {
		diff = elapsed - c.ReferenceCount
	} else {
		diff = c.ReferenceCount - elapsed
	}
	eval := Evaluation{
		Raw:        raw,
		Overflows:  overflows,
		Elapsed:    elapsed,
		Difference: diff,
	}
	switch {
	case uint32(overflows) > limit:
		eval.Verdict = VerdictOverflow
	case diff > c.MaxDeviation:
		eval.Verdict = VerdictDeviation
	default:
		eval.Verdict = VerdictPass
	}
	return eval
}
