/*
Package sim drives the simulated tick source so the frequency test can run on a
host: a scenario gives the actual CPU frequency of every window and a driver feeds
the matching number of CPU cycles to the counter before each reference tick.
*/
package sim

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"

	"github.com/casbin/govaluate"
	"github.com/pkg/errors"
)

// scenario variables
const (
	VarWindow   = "window"
	VarExpected = "expected"
)

// Scenario computes the actual CPU frequency, in Hz, of each measurement window.
type Scenario struct {
	expression string
	evaluable  *govaluate.EvaluableExpression
	expected   float64
}

// NewScenario parses expression. The expression may use the variables
// "window" (1 for the first window) and "expected" (the configured CPU
// frequency), e.g. "expected * 1.3" or "window > 5 ? expected / 2 : expected".
// An empty expression runs at the expected frequency.
func NewScenario(expression string, expected uint64) (*Scenario, error) {
	if expression == "" {
		expression = VarExpected
	}
	evaluable, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse frequency expression %q", expression)
	}
	for _, v := range evaluable.Vars() {
		if v != VarWindow && v != VarExpected {
			return nil, fmt.Errorf("frequency expression %q uses unknown variable %q, only %q and %q are defined", expression, v, VarWindow, VarExpected)
		}
	}
	return &Scenario{expression: expression, evaluable: evaluable, expected: float64(expected)}, nil
}

// String returns the expression.
func (s *Scenario) String() string {
	return s.expression
}

// Frequency returns the actual CPU frequency of window.
func (s *Scenario) Frequency(window uint64) (float64, error) {
	result, err := s.evaluable.Evaluate(map[string]interface{}{
		VarWindow:   float64(window),
		VarExpected: s.expected,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to evaluate frequency expression for window %d", window)
	}
	hz, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("frequency expression %q returned %v, not a number", s.expression, result)
	}
	if math.IsNaN(hz) || math.IsInf(hz, 0) || hz < 0 {
		return 0, fmt.Errorf("frequency expression %q returned invalid frequency %v for window %d", s.expression, hz, window)
	}
	return hz, nil
}
