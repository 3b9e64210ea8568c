package sim

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioFrequency(t *testing.T) {
	tests := []struct {
		expression string
		window     uint64
		want       float64
	}{
		{"", 1, 2000000},
		{"expected", 7, 2000000},
		{"expected * 1.3", 1, 2600000},
		{"32000000", 1, 32000000},
		{"window > 3 ? expected / 2 : expected", 3, 2000000},
		{"window > 3 ? expected / 2 : expected", 4, 1000000},
		{"expected + window * 1000", 5, 2005000},
	}
	for _, test := range tests {
		s, err := NewScenario(test.expression, 2000000)
		require.NoError(t, err, test.expression)
		got, err := s.Frequency(test.window)
		require.NoError(t, err, test.expression)
		assert.InDelta(t, test.want, got, 1e-6, test.expression)
	}
}

func TestScenarioString(t *testing.T) {
	s, err := NewScenario("", 2000000)
	require.NoError(t, err)
	assert.Equal(t, VarExpected, s.String())
}

func TestScenarioErrors(t *testing.T) {
	_, err := NewScenario("expected *", 2000000)
	assert.ErrorContains(t, err, "failed to parse")

	_, err = NewScenario("cpu * 2", 2000000)
	assert.ErrorContains(t, err, `unknown variable "cpu"`)

	for _, expression := range []string{"expected - 3000000", "window > 1", "'fast'"} {
		s, err := NewScenario(expression, 2000000)
		require.NoError(t, err, expression)
		_, err = s.Frequency(2)
		assert.Error(t, err, expression)
	}
}
