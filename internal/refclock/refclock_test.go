package refclock

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval(t *testing.T) {
	tests := []struct {
		period    uint32
		frequency uint32
		want      time.Duration
	}{
		{1024, 1024, time.Second},
		{32, 1000, 32 * time.Millisecond},
		{1, 32768, 30517 * time.Nanosecond},
		{4294967295, 1, 4294967295 * time.Second},
	}
	for _, test := range tests {
		got, err := Interval(test.period, test.frequency)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, "%d ticks at %d Hz", test.period, test.frequency)
	}
}

func TestIntervalErrors(t *testing.T) {
	_, err := Interval(0, 1024)
	assert.Error(t, err)
	_, err = Interval(1024, 0)
	assert.Error(t, err)
	_, err = Interval(1, 4294967295)
	assert.ErrorContains(t, err, "shorter than 1ns")
}

func TestTickerRun(t *testing.T) {
	ticker, err := NewTicker(1, 1000)
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, ticker.Interval())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ticks := 0
	err = ticker.Run(ctx, func() {
		ticks++
		if ticks == 5 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, ticks)
}

func TestTickerRunCancelled(t *testing.T) {
	ticker, err := NewTicker(3600, 1)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = ticker.Run(ctx, func() { t.Error("unexpected tick") })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = NewTicker(0, 1)
	assert.Error(t, err)
}
