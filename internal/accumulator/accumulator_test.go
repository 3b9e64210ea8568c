package accumulator

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrementAndReset(t *testing.T) {
	var a Accumulator
	assert.Equal(t, uint16(0), a.Load())
	for n := 0; n < 3; n++ {
		a.Increment()
	}
	assert.Equal(t, uint16(3), a.Load())
	assert.Equal(t, uint16(3), a.ReadAndReset())
	assert.Equal(t, uint16(0), a.Load())
	assert.Equal(t, uint16(0), a.ReadAndReset())
}

func TestSaturates(t *testing.T) {
	var a Accumulator
	for n := 0; n < math.MaxUint16+10; n++ {
		a.Increment()
	}
	assert.Equal(t, uint16(math.MaxUint16), a.Load(), "count must not wrap to a small value")
	assert.Equal(t, uint16(math.MaxUint16), a.ReadAndReset())
	a.Increment()
	assert.Equal(t, uint16(1), a.Load())
}

func TestConcurrentIncrementAndReset(t *testing.T) {
	var a Accumulator
	const producers = 16
	const increments = 2000
	var wg sync.WaitGroup
	wg.Add(producers)
	for n := 0; n < producers; n++ {
		go func() {
			defer wg.Done()
			for n := 0; n < increments; n++ {
				a.Increment()
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	total := 0
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		total += int(a.ReadAndReset())
	}
	total += int(a.ReadAndReset())
	assert.Equal(t, producers*increments, total)
}
