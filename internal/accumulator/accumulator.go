// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package accumulator extends the 16-bit tick counter by counting its wraps.
package accumulator

import (
	"math"
	"sync/atomic"
)

// Accumulator counts tick source overflows. It is shared between the overflow
// handler and the evaluation, so the count is only reachable through atomic
// operations. The count saturates at math.MaxUint16 instead of wrapping.
type Accumulator struct {
	count atomic.Uint32
}

// Increment adds one overflow. It never blocks.
func (a *Accumulator) Increment() {
	for {
		current := a.count.Load()
		if current >= math.MaxUint16 {
			return
		}
		if a.count.CompareAndSwap(current, current+1) {
			return
		}
	}
}

// ReadAndReset returns the count and sets it to 0 in one step.
func (a *Accumulator) ReadAndReset() uint16 {
	return uint16(a.count.Swap(0))
}

// Load returns the count without resetting it.
func (a *Accumulator) Load() uint16 {
	return uint16(a.count.Load())
}
