package ticksource

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"sync"
)

// SimulatedName is the selector of the simulated counter.
const SimulatedName = "sim"

func init() {
	Register(SimulatedName, func() (TickSource, error) {
		return NewSimulated(), nil
	})
}

// Simulated is a software model of a 16-bit timer/counter. It does not advance on
// its own; the owner feeds it CPU cycles with AdvanceCycles or counter ticks with
// Advance. Overflow notifications are delivered synchronously from those calls
// with the counter locked, so a masked reader never observes a wrap whose
// notification is still in flight. onOverflow must not call back into the counter.
type Simulated struct {
	mu         sync.Mutex
	running    bool
	prescaler  uint32
	period     uint16
	count      uint16
	residue    uint64 // CPU cycles not yet worth a full tick
	masked     bool
	pending    uint64
	overflows  uint64
	onOverflow func()
}

// NewSimulated returns a stopped simulated counter.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Start implements TickSource.
func (s *Simulated) Start(prescaler uint32, period uint16, onOverflow func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("simulated tick source already started")
	}
	if prescaler == 0 {
		return fmt.Errorf("prescaler must be greater than 0")
	}
	if onOverflow == nil {
		return fmt.Errorf("overflow handler is required")
	}
	s.prescaler = prescaler
	s.period = period
	s.onOverflow = onOverflow
	s.running = true
	return nil
}

// Count implements TickSource.
func (s *Simulated) Count() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Running reports whether Start has been called.
func (s *Simulated) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Overflows returns the number of wraps since Start, delivered or pending.
func (s *Simulated) Overflows() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overflows
}

// AdvanceCycles feeds CPU clock cycles through the prescaler.
func (s *Simulated) AdvanceCycles(cycles uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	total := s.residue + cycles
	s.residue = total % uint64(s.prescaler)
	s.advance(total / uint64(s.prescaler))
}

// Advance moves the counter forward by ticks.
func (s *Simulated) Advance(ticks uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.advance(ticks)
}

func (s *Simulated) advance(ticks uint64) {
	modulus := uint64(s.period) + 1
	total := uint64(s.count) + ticks
	wraps := total / modulus
	s.count = uint16(total % modulus)
	s.overflows += wraps
	if s.masked {
		s.pending += wraps
		return
	}
	for i := uint64(0); i < wraps; i++ {
		s.onOverflow()
	}
}

// ReadAndResetCount implements CountResetter. The counter keeps running from 0
// and the prescaler residue is kept.
func (s *Simulated) ReadAndResetCount() (uint16, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, wraps := s.count, s.pending
	s.count = 0
	s.pending = 0
	return count, wraps
}

// MaskOverflow implements OverflowMasker.
func (s *Simulated) MaskOverflow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masked = true
}

// UnmaskOverflow implements OverflowMasker.
func (s *Simulated) UnmaskOverflow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masked = false
	for ; s.pending > 0; s.pending-- {
		s.onOverflow()
	}
}
