package freqtest

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"

	"github.com/pkg/errors"
)

// FaultID identifies a fault to the system fault handler.
type FaultID int

// FaultFrequency is the only fault raised by the frequency test.
const FaultFrequency FaultID = 1

func (id FaultID) String() string {
	if id == FaultFrequency {
		return "frequency"
	}
	return fmt.Sprintf("fault(%d)", int(id))
}

// FaultReporter performs the system defined mitigation for a fault. It is called
// synchronously, exactly once per failing evaluation.
type FaultReporter interface {
	ReportFault(id FaultID)
}

// FaultReporterFunc adapts a function to FaultReporter.
type FaultReporterFunc func(id FaultID)

// ReportFault calls f(id).
func (f FaultReporterFunc) ReportFault(id FaultID) {
	f(id)
}

var (
	// ErrFrequencyDeviation matches every *FaultError.
	ErrFrequencyDeviation = errors.New("CPU frequency deviation")
	// ErrNotArmed is returned by OnReferenceTick before SetupTimer and after a
	// fault until Rearm.
	ErrNotArmed = errors.New("frequency test is not armed")
)

// Reason tells which check raised a fault.
type Reason string

const (
	// ReasonOverflow means the counter wrapped more often than one reference
	// interval allows, so the reference clock itself is suspect.
	ReasonOverflow Reason = "overflow"
	// ReasonDeviation means the elapsed tick count is outside the tolerance band.
	ReasonDeviation Reason = "deviation"
)

// FaultError describes a failed evaluation.
type FaultError struct {
	Reason     Reason
	Evaluation Evaluation
}

func (e *FaultError) Error() string {
	switch e.Reason {
	case ReasonOverflow:
		return fmt.Sprintf("%s: %d counter overflows in window %d", ErrFrequencyDeviation, e.Evaluation.Overflows, e.Evaluation.Window)
	default:
		return fmt.Sprintf("%s: elapsed %d ticks differs from reference by %d in window %d", ErrFrequencyDeviation, e.Evaluation.Elapsed, e.Evaluation.Difference, e.Evaluation.Window)
	}
}

// Is reports whether target is ErrFrequencyDeviation.
func (e *FaultError) Is(target error) bool {
	return target == ErrFrequencyDeviation
}
