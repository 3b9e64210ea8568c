package config

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

const (
	// NativeWidth is the width in bits of the tick source counter.
	NativeWidth = 16
	// CounterPeriod is the value at which the counter wraps. The evaluation
	// assumes it is the largest value of the native width.
	CounterPeriod = 0xFFFF
)

// Constants are the values derived once from a Configuration.
type Constants struct {
	// TickFrequency is the counter rate in Hz.
	TickFrequency uint32 `yaml:"tick_frequency" json:"tick_frequency"`
	// ReferenceCount is the expected number of counter ticks in one reference interval.
	ReferenceCount uint32 `yaml:"reference_count" json:"reference_count"`
	// MaxDeviation is the largest accepted |elapsed - ReferenceCount|.
	MaxDeviation uint32 `yaml:"max_deviation" json:"max_deviation"`
	// MaxOverflowCount is the largest accepted number of counter wraps in one interval.
	MaxOverflowCount uint16 `yaml:"max_overflow_count" json:"max_overflow_count"`
}

// Resolve derives the Constants for cfg. Every product is formed in 128 bits and
// every quotient is range checked before it is narrowed, so a configuration that
// does not fit is rejected instead of silently truncated.
func Resolve(cfg Configuration) (Constants, error) {
	if err := cfg.Validate(); err != nil {
		return Constants{}, err
	}
	tickFrequency := cfg.CPUFrequency / uint64(cfg.Prescaler)
	if tickFrequency > math.MaxUint32 {
		return Constants{}, errors.Wrapf(ErrConfiguration, "tick frequency %d Hz does not fit in 32 bits", tickFrequency)
	}
	referenceCount, err := mulDiv(tickFrequency, uint64(cfg.ReferencePeriod), uint64(cfg.ReferenceFrequency))
	if err != nil {
		return Constants{}, errors.Wrap(err, "reference count")
	}
	if referenceCount == 0 {
		return Constants{}, errors.Wrapf(ErrConfiguration, "reference count is 0, the tick source cannot advance within one reference interval")
	}
	maxDeviation, err := mulDiv(referenceCount, uint64(cfg.TolerancePercent), 100)
	if err != nil {
		return Constants{}, errors.Wrap(err, "max deviation")
	}
	upper := referenceCount + maxDeviation
	if upper > math.MaxUint32 {
		return Constants{}, errors.Wrapf(ErrConfiguration, "reference count plus tolerance (%d) does not fit in 32 bits", upper)
	}
	return Constants{
		TickFrequency:    uint32(tickFrequency),
		ReferenceCount:   uint32(referenceCount),
		MaxDeviation:     uint32(maxDeviation),
		MaxOverflowCount: uint16(upper >> NativeWidth),
	}, nil
}

// mulDiv returns a*b/c computed without intermediate truncation. The result must
// fit in 32 bits.
func mulDiv(a, b, c uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, errors.Wrap(ErrConfiguration, fmt.Sprintf("%d * %d / %d overflows 64 bits", a, b, c))
	}
	quo, _ := bits.Div64(hi, lo, c)
	if quo > math.MaxUint32 {
		return 0, errors.Wrap(ErrConfiguration, fmt.Sprintf("%d * %d / %d = %d does not fit in 32 bits", a, b, c, quo))
	}
	return quo, nil
}
