/*
Package config holds the build-time parameters of the CPU frequency self-test and
derives the fixed constants the test runs against.
*/
package config

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"os"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"freqcheck/internal/ticksource"
	"freqcheck/internal/util"
)

// ErrConfiguration is returned, wrapped, for every configuration rejection.
// A test built from a rejected configuration never arms.
var ErrConfiguration = errors.New("invalid frequency test configuration")

// legal hardware divisors of the tick source clock select
var prescalers = mapset.NewSet[uint32](1, 2, 4, 8, 64, 256, 1024)

// Configuration is the set of user supplied parameters of the frequency test.
type Configuration struct {
	// CPUFrequency is the expected CPU clock in Hz. It is only used to derive the
	// reference count; it never sets the clock.
	CPUFrequency uint64 `yaml:"cpu_frequency" json:"cpu_frequency"`
	// TickSource selects the counter instance, e.g. "sim".
	TickSource string `yaml:"tick_source" json:"tick_source"`
	// Prescaler divides the CPU clock before it reaches the counter.
	Prescaler uint32 `yaml:"prescaler" json:"prescaler"`
	// ReferencePeriod is the number of reference clock ticks between two evaluations.
	ReferencePeriod uint32 `yaml:"reference_period" json:"reference_period"`
	// ReferenceFrequency is the reference clock rate in Hz.
	ReferenceFrequency uint32 `yaml:"reference_frequency" json:"reference_frequency"`
	// TolerancePercent is the allowed deviation band, 25 means +/-25%.
	TolerancePercent uint32 `yaml:"tolerance_percent" json:"tolerance_percent"`
}

// Default returns the settings of the reference application: 2 MHz internal RC
// oscillator, /64 prescaler, 25% tolerance and a one second reference interval
// from a 1.024 kHz real time counter.
func Default() Configuration {
	return Configuration{
		CPUFrequency:       2000000,
		TickSource:         ticksource.SimulatedName,
		Prescaler:          64,
		ReferencePeriod:    1024,
		ReferenceFrequency: 1024,
		TolerancePercent:   25,
	}
}

// Prescalers returns the legal prescaler values in ascending order.
func Prescalers() []uint32 {
	values := prescalers.ToSlice()
	slices.Sort(values)
	return values
}

// Load reads a YAML configuration file. Keys missing from the file keep the
// values of Default().
func Load(path string) (Configuration, error) {
	cfg := Default()
	absPath, err := util.AbsPath(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to expand configuration path %s", path)
	}
	exists, err := util.FileExists(absPath)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to check configuration file")
	}
	if !exists {
		return cfg, fmt.Errorf("configuration file %s does not exist", absPath)
	}
	data, err := os.ReadFile(absPath) // #nosec G304
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read configuration file")
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse configuration file %s", absPath)
	}
	return cfg, nil
}

// Validate checks the parameters that can be judged without resolving the
// derived constants. Resolve calls it.
func (c Configuration) Validate() error {
	var problems []string
	if c.CPUFrequency == 0 {
		problems = append(problems, "cpu_frequency must be greater than 0")
	}
	if !prescalers.Contains(c.Prescaler) {
		problems = append(problems, fmt.Sprintf("prescaler %d is not one of %v", c.Prescaler, Prescalers()))
	}
	if c.ReferencePeriod == 0 {
		problems = append(problems, "reference_period must be greater than 0")
	}
	if c.ReferenceFrequency == 0 {
		problems = append(problems, "reference_frequency must be greater than 0")
	}
	if !ticksource.Registered(c.TickSource) {
		problems = append(problems, fmt.Sprintf("tick_source %q is not one of %v", c.TickSource, ticksource.Names()))
	}
	if len(problems) > 0 {
		return errors.Wrap(ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
