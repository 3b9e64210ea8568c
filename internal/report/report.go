/*
Package report renders the evaluations of a frequency test run.
*/
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"time"

	"freqcheck/internal/config"
	"freqcheck/internal/freqtest"
)

const (
	FormatText = "txt"
	FormatJson = "json"
	FormatYaml = "yaml"
	FormatXlsx = "xlsx"
)

// FormatOptions lists the supported report formats.
var FormatOptions = []string{FormatText, FormatJson, FormatYaml, FormatXlsx}

// Summary aggregates the evaluations of a run.
type Summary struct {
	Windows       int           `json:"windows" yaml:"windows"`
	Passed        int           `json:"passed" yaml:"passed"`
	Faults        int           `json:"faults" yaml:"faults"`
	OverflowFault int           `json:"overflow_faults" yaml:"overflow_faults"`
	MaxDifference uint32        `json:"max_difference" yaml:"max_difference"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// Report is the result of one run.
type Report struct {
	Configuration config.Configuration  `json:"configuration" yaml:"configuration"`
	Constants     config.Constants      `json:"constants" yaml:"constants"`
	Scenario      string                `json:"scenario" yaml:"scenario"`
	Summary       Summary               `json:"summary" yaml:"summary"`
	Evaluations   []freqtest.Evaluation `json:"evaluations" yaml:"evaluations"`
}

// New returns an empty report for a run of the given test parameters.
func New(cfg config.Configuration, constants config.Constants, scenario string) *Report {
	return &Report{Configuration: cfg, Constants: constants, Scenario: scenario}
}

// Add appends an evaluation and updates the summary.
func (r *Report) Add(eval freqtest.Evaluation) {
	r.Evaluations = append(r.Evaluations, eval)
	r.Summary.Windows++
	switch eval.Verdict {
	case freqtest.VerdictPass:
		r.Summary.Passed++
	case freqtest.VerdictOverflow:
		r.Summary.Faults++
		r.Summary.OverflowFault++
	default:
		r.Summary.Faults++
	}
	r.Summary.MaxDifference = max(r.Summary.MaxDifference, eval.Difference)
	if len(r.Evaluations) > 1 {
		r.Summary.Duration = eval.Time.Sub(r.Evaluations[0].Time)
	}
}

// Create renders the report in format.
func (r *Report) Create(format string) ([]byte, error) {
	switch format {
	case FormatText:
		return createTextReport(r)
	case FormatJson:
		return createJsonReport(r)
	case FormatYaml:
		return createYamlReport(r)
	case FormatXlsx:
		return createXlsxReport(r)
	}
	return nil, fmt.Errorf("unsupported report format: %s, expected one of %v", format, FormatOptions)
}
