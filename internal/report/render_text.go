package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"freqcheck/internal/config"
)

// field is one column of a table, or one row of a key/value table
type field struct {
	Name   string
	Values []string
}

// table is a named set of fields. A table with rows prints fields as columns.
type table struct {
	Name    string
	HasRows bool
	Fields  []field
}

// printer adds thousands separators, e.g. 31,250
var printer = message.NewPrinter(language.English)

func number[T ~uint16 | ~uint32 | ~uint64 | ~int](v T) string {
	return printer.Sprintf("%d", v)
}

func reportTables(r *Report) []table {
	cfg := r.Configuration
	c := r.Constants
	tables := []table{
		{Name: "Configuration", Fields: []field{
			{Name: "CPU Frequency (Hz)", Values: []string{number(cfg.CPUFrequency)}},
			{Name: "Tick Source", Values: []string{cfg.TickSource}},
			{Name: "Prescaler", Values: []string{number(cfg.Prescaler)}},
			{Name: "Reference Period", Values: []string{number(cfg.ReferencePeriod)}},
			{Name: "Reference Frequency (Hz)", Values: []string{number(cfg.ReferenceFrequency)}},
			{Name: "Tolerance (%)", Values: []string{number(cfg.TolerancePercent)}},
		}},
		constantsTable(c),
		{Name: "Summary", Fields: []field{
			{Name: "Scenario", Values: []string{r.Scenario}},
			{Name: "Windows", Values: []string{number(r.Summary.Windows)}},
			{Name: "Passed", Values: []string{number(r.Summary.Passed)}},
			{Name: "Faults", Values: []string{number(r.Summary.Faults)}},
			{Name: "Overflow Faults", Values: []string{number(r.Summary.OverflowFault)}},
			{Name: "Max Difference", Values: []string{number(r.Summary.MaxDifference)}},
		}},
	}
	windows := table{Name: "Evaluations", HasRows: true, Fields: []field{
		{Name: "Window"}, {Name: "Raw"}, {Name: "Overflows"}, {Name: "Elapsed"}, {Name: "Difference"}, {Name: "Verdict"},
	}}
	for _, eval := range r.Evaluations {
		windows.Fields[0].Values = append(windows.Fields[0].Values, fmt.Sprintf("%d", eval.Window))
		windows.Fields[1].Values = append(windows.Fields[1].Values, fmt.Sprintf("%d", eval.Raw))
		windows.Fields[2].Values = append(windows.Fields[2].Values, fmt.Sprintf("%d", eval.Overflows))
		windows.Fields[3].Values = append(windows.Fields[3].Values, number(eval.Elapsed))
		windows.Fields[4].Values = append(windows.Fields[4].Values, number(eval.Difference))
		windows.Fields[5].Values = append(windows.Fields[5].Values, string(eval.Verdict))
	}
	return append(tables, windows)
}

func createTextReport(r *Report) (out []byte, err error) {
	var sb strings.Builder
	for _, t := range reportTables(r) {
		sb.WriteString(renderTextTable(t))
	}
	out = []byte(sb.String())
	return
}

func renderTextTable(t table) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n", t.Name))
	sb.WriteString(strings.Repeat("=", len(t.Name)) + "\n")
	if len(t.Fields) == 0 || len(t.Fields[0].Values) == 0 {
		sb.WriteString("No data found.\n\n")
		return sb.String()
	}
	columnSpacing := 3
	if t.HasRows {
		// widest of the heading and the values, except the last column
		widths := make([]int, len(t.Fields))
		for i, f := range t.Fields {
			if i == len(t.Fields)-1 {
				continue
			}
			widths[i] = len(f.Name)
			for _, v := range f.Values {
				widths[i] = max(widths[i], len(v))
			}
		}
		for i, f := range t.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", widths[i]+columnSpacing, f.Name))
		}
		sb.WriteString("\n")
		for i, f := range t.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", widths[i]+columnSpacing, strings.Repeat("-", len(f.Name))))
		}
		sb.WriteString("\n")
		for row := 0; row < len(t.Fields[0].Values); row++ {
			for i, f := range t.Fields {
				sb.WriteString(fmt.Sprintf("%-*s", widths[i]+columnSpacing, f.Values[row]))
			}
			sb.WriteString("\n")
		}
	} else {
		width := 0
		for _, f := range t.Fields {
			width = max(width, len(f.Name))
		}
		for _, f := range t.Fields {
			sb.WriteString(fmt.Sprintf("%-*s %s\n", width+1, f.Name+":", f.Values[0]))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func constantsTable(c config.Constants) table {
	return table{Name: "Derived Constants", Fields: []field{
		{Name: "Tick Frequency (Hz)", Values: []string{number(c.TickFrequency)}},
		{Name: "Reference Count", Values: []string{number(c.ReferenceCount)}},
		{Name: "Max Deviation", Values: []string{number(c.MaxDeviation)}},
		{Name: "Max Overflow Count", Values: []string{number(c.MaxOverflowCount)}},
	}}
}

// ConstantsText renders the derived constants as a text table.
func ConstantsText(c config.Constants) string {
	return renderTextTable(constantsTable(c))
}
