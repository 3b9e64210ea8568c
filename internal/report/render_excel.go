package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	XlsxSummarySheetName     = "Summary"
	XlsxEvaluationsSheetName = "Evaluations"
)

func cellName(col int, row int) (name string) {
	columnName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return
	}
	name, err = excelize.JoinCellName(columnName, row)
	if err != nil {
		return
	}
	return
}

// renderXlsxTable writes a key/value table starting at row and leaves row on the
// line after the table's trailing blank line
func renderXlsxTable(t table, f *excelize.File, sheetName string, row *int, bold int) {
	_ = f.SetCellValue(sheetName, cellName(1, *row), t.Name)
	_ = f.SetCellStyle(sheetName, cellName(1, *row), cellName(1, *row), bold)
	*row++
	for _, fld := range t.Fields {
		var value string
		if len(fld.Values) > 0 {
			value = fld.Values[0]
		}
		_ = f.SetCellValue(sheetName, cellName(2, *row), fld.Name)
		_ = f.SetCellStyle(sheetName, cellName(2, *row), cellName(2, *row), bold)
		_ = f.SetCellValue(sheetName, cellName(3, *row), value)
		*row++
	}
	*row++
}

func renderXlsxEvaluations(r *Report, f *excelize.File, sheetName string, bold int) {
	headers := []string{"Window", "Time", "Raw", "Overflows", "Elapsed", "Difference", "Verdict"}
	for i, h := range headers {
		_ = f.SetCellValue(sheetName, cellName(i+1, 1), h)
		_ = f.SetCellStyle(sheetName, cellName(i+1, 1), cellName(i+1, 1), bold)
	}
	for i, eval := range r.Evaluations {
		row := i + 2
		_ = f.SetCellValue(sheetName, cellName(1, row), eval.Window)
		_ = f.SetCellValue(sheetName, cellName(2, row), eval.Time)
		_ = f.SetCellValue(sheetName, cellName(3, row), eval.Raw)
		_ = f.SetCellValue(sheetName, cellName(4, row), eval.Overflows)
		_ = f.SetCellValue(sheetName, cellName(5, row), eval.Elapsed)
		_ = f.SetCellValue(sheetName, cellName(6, row), eval.Difference)
		_ = f.SetCellValue(sheetName, cellName(7, row), string(eval.Verdict))
	}
}

func createXlsxReport(r *Report) (out []byte, err error) {
	f := excelize.NewFile()
	defer f.Close()
	bold, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	sheetName := XlsxSummarySheetName
	_ = f.SetSheetName("Sheet1", sheetName)
	_ = f.SetColWidth(sheetName, "A", "A", 20)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	row := 1
	tables := reportTables(r)
	// every table but the evaluations goes on the summary sheet
	for _, t := range tables[:len(tables)-1] {
		renderXlsxTable(t, f, sheetName, &row, bold)
	}
	if _, err = f.NewSheet(XlsxEvaluationsSheetName); err != nil {
		err = fmt.Errorf("failed to add evaluations sheet: %v", err)
		return
	}
	_ = f.SetColWidth(XlsxEvaluationsSheetName, "A", "G", 15)
	_ = f.SetColWidth(XlsxEvaluationsSheetName, "B", "B", 30)
	renderXlsxEvaluations(r, f, XlsxEvaluationsSheetName, bold)
	buf, err := f.WriteToBuffer()
	if err != nil {
		err = fmt.Errorf("failed to write xlsx report to buffer: %v", err)
		return
	}
	out = buf.Bytes()
	return
}
