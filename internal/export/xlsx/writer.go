// Package xlsx writes assembled report tables into an xlsx workbook, one
// sheet per ledger direction.
package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/report"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

// FileName returns the download name of a report produced at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("hasil_RK_%s.xlsx", t.Format("20060102_1504"))
}

// Write renders tables into a workbook written to w. Each table becomes a
// sheet named after it, with the column schema as header row.
func Write(w io.Writer, tables []report.Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("xlsx.Write: no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for _, t := range tables {
		if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("xlsx.Write: creating sheet %q: %w", t.Name, err)
		}
		if err := writeTable(f, t); err != nil {
			return fmt.Errorf("xlsx.Write: sheet %q: %w", t.Name, err)
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("xlsx.Write: removing default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx.Write: %w", err)
	}
	return nil
}

// Bytes renders tables into an in-memory workbook.
func Bytes(tables []report.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, tables); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t report.Table) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range t.Values() {
		if isEmpty(row) {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// isEmpty reports a spacer row; excelize leaves those rows absent.
func isEmpty(row []any) bool {
	for _, v := range row {
		if v != nil {
			return false
		}
	}
	return true
}
