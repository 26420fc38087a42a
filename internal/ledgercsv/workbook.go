package ledgercsv

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ReadWorkbook parses the first sheet of an xlsx ledger export.
func ReadWorkbook(r io.Reader, dir domain.Direction) (domain.Ledger, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("ledgercsv.ReadWorkbook: %s: opening workbook: %w", dir, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.Ledger{}, fmt.Errorf("ledgercsv.ReadWorkbook: %s: %w", dir, ErrEmptyFile)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("ledgercsv.ReadWorkbook: %s: reading %q: %w", dir, sheets[0], err)
	}

	recs := make([]record, 0, len(rows))
	for i, row := range rows {
		recs = append(recs, record{fields: row, line: i + 1})
	}
	return build(dir, recs)
}

// IsWorkbook reports whether a file name looks like an xlsx workbook.
func IsWorkbook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}

// ReadNamed picks the parser by file name.
func ReadNamed(name string, data []byte, dir domain.Direction) (domain.Ledger, error) {
	if IsWorkbook(name) {
		return ReadWorkbook(bytes.NewReader(data), dir)
	}
	return Read(bytes.NewReader(data), dir)
}

// ReadFile loads a ledger from a local csv or xlsx file.
func ReadFile(path string, dir domain.Direction) (domain.Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("ledgercsv.ReadFile: %w", err)
	}
	return ReadNamed(path, data, dir)
}
