// Package report turns reconciled groups into the per-ledger report tables.
package report

import (
	"fmt"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/rs/zerolog"
)

// SpacerRows is the number of blank rows written after every group.
const SpacerRows = 2

// RowKind distinguishes the lines of a report table.
type RowKind int

const (
	RowTransaction RowKind = iota
	RowCarryOver
	RowSubtotal
	RowSpacer
)

// Row is one line of a report table.
type Row struct {
	Kind     RowKind
	Group    string
	Tx       domain.Transaction
	Subtotal Subtotal
}

// Cells renders the row against columns. Amounts and the origin index are
// numeric; blank cells are nil.
func (r Row) Cells(columns []string) []any {
	cells := make([]any, len(columns))
	if r.Kind == RowSpacer {
		return cells
	}
	for i, col := range columns {
		cells[i] = r.cell(col)
	}
	return cells
}

func (r Row) cell(col string) any {
	if col == domain.ColGroup {
		return r.Group
	}

	if r.Kind == RowSubtotal {
		switch col {
		case domain.ColDebet:
			return r.Subtotal.Debet.InexactFloat64()
		case domain.ColKredit:
			return r.Subtotal.Kredit.InexactFloat64()
		case domain.ColPaymentPlace:
			if r.Subtotal.HasDifference {
				return r.Subtotal.Difference.InexactFloat64()
			}
		}
		return nil
	}

	switch col {
	case domain.ColIndex:
		if r.Kind == RowCarryOver {
			return nil
		}
		return r.Tx.Index
	case domain.ColDebet:
		return r.Tx.Debet.InexactFloat64()
	case domain.ColKredit:
		if r.Kind == RowCarryOver {
			return nil
		}
		return r.Tx.Kredit.InexactFloat64()
	}
	if v := r.Tx.Field(col); v != "" {
		return v
	}
	return nil
}

// Table is the assembled report of one ledger direction.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Values renders every row as cells.
func (t Table) Values() [][]any {
	out := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Cells(t.Columns)
	}
	return out
}

// Assembler concatenates groups in layout order.
type Assembler struct {
	log     zerolog.Logger
	columns []string
}

// NewAssembler creates an Assembler writing the full report schema.
func NewAssembler(log zerolog.Logger) *Assembler {
	return &Assembler{log: log, columns: domain.ReportColumns}
}

// Assemble builds the table of one direction. Layout names without a
// produced group are logged, reported as warnings and skipped.
func (a *Assembler) Assemble(dir domain.Direction, layout []string, groups map[string]Group) (Table, []string) {
	t := Table{Name: string(dir), Columns: a.columns}
	var warnings []string

	for _, name := range layout {
		g, ok := groups[name]
		if !ok {
			msg := fmt.Sprintf("group %q not found for %s, skipped", name, dir)
			a.log.Warn().Str("direction", string(dir)).Str("group", name).Msg("Report group not found, skipped")
			warnings = append(warnings, msg)
			continue
		}
		t.Rows = append(t.Rows, g.Lines()...)
		for i := 0; i < SpacerRows; i++ {
			t.Rows = append(t.Rows, Row{Kind: RowSpacer})
		}
	}
	return t, warnings
}
