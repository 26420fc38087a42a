package report

import (
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/shopspring/decimal"
)

// Subtotal is the synthetic total row closing a group.
type Subtotal struct {
	Debet  decimal.Decimal `json:"debet"`
	Kredit decimal.Decimal `json:"kredit"`

	// Difference is Debet - Kredit; meaningful only when HasDifference is set.
	Difference    decimal.Decimal `json:"difference"`
	HasDifference bool            `json:"has_difference"`
}

// Total sums Debet and Kredit across all sets. Paired groups pass the rows of
// both ledgers so each sheet shows the same combined total.
func Total(withDifference bool, sets ...[]domain.Transaction) Subtotal {
	st := Subtotal{Debet: decimal.Zero, Kredit: decimal.Zero, Difference: decimal.Zero}
	for _, txs := range sets {
		d, k := domain.Sum(txs)
		st.Debet = st.Debet.Add(d)
		st.Kredit = st.Kredit.Add(k)
	}
	if withDifference {
		st.Difference = st.Debet.Sub(st.Kredit)
		st.HasDifference = true
	}
	return st
}

// CarryOverRow builds the synthetic prior-period row: only Debet is set.
func CarryOverRow(amount decimal.Decimal) domain.Transaction {
	return domain.Transaction{Index: -1, Debet: amount}
}

// Group is one report unit: rows of one ledger plus a subtotal row.
type Group struct {
	Code string `json:"code"`
	// Name is the layout key, e.g. "bkk_matched".
	Name      string           `json:"name"`
	Direction domain.Direction `json:"direction"`

	// CarryOver, when set, is rendered as a synthetic first row.
	CarryOver *domain.Transaction  `json:"-"`
	Rows      []domain.Transaction `json:"-"`
	Subtotal  Subtotal             `json:"subtotal"`
}

// Members returns the group's rows with the carry-over row, if any, first.
func (g Group) Members() []domain.Transaction {
	if g.CarryOver == nil {
		return g.Rows
	}
	out := make([]domain.Transaction, 0, len(g.Rows)+1)
	out = append(out, *g.CarryOver)
	return append(out, g.Rows...)
}

// Lines renders the group as report rows, subtotal last.
func (g Group) Lines() []Row {
	lines := make([]Row, 0, len(g.Rows)+2)
	if g.CarryOver != nil {
		lines = append(lines, Row{Kind: RowCarryOver, Group: g.Code, Tx: *g.CarryOver})
	}
	for _, tx := range g.Rows {
		lines = append(lines, Row{Kind: RowTransaction, Group: g.Code, Tx: tx})
	}
	return append(lines, Row{Kind: RowSubtotal, Group: g.Code, Subtotal: g.Subtotal})
}
