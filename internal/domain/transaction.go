package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction identifies which side of the inter-branch exchange produced a ledger.
// The string value doubles as the source tag and the report sheet name.
type Direction string

const (
	// BranchToHub is the "CABANG SBY" ledger: amounts owed by the branch to the hub.
	BranchToHub Direction = "cabang_sby"
	// HubToBranch is the "SBY CABANG" ledger: amounts owed by the hub to the branch.
	HubToBranch Direction = "sby_cabang"
)

// Directions lists both ledger directions in report order.
var Directions = []Direction{BranchToHub, HubToBranch}

// Counterpart returns the opposite ledger direction.
func (d Direction) Counterpart() Direction {
	if d == BranchToHub {
		return HubToBranch
	}
	return BranchToHub
}

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == BranchToHub || d == HubToBranch
}

// ParseDirection converts a raw string into a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("ParseDirection: unknown ledger direction %q", s)
	}
	return d, nil
}

// Position is the reconciliation outcome of a residual transaction.
type Position string

const (
	// PositionNone marks rows that never went through value offsetting.
	PositionNone Position = ""
	// PositionOffset marks rows whose amount took part in a resolved pairing.
	PositionOffset Position = "OFFSET"
	// PositionPending marks rows left without a counterpart ("gantung").
	PositionPending Position = "GANTUNG"
)

// Transaction is one ledger line. Text fields are kept verbatim from the
// source; only Debet and Kredit are parsed.
type Transaction struct {
	// Index is the origin index assigned when the ledger was loaded.
	Index int

	CashierDate     string // Tanggal Kasir
	DocumentID      string // ID Dokumen
	DocumentNumber  string // Nomor Dokumen
	Counterparty    string // Dibayarkan (ke/dari)
	Purpose         string // Keperluan
	VesselVoyage    string // Vessel Voyage
	PaymentPlace    string // Tempat Pembayaran
	Creator         string // Pembuat
	SourceDocument  string // Sumber Dokumen
	DocumentType    string // Jenis Dokumen
	DeliveryDate    string // Tanggal Delivery
	CodeName        string // Nama Kode
	AccountingCode  string // Kode Accounting
	RecognitionUser string // User Pengakuan
	Unit            string
	Division        string // Divisi
	Flag            string // Flag KBM/KDRT
	TargetFirst     string // Target_First
	TargetType      string // Target_Jenis
	TargetSecond    string // Target_Second

	Debet  decimal.Decimal
	Kredit decimal.Decimal

	// RefID is the reference identifier extracted from Purpose, e.g. "123/2024".
	RefID string

	// Source is the ledger that produced the row.
	Source Direction

	// Position is set only for rows that went through value offsetting.
	Position Position
}

// HasRef reports whether a reference identifier was extracted for the row.
func (t Transaction) HasRef() bool {
	return t.RefID != ""
}

// Ledger is an ordered sequence of transactions from one direction.
type Ledger struct {
	Direction    Direction
	Transactions []Transaction
}

// Len returns the number of transactions in the ledger.
func (l Ledger) Len() int {
	return len(l.Transactions)
}

// Extend returns a new ledger with the supplemental transactions appended
// and origin indices reassigned 0..n-1. Neither input is modified.
func (l Ledger) Extend(supplements ...Ledger) Ledger {
	n := len(l.Transactions)
	for _, s := range supplements {
		n += len(s.Transactions)
	}

	out := Ledger{Direction: l.Direction, Transactions: make([]Transaction, 0, n)}
	out.Transactions = append(out.Transactions, l.Transactions...)
	for _, s := range supplements {
		out.Transactions = append(out.Transactions, s.Transactions...)
	}
	for i := range out.Transactions {
		out.Transactions[i].Index = i
		out.Transactions[i].Source = l.Direction
	}
	return out
}

// Clone returns a deep copy of the slice so callers can tag rows freely.
func Clone(txs []Transaction) []Transaction {
	if txs == nil {
		return nil
	}
	out := make([]Transaction, len(txs))
	copy(out, txs)
	return out
}

// Sum returns the column sums of Debet and Kredit.
func Sum(txs []Transaction) (debet, kredit decimal.Decimal) {
	debet, kredit = decimal.Zero, decimal.Zero
	for _, t := range txs {
		debet = debet.Add(t.Debet)
		kredit = kredit.Add(t.Kredit)
	}
	return debet, kredit
}
