package bigquery

import (
	"math/big"
	"testing"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/shopspring/decimal"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		period    string
		wantStart civil.Date
		wantEnd   civil.Date
		wantErr   bool
	}{
		{"2024-05", civil.Date{Year: 2024, Month: 5, Day: 1}, civil.Date{Year: 2024, Month: 6, Day: 1}, false},
		{"2024-12", civil.Date{Year: 2024, Month: 12, Day: 1}, civil.Date{Year: 2025, Month: 1, Day: 1}, false},
		{"2024-13", civil.Date{}, civil.Date{}, true},
		{"05/2024", civil.Date{}, civil.Date{}, true},
		{"", civil.Date{}, civil.Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			start, end, err := ParsePeriod(tt.period)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod(%q) error = %v, wantErr %v", tt.period, err, tt.wantErr)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("ParsePeriod(%q) = %v..%v, want %v..%v", tt.period, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestToLedger(t *testing.T) {
	rows := []*LedgerRow{
		{
			Direction:    string(domain.HubToBranch),
			CashierDate:  civil.Date{Year: 2024, Month: 5, Day: 3},
			DocumentID:   bigquery.NullString{StringVal: "10/2024", Valid: true},
			Purpose:      bigquery.NullString{StringVal: "BKK 10/2024", Valid: true},
			DeliveryDate: bigquery.NullDate{Date: civil.Date{Year: 2024, Month: 5, Day: 4}, Valid: true},
			Debet:        big.NewRat(3, 2),
		},
		{
			Direction:   string(domain.HubToBranch),
			CashierDate: civil.Date{Year: 2024, Month: 5, Day: 4},
			Kredit:      big.NewRat(250000, 1),
		},
	}

	ledger, err := ToLedger(domain.HubToBranch, rows)
	if err != nil {
		t.Fatalf("ToLedger failed: %v", err)
	}
	if ledger.Direction != domain.HubToBranch || ledger.Len() != 2 {
		t.Fatalf("unexpected ledger: %+v", ledger)
	}

	first := ledger.Transactions[0]
	if first.Index != 0 || first.CashierDate != "03/05/2024" || first.DeliveryDate != "04/05/2024" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.DocumentID != "10/2024" || first.Purpose != "BKK 10/2024" || first.Source != domain.HubToBranch {
		t.Errorf("unexpected text fields: %+v", first)
	}
	if !first.Debet.Equal(decimal.RequireFromString("1.5")) || !first.Kredit.IsZero() {
		t.Errorf("amounts = %s / %s", first.Debet, first.Kredit)
	}

	second := ledger.Transactions[1]
	if second.Index != 1 || second.DocumentID != "" || second.DeliveryDate != "" {
		t.Errorf("NULL columns not blank: %+v", second)
	}
	if !second.Kredit.Equal(decimal.NewFromInt(250000)) || !second.Debet.IsZero() {
		t.Errorf("amounts = %s / %s", second.Debet, second.Kredit)
	}
}

func TestTableRefQualified(t *testing.T) {
	ref := TableRef{Project: "rk-depo", Dataset: "kasir", Ledgers: "ledger_lines"}
	if got := ref.Qualified(ref.Ledgers); got != "`rk-depo.kasir.ledger_lines`" {
		t.Errorf("Qualified() = %s", got)
	}
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   *big.Rat
		want string
	}{
		{"null", nil, "0"},
		{"integer", big.NewRat(1250000, 1), "1250000"},
		{"negative fraction", big.NewRat(-7, 4), "-1.75"},
		{"rounded to NUMERIC scale", big.NewRat(1, 3), "0.333333333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := numeric(tt.in)
			if err != nil {
				t.Fatalf("numeric failed: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("numeric() = %s, want %s", got, tt.want)
			}
		})
	}
}
