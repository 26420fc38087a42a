package main

import (
	"errors"
	"testing"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/engine"
	"github.com/shopspring/decimal"
)

func TestLedgerRefs(t *testing.T) {
	tests := []struct {
		name     string
		branch   string
		hub      string
		bPending string
		hPending string
		want     int
		wantErr  bool
	}{
		{"both ledgers", "a.csv", "b.csv", "", "", 2, false},
		{"with pending", "a.csv", "gs://rk/b.csv", "", "c.xlsx", 3, false},
		{"missing hub", "a.csv", "", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := ledgerRefs(tt.branch, tt.hub, tt.bPending, tt.hPending)
			if tt.wantErr {
				if !errors.Is(err, engine.ErrMissingLedger) {
					t.Fatalf("Expected ErrMissingLedger, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ledgerRefs failed: %v", err)
			}
			if len(refs) != tt.want {
				t.Fatalf("Expected %d refs, got %d", tt.want, len(refs))
			}
			if refs[0].Direction != domain.BranchToHub || refs[1].Direction != domain.HubToBranch {
				t.Errorf("unexpected directions: %+v", refs)
			}
		})
	}
}

func TestHasGCSRef(t *testing.T) {
	refs, _ := ledgerRefs("./a.csv", "gs://rk/b.csv", "", "")
	if !hasGCSRef(refs) {
		t.Error("Expected a gs:// ref")
	}
	if refs[0].Location != "a.csv" || refs[1].Location != "gs://rk/b.csv" {
		t.Errorf("unexpected locations: %+v", refs)
	}

	refs, _ = ledgerRefs("a.csv", "b.csv", "", "")
	if hasGCSRef(refs) {
		t.Error("Expected only local refs")
	}
}

func TestParseCarryOver(t *testing.T) {
	got, err := parseCarryOver("1,250,000")
	if err != nil || !got.Equal(decimal.NewFromInt(1250000)) {
		t.Errorf("parseCarryOver = %s, %v", got, err)
	}
	if _, err := parseCarryOver("satu"); err == nil {
		t.Error("Expected error for non-numeric carry-over")
	}
}
