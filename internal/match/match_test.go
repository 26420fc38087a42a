package match

import (
	"reflect"
	"testing"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
)

func holders(refs ...string) []domain.Transaction {
	var out []domain.Transaction
	for i, r := range refs {
		out = append(out, domain.Transaction{Index: i, RefID: r})
	}
	return out
}

func pool(ids ...string) []domain.Transaction {
	var out []domain.Transaction
	for i, id := range ids {
		out = append(out, domain.Transaction{Index: i, DocumentID: id})
	}
	return out
}

func ids(txs []domain.Transaction) []string {
	var out []string
	for _, tx := range txs {
		out = append(out, tx.DocumentID)
	}
	return out
}

func TestReferences(t *testing.T) {
	got := References(holders("2/2024", "1/2024", "2/2024", ""))
	want := []string{"2/2024", "1/2024"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("References() = %v, want %v", got, want)
	}
}

func TestByReference(t *testing.T) {
	tests := []struct {
		name          string
		refs          []string
		pool          []string
		wantMatched   []string
		wantRemaining []string
	}{
		{
			name:          "exact matches only",
			refs:          []string{"123/2024", "45/2023"},
			pool:          []string{"123/2024", "1234/2024", "45/2023", "X"},
			wantMatched:   []string{"123/2024", "45/2023"},
			wantRemaining: []string{"1234/2024", "X"},
		},
		{
			name:          "duplicate document ids all match",
			refs:          []string{"7/2025"},
			pool:          []string{"7/2025", "7/2025"},
			wantMatched:   []string{"7/2025", "7/2025"},
			wantRemaining: nil,
		},
		{
			name:          "empty reference bucket",
			refs:          nil,
			pool:          []string{"1/2024", ""},
			wantMatched:   nil,
			wantRemaining: []string{"1/2024", ""},
		},
		{
			name:          "empty document id never matches",
			refs:          []string{"1/2024"},
			pool:          []string{""},
			wantMatched:   nil,
			wantRemaining: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ByReference(holders(tt.refs...), pool(tt.pool...))

			if !reflect.DeepEqual(ids(res.Matched), tt.wantMatched) {
				t.Errorf("Matched = %v, want %v", ids(res.Matched), tt.wantMatched)
			}
			if !reflect.DeepEqual(ids(res.Remaining), tt.wantRemaining) {
				t.Errorf("Remaining = %v, want %v", ids(res.Remaining), tt.wantRemaining)
			}
			if len(res.Matched)+len(res.Remaining) != len(tt.pool) {
				t.Error("split must be exhaustive over the pool")
			}
		})
	}
}
