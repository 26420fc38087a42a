package classify

import (
	"testing"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/rules"
)

func TestExtractReference(t *testing.T) {
	bkk, err := ReferencePattern("BKK")
	if err != nil {
		t.Fatalf("ReferencePattern failed: %v", err)
	}
	bkm, err := ReferencePattern("BKM")
	if err != nil {
		t.Fatalf("ReferencePattern failed: %v", err)
	}

	tests := []struct {
		name string
		text string
		bkk  string
		bkm  string
	}{
		{name: "id prefix with colon", text: "ID BKK: 123/2024", bkk: "123/2024"},
		{name: "dash separator", text: "BKM-45/2023 lainnya", bkm: "45/2023"},
		{name: "glued id prefix", text: "TRF IDBKK 7/2025", bkk: "7/2025"},
		{name: "lower case", text: "pelunasan bkm:88/2024", bkm: "88/2024"},
		{name: "no marker", text: "PEMBAYARAN 123/2024"},
		{name: "marker without number", text: "BKK SUSULAN"},
		{name: "short year", text: "BKK 12/24"},
		{name: "empty", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractReference(bkk, tt.text); got != tt.bkk {
				t.Errorf("BKK ExtractReference(%q) = %q, want %q", tt.text, got, tt.bkk)
			}
			if got := ExtractReference(bkm, tt.text); got != tt.bkm {
				t.Errorf("BKM ExtractReference(%q) = %q, want %q", tt.text, got, tt.bkm)
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		text     string
		keywords []string
		want     bool
	}{
		{"pembayaran atas nota 12", []string{"PEMBAYARAN ATAS NOTA"}, true},
		{"JMU ASK 0001", []string{"JMU ASD", "JMU ASK"}, true},
		{"JMU AS", []string{"JMU ASD", "JMU ASK"}, false},
		{"", []string{"X"}, false},
	}

	for _, tt := range tests {
		if got := ContainsAny(tt.text, tt.keywords); got != tt.want {
			t.Errorf("ContainsAny(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func ledger(dir domain.Direction, purposes ...string) domain.Ledger {
	l := domain.Ledger{Direction: dir}
	for i, p := range purposes {
		l.Transactions = append(l.Transactions, domain.Transaction{Index: i, Purpose: p, Source: dir})
	}
	return l
}

func mustClassifier(t *testing.T, dir domain.Direction) *Classifier {
	t.Helper()
	set, err := rules.Default().For(dir)
	if err != nil {
		t.Fatalf("rules.For failed: %v", err)
	}
	c, err := New(set)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestClassifyPriority(t *testing.T) {
	c := mustClassifier(t, domain.HubToBranch)
	in := ledger(domain.HubToBranch,
		"PEMBAYARAN ATAS NOTA BKK 1/2024", // PN wins over BKK
		"ID BKK: 123/2024",
		"BKM-45/2023 lainnya",
		"BKK 9/2024 BKM 8/2024", // BKK checked first
		"PEMBAYARAN DPP GIRO",
		"kode lawan ro",
		"JMU ASD BKM",
		"",
		"SETORAN",
	)

	res := c.Classify(in)

	wantCounts := map[rules.Bucket]int{
		rules.BucketPN:   1,
		rules.BucketBKK:  2,
		rules.BucketBKM:  1,
		rules.BucketVARI: 2,
		rules.BucketJMU:  1,
	}
	for b, n := range wantCounts {
		if got := len(res.Bucket(b)); got != n {
			t.Errorf("bucket %s has %d rows, want %d", b, got, n)
		}
	}
	if len(res.Residual) != 2 {
		t.Errorf("residual has %d rows, want 2", len(res.Residual))
	}

	bkk := res.Bucket(rules.BucketBKK)
	if bkk[0].RefID != "123/2024" || bkk[1].RefID != "9/2024" {
		t.Errorf("unexpected BKK refs: %q, %q", bkk[0].RefID, bkk[1].RefID)
	}
	if res.Bucket(rules.BucketPN)[0].RefID != "" {
		t.Error("PN rows must not carry a reference")
	}
	if in.Transactions[1].RefID != "" {
		t.Error("Classify must not modify the input ledger")
	}
}

// Hub rows naming a BKK/BKM reference or a DPP/RO keyword go there even when
// they also carry a JMU keyword: JMU is the last hub rule.
func TestClassifyHubJMUAfterReferences(t *testing.T) {
	c := mustClassifier(t, domain.HubToBranch)

	wantOrder := []rules.Bucket{rules.BucketPN, rules.BucketBKK, rules.BucketBKM, rules.BucketVARI, rules.BucketJMU}
	res := c.Classify(ledger(domain.HubToBranch,
		"JMU ASD BKK 1/2024",
		"JMU ASK BKM-2/2024",
		"JMU ASD PEMBAYARAN DPP GIRO",
		"JMU ASK 0001",
	))

	if len(res.Order) != len(wantOrder) {
		t.Fatalf("Order = %v, want %v", res.Order, wantOrder)
	}
	for i, b := range wantOrder {
		if res.Order[i] != b {
			t.Errorf("Order[%d] = %s, want %s", i, res.Order[i], b)
		}
	}

	tests := []struct {
		bucket rules.Bucket
		want   string
	}{
		{rules.BucketBKK, "JMU ASD BKK 1/2024"},
		{rules.BucketBKM, "JMU ASK BKM-2/2024"},
		{rules.BucketVARI, "JMU ASD PEMBAYARAN DPP GIRO"},
		{rules.BucketJMU, "JMU ASK 0001"},
	}
	for _, tt := range tests {
		rows := res.Bucket(tt.bucket)
		if len(rows) != 1 || rows[0].Purpose != tt.want {
			t.Errorf("bucket %s = %+v, want only %q", tt.bucket, rows, tt.want)
		}
	}
}

func TestClassifyBranchHasNoJMU(t *testing.T) {
	c := mustClassifier(t, domain.BranchToHub)
	res := c.Classify(ledger(domain.BranchToHub, "JMU ASD 1", "KODE LAWAN RI", "KODE LAWAN RO"))

	if len(res.Bucket(rules.BucketJMU)) != 0 {
		t.Error("branch ledger must not produce a JMU bucket")
	}
	if len(res.Bucket(rules.BucketVARI)) != 1 {
		t.Errorf("VA_RI has %d rows, want 1", len(res.Bucket(rules.BucketVARI)))
	}
	if len(res.Residual) != 2 {
		t.Errorf("residual has %d rows, want 2", len(res.Residual))
	}
}

func TestClassifyPartitionIsExhaustiveAndDisjoint(t *testing.T) {
	c := mustClassifier(t, domain.HubToBranch)
	in := ledger(domain.HubToBranch,
		"PEMBAYARAN ATAS NOTA", "BKK 1/2024", "BKM 2/2024", "KODE LAWAN RO",
		"JMU ASK", "x", "BKK 3/2024", "", "pembayaran dpp giro", "y",
	)

	res := c.Classify(in)

	seen := make(map[int]int)
	for _, b := range res.Order {
		for _, tx := range res.Bucket(b) {
			seen[tx.Index]++
		}
	}
	for _, tx := range res.Residual {
		seen[tx.Index]++
	}

	if len(seen) != in.Len() {
		t.Fatalf("partition covers %d rows, want %d", len(seen), in.Len())
	}
	for idx, n := range seen {
		if n != 1 {
			t.Errorf("row %d appears %d times", idx, n)
		}
	}
}

func TestClassifyEmptyLedger(t *testing.T) {
	c := mustClassifier(t, domain.BranchToHub)
	res := c.Classify(domain.Ledger{Direction: domain.BranchToHub})

	if len(res.Residual) != 0 {
		t.Error("expected empty residual")
	}
	if len(res.Order) != 4 {
		t.Errorf("Order has %d buckets, want 4", len(res.Order))
	}
}
