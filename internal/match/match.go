// Package match correlates reference buckets with counterpart ledger rows.
package match

import "github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"

// References returns the distinct reference identifiers of holders in
// first-seen order. Rows without a reference are skipped.
func References(holders []domain.Transaction) []string {
	seen := make(map[string]struct{}, len(holders))
	var refs []string
	for _, tx := range holders {
		if !tx.HasRef() {
			continue
		}
		if _, ok := seen[tx.RefID]; ok {
			continue
		}
		seen[tx.RefID] = struct{}{}
		refs = append(refs, tx.RefID)
	}
	return refs
}

// Result splits a counterpart pool into rows whose document identifier
// equals one of the references and the rows that stay in the pool.
type Result struct {
	References []string
	Matched    []domain.Transaction
	Remaining  []domain.Transaction
}

// ByReference pulls from pool every row whose DocumentID exactly equals a
// reference carried by holders. Order within both parts follows pool.
// An empty holder set leaves the pool untouched.
func ByReference(holders, pool []domain.Transaction) Result {
	res := Result{References: References(holders)}
	if len(res.References) == 0 {
		res.Remaining = domain.Clone(pool)
		return res
	}

	want := make(map[string]struct{}, len(res.References))
	for _, ref := range res.References {
		want[ref] = struct{}{}
	}

	for _, tx := range pool {
		if _, ok := want[tx.DocumentID]; ok && tx.DocumentID != "" {
			res.Matched = append(res.Matched, tx)
			continue
		}
		res.Remaining = append(res.Remaining, tx)
	}
	return res
}
