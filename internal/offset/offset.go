// Package offset decides which residual transactions cancel each other out
// by amount and which stay pending.
//
// The algorithm runs in a fixed order:
//
//  1. Count positive Debet and positive Kredit amounts into two multisets.
//  2. Exact pairing: every amount present on both sides removes
//     min(debit count, credit count) occurrences from each side.
//  3. Expand the remaining counts into flat lists sorted descending.
//  4. Debit-anchored greedy pass: for each debit, add every unused credit
//     that keeps the running sum at or below the debit. A sum within
//     tolerance of the debit resolves the debit and the credits used.
//  5. Credit-anchored greedy pass, symmetric, over what step 4 left.
//  6. Every amount that took part in a resolution joins the offset set. A
//     row is OFFSET when its Debet or Kredit is in that set.
//
// The greedy passes are a deterministic approximation of subset-sum, not an
// exhaustive search. Tagging is by value, so a row that merely shares an
// amount with a resolved pairing is also tagged OFFSET.
package offset

import (
	"sort"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the absolute tolerance of the greedy passes.
var DefaultTolerance = decimal.New(1, -6)

// Side names the anchoring column of a greedy resolution.
type Side string

const (
	SideDebet  Side = "debet"
	SideKredit Side = "kredit"
)

// ExactPair records an amount resolved by literal equality.
type ExactPair struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Resolution records one greedy one-to-many match.
type Resolution struct {
	Side   Side              `json:"side"`
	Anchor decimal.Decimal   `json:"anchor"`
	Group  []decimal.Decimal `json:"group"`
}

// Result is the outcome of one reconciliation.
type Result struct {
	Offset  []domain.Transaction
	Pending []domain.Transaction

	ExactPairs  []ExactPair
	Resolutions []Resolution

	// Amounts is the offset value set, largest first.
	Amounts []decimal.Decimal
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithTolerance overrides the greedy tolerance. Non-positive values are ignored.
func WithTolerance(tol decimal.Decimal) Option {
	return func(r *Reconciler) {
		if tol.IsPositive() {
			r.tolerance = tol
		}
	}
}

// Reconciler runs the value offset algorithm. It is stateless and safe for
// concurrent use.
type Reconciler struct {
	tolerance decimal.Decimal
}

// New creates a Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tolerance returns the configured greedy tolerance.
func (r *Reconciler) Tolerance() decimal.Decimal {
	return r.tolerance
}

// multiset counts amounts keyed by their canonical string form.
type multiset struct {
	counts map[string]int
	values map[string]decimal.Decimal
	keys   []string
}

func newMultiset() *multiset {
	return &multiset{counts: make(map[string]int), values: make(map[string]decimal.Decimal)}
}

func (m *multiset) add(v decimal.Decimal) {
	k := v.String()
	if _, ok := m.counts[k]; !ok {
		m.keys = append(m.keys, k)
		m.values[k] = v
	}
	m.counts[k]++
}

// expand flattens the remaining counts, largest first.
func (m *multiset) expand() []decimal.Decimal {
	var out []decimal.Decimal
	for _, k := range m.keys {
		for i := 0; i < m.counts[k]; i++ {
			out = append(out, m.values[k])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GreaterThan(out[j]) })
	return out
}

// Reconcile splits txs into Offset and Pending. The input slice is not
// modified; returned rows carry their Position.
func (r *Reconciler) Reconcile(txs []domain.Transaction) Result {
	debits, credits := newMultiset(), newMultiset()
	for _, tx := range txs {
		if tx.Debet.IsPositive() {
			debits.add(tx.Debet)
		}
		if tx.Kredit.IsPositive() {
			credits.add(tx.Kredit)
		}
	}

	var res Result
	resolved := make(map[string]decimal.Decimal)
	mark := func(v decimal.Decimal) { resolved[v.String()] = v }

	for _, k := range debits.keys {
		n := min(debits.counts[k], credits.counts[k])
		if n == 0 {
			continue
		}
		debits.counts[k] -= n
		credits.counts[k] -= n
		res.ExactPairs = append(res.ExactPairs, ExactPair{Amount: debits.values[k], Count: n})
		mark(debits.values[k])
	}

	restDebit, restCredit := debits.expand(), credits.expand()
	usedDebit := make([]bool, len(restDebit))
	usedCredit := make([]bool, len(restCredit))

	for i, target := range restDebit {
		group, ok := r.cover(target, restCredit, usedCredit)
		if !ok {
			continue
		}
		usedDebit[i] = true
		res.Resolutions = append(res.Resolutions, Resolution{Side: SideDebet, Anchor: target, Group: group})
	}

	for i, target := range restCredit {
		if usedCredit[i] {
			continue
		}
		group, ok := r.cover(target, restDebit, usedDebit)
		if !ok {
			continue
		}
		usedCredit[i] = true
		res.Resolutions = append(res.Resolutions, Resolution{Side: SideKredit, Anchor: target, Group: group})
	}

	for _, rs := range res.Resolutions {
		mark(rs.Anchor)
		for _, v := range rs.Group {
			mark(v)
		}
	}

	inSet := func(v decimal.Decimal) bool {
		if !v.IsPositive() {
			return false
		}
		_, ok := resolved[v.String()]
		return ok
	}
	for _, tx := range txs {
		if inSet(tx.Debet) || inSet(tx.Kredit) {
			tx.Position = domain.PositionOffset
			res.Offset = append(res.Offset, tx)
		} else {
			tx.Position = domain.PositionPending
			res.Pending = append(res.Pending, tx)
		}
	}

	SortByAmount(res.Offset)
	SortByAmount(res.Pending)

	for _, v := range resolved {
		res.Amounts = append(res.Amounts, v)
	}
	sort.Slice(res.Amounts, func(i, j int) bool { return res.Amounts[i].GreaterThan(res.Amounts[j]) })

	return res
}

// cover scans candidates left to right, adding every unused value that keeps
// the sum at or below target. On success the used candidates are marked.
func (r *Reconciler) cover(target decimal.Decimal, candidates []decimal.Decimal, used []bool) ([]decimal.Decimal, bool) {
	sum := decimal.Zero
	var picked []int
	for j, v := range candidates {
		if used[j] {
			continue
		}
		if next := sum.Add(v); next.LessThanOrEqual(target) {
			sum = next
			picked = append(picked, j)
		}
	}
	if target.Sub(sum).Abs().GreaterThanOrEqual(r.tolerance) {
		return nil, false
	}

	group := make([]decimal.Decimal, 0, len(picked))
	for _, j := range picked {
		used[j] = true
		group = append(group, candidates[j])
	}
	return group, true
}

// SortByAmount orders rows by Debet descending, then Kredit descending.
func SortByAmount(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if c := txs[i].Debet.Cmp(txs[j].Debet); c != 0 {
			return c > 0
		}
		return txs[i].Kredit.GreaterThan(txs[j].Kredit)
	})
}
