// Package engine runs a full reconciliation of the two inter-branch ledgers:
// classification, cross-ledger reference matching, value offsetting of the
// residual, subtotals and report assembly. It performs no I/O.
package engine

import (
	"errors"
	"fmt"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/classify"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/match"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/offset"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/report"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/rules"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrMissingLedger is returned when one of the two mandatory ledgers is absent.
var ErrMissingLedger = errors.New("missing required ledger")

// Input is everything one reconciliation run needs.
type Input struct {
	// Ledgers holds the mandatory ledger of each direction.
	Ledgers map[domain.Direction]domain.Ledger
	// Pending holds optional ledgers of previously pending rows, appended
	// to the main ledger of the same direction.
	Pending map[domain.Direction]domain.Ledger
	// CarryOver is the prior-period difference injected into the carry-over group.
	CarryOver decimal.Decimal
}

// Validate checks that both mandatory ledgers are present.
func (in Input) Validate() error {
	for _, d := range domain.Directions {
		if _, ok := in.Ledgers[d]; !ok {
			return fmt.Errorf("ledger %s: %w", d, ErrMissingLedger)
		}
	}
	return nil
}

// Side is the outcome for one ledger direction.
type Side struct {
	Direction      domain.Direction
	Layout         []string
	Classification classify.Result
	Groups         map[string]report.Group
	Table          report.Table
}

// Result is the outcome of one run.
type Result struct {
	Sides    []Side
	Offset   offset.Result
	Warnings []string
}

// Side returns the outcome of a direction.
func (r *Result) Side(d domain.Direction) (Side, bool) {
	for _, s := range r.Sides {
		if s.Direction == d {
			return s, true
		}
	}
	return Side{}, false
}

// Tables returns the report tables in direction order.
func (r *Result) Tables() []report.Table {
	out := make([]report.Table, 0, len(r.Sides))
	for _, s := range r.Sides {
		out = append(out, s.Table)
	}
	return out
}

// Engine is safe for concurrent use once built.
type Engine struct {
	rules       rules.Config
	classifiers map[domain.Direction]*classify.Classifier
	reconciler  *offset.Reconciler
	assembler   *report.Assembler
	log         zerolog.Logger
}

// New builds an engine from a validated rule config.
func New(cfg rules.Config, reconciler *offset.Reconciler, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine.New: %w", err)
	}
	if reconciler == nil {
		reconciler = offset.New()
	}

	e := &Engine{
		rules:       cfg,
		classifiers: make(map[domain.Direction]*classify.Classifier, len(domain.Directions)),
		reconciler:  reconciler,
		assembler:   report.NewAssembler(log),
		log:         log,
	}
	for _, d := range domain.Directions {
		set, err := cfg.For(d)
		if err != nil {
			return nil, fmt.Errorf("engine.New: %w", err)
		}
		c, err := classify.New(set)
		if err != nil {
			return nil, fmt.Errorf("engine.New: %w", err)
		}
		e.classifiers[d] = c
	}
	return e, nil
}

// Rules returns the rule config the engine was built with.
func (e *Engine) Rules() rules.Config {
	return e.rules
}

// run carries the intermediate state of one reconciliation.
type run struct {
	sets     map[domain.Direction]rules.Set
	classes  map[domain.Direction]classify.Result
	residual map[domain.Direction][]domain.Transaction
	groups   map[domain.Direction]map[string]report.Group
}

// Run reconciles the input. The caller's ledgers are never modified.
func (e *Engine) Run(in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("Engine.Run: %w", err)
	}

	st := &run{
		sets:     make(map[domain.Direction]rules.Set),
		classes:  make(map[domain.Direction]classify.Result),
		residual: make(map[domain.Direction][]domain.Transaction),
		groups:   make(map[domain.Direction]map[string]report.Group),
	}

	for _, d := range domain.Directions {
		set, _ := e.rules.For(d)
		st.sets[d] = set

		main := in.Ledgers[d]
		main.Direction = d
		ledger := main.Extend(in.Pending[d])

		cls := e.classifiers[d].Classify(ledger)
		st.classes[d] = cls
		st.residual[d] = cls.Residual
		st.groups[d] = make(map[string]report.Group)

		e.log.Debug().
			Str("direction", string(d)).
			Int("rows", ledger.Len()).
			Int("residual", len(cls.Residual)).
			Msg("Ledger classified")
	}

	e.keywordGroups(st, in.CarryOver)
	e.referenceGroups(st)
	off := e.offsetGroups(st)

	res := &Result{Offset: off}
	for _, d := range domain.Directions {
		table, warnings := e.assembler.Assemble(d, st.sets[d].Layout, st.groups[d])
		res.Warnings = append(res.Warnings, warnings...)
		res.Sides = append(res.Sides, Side{
			Direction:      d,
			Layout:         st.sets[d].Layout,
			Classification: st.classes[d],
			Groups:         st.groups[d],
			Table:          table,
		})
	}

	e.log.Info().
		Int("offset", len(off.Offset)).
		Int("pending", len(off.Pending)).
		Int("warnings", len(res.Warnings)).
		Msg("Reconciliation finished")

	return res, nil
}

// keywordGroups turns keyword buckets into groups. A bucket present in both
// rule sets is paired: both sides share one combined subtotal.
func (e *Engine) keywordGroups(st *run, carryOver decimal.Decimal) {
	members := make(map[domain.Direction]map[rules.Bucket][]domain.Transaction)
	carries := make(map[domain.Direction]map[rules.Bucket]*domain.Transaction)

	for _, d := range domain.Directions {
		members[d] = make(map[rules.Bucket][]domain.Transaction)
		carries[d] = make(map[rules.Bucket]*domain.Transaction)
		for _, r := range st.sets[d].Rules {
			if r.IsReference() {
				continue
			}
			rows := st.classes[d].Bucket(r.Bucket)
			all := rows
			if r.CarryOver {
				row := report.CarryOverRow(carryOver)
				carries[d][r.Bucket] = &row
				all = append([]domain.Transaction{row}, rows...)
			}
			members[d][r.Bucket] = all
		}
	}

	for _, d := range domain.Directions {
		other := d.Counterpart()
		for _, r := range st.sets[d].Rules {
			if r.IsReference() {
				continue
			}
			sets := [][]domain.Transaction{members[d][r.Bucket]}
			if peer, ok := st.sets[other].Rule(r.Bucket); ok && !peer.IsReference() {
				sets = append(sets, members[other][r.Bucket])
			}
			st.groups[d][r.LayoutName()] = report.Group{
				Code:      r.Group,
				Name:      r.LayoutName(),
				Direction: d,
				CarryOver: carries[d][r.Bucket],
				Rows:      st.classes[d].Bucket(r.Bucket),
				Subtotal:  report.Total(true, sets...),
			}
		}
	}
}

// referenceGroups matches every reference bucket against the counterpart's
// residual. Rows pulled by one match leave the pool for later matches.
func (e *Engine) referenceGroups(st *run) {
	seq := 3
	for _, d := range domain.Directions {
		other := d.Counterpart()
		for _, r := range st.sets[d].ReferenceRules() {
			holders := st.classes[d].Bucket(r.Bucket)
			m := match.ByReference(holders, st.residual[other])
			st.residual[other] = m.Remaining

			code := fmt.Sprintf("A%d", seq)
			seq++
			total := report.Total(true, holders, m.Matched)

			st.groups[d][r.LayoutName()] = report.Group{
				Code: code, Name: r.LayoutName(), Direction: d, Rows: holders, Subtotal: total,
			}
			matchedName := r.LayoutName() + rules.MatchedSuffix
			st.groups[other][matchedName] = report.Group{
				Code: code, Name: matchedName, Direction: other, Rows: m.Matched, Subtotal: total,
			}

			e.log.Debug().
				Str("direction", string(d)).
				Str("bucket", string(r.Bucket)).
				Int("references", len(m.References)).
				Int("matched", len(m.Matched)).
				Msg("References matched")
		}
	}
}

// offsetGroups reconciles the union of both residuals and splits the outcome
// back by source ledger.
func (e *Engine) offsetGroups(st *run) offset.Result {
	var union []domain.Transaction
	for _, d := range domain.Directions {
		union = append(union, st.residual[d]...)
	}
	res := e.reconciler.Reconcile(union)

	offsetBy := bySource(res.Offset)
	pendingBy := bySource(res.Pending)

	var offsetSets [][]domain.Transaction
	for _, d := range domain.Directions {
		offsetSets = append(offsetSets, offsetBy[d])
	}
	offsetTotal := report.Total(true, offsetSets...)

	for i, d := range domain.Directions {
		st.groups[d][rules.LayoutOffset] = report.Group{
			Code: "C1", Name: rules.LayoutOffset, Direction: d, Rows: offsetBy[d], Subtotal: offsetTotal,
		}
		st.groups[d][rules.LayoutPending] = report.Group{
			Code:      fmt.Sprintf("D%d", i+1),
			Name:      rules.LayoutPending,
			Direction: d,
			Rows:      pendingBy[d],
			Subtotal:  report.Total(false, pendingBy[d]),
		}
	}
	return res
}

func bySource(txs []domain.Transaction) map[domain.Direction][]domain.Transaction {
	out := make(map[domain.Direction][]domain.Transaction, len(domain.Directions))
	for _, tx := range txs {
		out[tx.Source] = append(out[tx.Source], tx)
	}
	return out
}
