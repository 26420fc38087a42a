// Package classify partitions a ledger into mutually exclusive buckets by
// running a direction's rule set in priority order.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/rules"
)

// ReferencePattern builds the extraction pattern for a marker such as "BKK":
// optional "ID" prefix, the marker, optional ":" or "-" and whitespace, then
// the captured "<digits>/<4-digit year>".
func ReferencePattern(marker string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)(?:ID)?` + regexp.QuoteMeta(marker) + `\s*[:\-]?\s*(\d+/\d{4})`)
}

// ExtractReference returns the reference identifier in text, or "" if none.
func ExtractReference(re *regexp.Regexp, text string) string {
	if text == "" {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ContainsAny reports whether text contains any keyword, ignoring case.
// Empty text never matches.
func ContainsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	upper := strings.ToUpper(text)
	for _, k := range keywords {
		if strings.Contains(upper, strings.ToUpper(k)) {
			return true
		}
	}
	return false
}

type compiledRule struct {
	rules.Rule
	pattern *regexp.Regexp
}

// Classifier applies one direction's rules.
type Classifier struct {
	set   rules.Set
	rules []compiledRule
}

// New compiles the rule set.
func New(set rules.Set) (*Classifier, error) {
	c := &Classifier{set: set}
	for _, r := range set.Rules {
		cr := compiledRule{Rule: r}
		if r.IsReference() {
			re, err := ReferencePattern(r.Marker)
			if err != nil {
				return nil, fmt.Errorf("classify.New: compiling %s pattern: %w", r.Bucket, err)
			}
			cr.pattern = re
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// Direction returns the ledger direction the classifier was built for.
func (c *Classifier) Direction() domain.Direction {
	return c.set.Direction
}

// Result is the partition of one ledger.
type Result struct {
	Direction domain.Direction
	// Order lists the buckets in the priority they were applied.
	Order    []rules.Bucket
	Buckets  map[rules.Bucket][]domain.Transaction
	Residual []domain.Transaction
}

// Bucket returns the rows of a bucket; unknown buckets are empty.
func (r Result) Bucket(b rules.Bucket) []domain.Transaction {
	return r.Buckets[b]
}

// Classify partitions the ledger. The input is not modified; rows claimed
// by a reference rule carry the extracted RefID.
func (c *Classifier) Classify(ledger domain.Ledger) Result {
	res := Result{
		Direction: c.set.Direction,
		Buckets:   make(map[rules.Bucket][]domain.Transaction, len(c.rules)),
	}

	remaining := domain.Clone(ledger.Transactions)
	for _, r := range c.rules {
		res.Order = append(res.Order, r.Bucket)

		var claimed, rest []domain.Transaction
		for _, tx := range remaining {
			if r.pattern != nil {
				if ref := ExtractReference(r.pattern, tx.Purpose); ref != "" {
					tx.RefID = ref
					claimed = append(claimed, tx)
					continue
				}
			} else if ContainsAny(tx.Purpose, r.Keywords) {
				claimed = append(claimed, tx)
				continue
			}
			rest = append(rest, tx)
		}
		res.Buckets[r.Bucket] = claimed
		remaining = rest
	}
	res.Residual = remaining
	return res
}
