// Package rules holds the direction-specific classification rule sets and
// report layouts. Rule sets are plain data: the built-in defaults can be
// replaced by a YAML file without touching the classifier.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"gopkg.in/yaml.v3"
)

// Bucket names a classification category.
type Bucket string

const (
	BucketPN   Bucket = "PN"
	BucketBKK  Bucket = "BKK"
	BucketBKM  Bucket = "BKM"
	BucketVARI Bucket = "VA_RI"
	BucketJMU  Bucket = "JMU"
)

// Layout entries that are not bucket names.
const (
	LayoutPending = "gantung"
	LayoutOffset  = "offset"
	// MatchedSuffix marks the rows a side lost to the other side's references.
	MatchedSuffix = "_matched"
)

// ErrInvalidRules is returned when a rule file fails validation.
var ErrInvalidRules = errors.New("invalid rule set")

// Rule claims transactions for one bucket. A rule is either a keyword rule
// (purpose text contains any keyword) or a reference rule (purpose text
// carries "<marker> <digits>/<year>").
type Rule struct {
	Bucket   Bucket   `yaml:"bucket"`
	Keywords []string `yaml:"keywords,omitempty"`
	Marker   string   `yaml:"marker,omitempty"`

	// Group is the report group code of a keyword rule. Reference rules get
	// their codes assigned in matching order.
	Group string `yaml:"group,omitempty"`

	// CarryOver prepends the prior-period carry-over row to this bucket.
	CarryOver bool `yaml:"carry_over,omitempty"`
}

// IsReference reports whether the rule extracts a reference identifier.
func (r Rule) IsReference() bool {
	return r.Marker != ""
}

// LayoutName is the name the bucket goes by in a report layout.
func (r Rule) LayoutName() string {
	return strings.ToLower(string(r.Bucket))
}

// Set is the ordered rule list and report layout of one ledger direction.
// Rules run in order; the first rule to claim a row wins.
type Set struct {
	Direction domain.Direction `yaml:"direction"`
	Rules     []Rule           `yaml:"rules"`
	Layout    []string         `yaml:"layout"`
}

// ReferenceRules returns the reference rules in priority order.
func (s Set) ReferenceRules() []Rule {
	var out []Rule
	for _, r := range s.Rules {
		if r.IsReference() {
			out = append(out, r)
		}
	}
	return out
}

// Rule looks up the rule for a bucket.
func (s Set) Rule(b Bucket) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Bucket == b {
			return r, true
		}
	}
	return Rule{}, false
}

// Config bundles the rule sets of both directions.
type Config struct {
	Ledgers []Set `yaml:"ledgers"`
}

// For returns the rule set of a direction.
func (c Config) For(d domain.Direction) (Set, error) {
	for _, s := range c.Ledgers {
		if s.Direction == d {
			return s, nil
		}
	}
	return Set{}, fmt.Errorf("Config.For: no rule set for %q: %w", d, ErrInvalidRules)
}

// Validate checks that both directions are present and every rule is well formed.
func (c Config) Validate() error {
	seen := make(map[domain.Direction]bool)
	for _, s := range c.Ledgers {
		if !s.Direction.Valid() {
			return fmt.Errorf("unknown direction %q: %w", s.Direction, ErrInvalidRules)
		}
		if seen[s.Direction] {
			return fmt.Errorf("duplicate rule set for %q: %w", s.Direction, ErrInvalidRules)
		}
		seen[s.Direction] = true
		if err := s.validate(); err != nil {
			return err
		}
	}
	for _, d := range domain.Directions {
		if !seen[d] {
			return fmt.Errorf("missing rule set for %q: %w", d, ErrInvalidRules)
		}
	}
	return nil
}

func (s Set) validate() error {
	buckets := make(map[Bucket]bool)
	for i, r := range s.Rules {
		if r.Bucket == "" {
			return fmt.Errorf("%s rule %d: empty bucket: %w", s.Direction, i, ErrInvalidRules)
		}
		if buckets[r.Bucket] {
			return fmt.Errorf("%s rule %d: duplicate bucket %s: %w", s.Direction, i, r.Bucket, ErrInvalidRules)
		}
		buckets[r.Bucket] = true

		switch {
		case r.IsReference() && len(r.Keywords) > 0:
			return fmt.Errorf("%s rule %s: both marker and keywords set: %w", s.Direction, r.Bucket, ErrInvalidRules)
		case !r.IsReference() && len(r.Keywords) == 0:
			return fmt.Errorf("%s rule %s: no keywords: %w", s.Direction, r.Bucket, ErrInvalidRules)
		case !r.IsReference() && r.Group == "":
			return fmt.Errorf("%s rule %s: keyword rule needs a group code: %w", s.Direction, r.Bucket, ErrInvalidRules)
		}
		for _, k := range r.Keywords {
			if strings.TrimSpace(k) == "" {
				return fmt.Errorf("%s rule %s: blank keyword: %w", s.Direction, r.Bucket, ErrInvalidRules)
			}
		}
	}
	return nil
}

// Default returns the built-in rule sets.
func Default() Config {
	return Config{Ledgers: []Set{
		{
			Direction: domain.BranchToHub,
			Rules: []Rule{
				{Bucket: BucketPN, Keywords: []string{"PEMBAYARAN ATAS NOTA"}, Group: "A2"},
				{Bucket: BucketBKK, Marker: "BKK"},
				{Bucket: BucketBKM, Marker: "BKM"},
				{Bucket: BucketVARI, Keywords: []string{"PENERIMAAN GIRO DENGAN VA", "KODE LAWAN RI"}, Group: "A1", CarryOver: true},
			},
			Layout: []string{
				LayoutPending, "va_ri", "pn",
				"bkk", "bkm", "bkk" + MatchedSuffix, "bkm" + MatchedSuffix,
				LayoutOffset,
			},
		},
		{
			Direction: domain.HubToBranch,
			Rules: []Rule{
				{Bucket: BucketPN, Keywords: []string{"PEMBAYARAN ATAS NOTA"}, Group: "A2"},
				{Bucket: BucketBKK, Marker: "BKK"},
				{Bucket: BucketBKM, Marker: "BKM"},
				{Bucket: BucketVARI, Keywords: []string{"PEMBAYARAN DPP GIRO", "KODE LAWAN RO"}, Group: "A1"},
				{Bucket: BucketJMU, Keywords: []string{"JMU ASD", "JMU ASK"}, Group: "B1"},
			},
			Layout: []string{
				LayoutPending, "va_ri", "pn", "jmu",
				"bkk" + MatchedSuffix, "bkm" + MatchedSuffix, "bkk", "bkm",
				LayoutOffset,
			},
		},
	}}
}

// Decode reads a YAML rule file. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("Decode: parsing rules: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("Decode: %w", err)
	}
	return cfg, nil
}

// Load reads rules from path, or returns the defaults when path is empty.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("Load: opening %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode renders the rule config as YAML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("Encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("Encode: %w", err)
	}
	return buf.Bytes(), nil
}
