// Package ledgercsv reads cashier ledger exports into domain ledgers.
package ledgercsv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrMalformedAmount is returned when Debet or Kredit is not a number.
	ErrMalformedAmount = errors.New("malformed amount")
	// ErrEmptyFile is returned when the input has no header line.
	ErrEmptyFile = errors.New("empty ledger file")
)

// RequiredColumns must be present in every ledger file.
var RequiredColumns = []string{domain.ColDebet, domain.ColKredit, domain.ColPurpose}

// delimiters are the candidates tried when sniffing the header line.
var delimiters = []rune{',', ';', '\t', '|'}

// FieldError reports a value that could not be normalized.
type FieldError struct {
	Direction domain.Direction
	// Line is the 1-based line in the file, header included.
	Line  int
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s line %d: %s %q: %v", e.Direction, e.Line, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ParseAmount normalizes a currency cell: blank, "-" and "nan" are zero and
// "," thousands separators are dropped.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" || strings.EqualFold(s, "nan") {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrMalformedAmount
	}
	return d, nil
}

// Read parses a ledger export. The input may start with a UTF-8 BOM and may
// use any of ",", ";", tab or "|" as delimiter. Only known ledger columns
// are kept; rows get origin indices 0..n-1.
func Read(r io.Reader, dir domain.Direction) (domain.Ledger, error) {
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("ledgercsv.Read: %s: reading input: %w", dir, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Ledger{}, fmt.Errorf("ledgercsv.Read: %s: %w", dir, ErrEmptyFile)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = SniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var recs []record
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("ledgercsv.Read: %s: %w", dir, err)
		}
		line, _ := cr.FieldPos(0)
		recs = append(recs, record{fields: fields, line: line})
	}
	return build(dir, recs)
}

// record is one raw row with its 1-based source line.
type record struct {
	fields []string
	line   int
}

// build maps raw records, header first, onto a ledger.
func build(dir domain.Direction, recs []record) (domain.Ledger, error) {
	if len(recs) == 0 {
		return domain.Ledger{}, fmt.Errorf("ledgercsv: %s: %w", dir, ErrEmptyFile)
	}

	cols := make(map[string]int, len(recs[0].fields))
	for i, h := range recs[0].fields {
		name := strings.TrimSpace(h)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, req := range RequiredColumns {
		if _, ok := cols[req]; !ok {
			return domain.Ledger{}, fmt.Errorf("ledgercsv: %s: %q: %w", dir, req, ErrMissingColumn)
		}
	}

	ledger := domain.Ledger{Direction: dir}
	for _, rec := range recs[1:] {
		if blank(rec.fields) {
			continue
		}
		cell := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec.fields) {
				return ""
			}
			return strings.TrimSpace(rec.fields[i])
		}

		tx := domain.Transaction{Index: ledger.Len(), Source: dir}
		for _, col := range domain.LedgerColumns {
			tx.SetField(col, cell(col))
		}
		var err error
		if tx.Debet, err = ParseAmount(cell(domain.ColDebet)); err != nil {
			return domain.Ledger{}, &FieldError{Direction: dir, Line: rec.line, Field: domain.ColDebet, Value: cell(domain.ColDebet), Err: err}
		}
		if tx.Kredit, err = ParseAmount(cell(domain.ColKredit)); err != nil {
			return domain.Ledger{}, &FieldError{Direction: dir, Line: rec.line, Field: domain.ColKredit, Value: cell(domain.ColKredit), Err: err}
		}
		ledger.Transactions = append(ledger.Transactions, tx)
	}
	return ledger, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// SniffDelimiter picks the candidate delimiter that occurs most often
// outside quotes on the first line. Ties go to the earlier candidate and
// a line without any candidate falls back to ",".
func SniffDelimiter(data []byte) rune {
	first, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')

	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, c := range first {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[c]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}
