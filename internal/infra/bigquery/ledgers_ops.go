package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

const (
	periodFormat = "2006-01"
	// dateLayout matches the cashier export's Tanggal Kasir format.
	dateLayout = "02/01/2006"
	// numericScale is the fractional precision of BigQuery NUMERIC.
	numericScale = 9
)

// ParsePeriod turns "YYYY-MM" into the first day of that month and the first
// day of the next one.
func ParsePeriod(period string) (start, end civil.Date, err error) {
	t, err := time.Parse(periodFormat, period)
	if err != nil {
		return civil.Date{}, civil.Date{}, fmt.Errorf("ParsePeriod: %q is not YYYY-MM: %w", period, err)
	}
	start = civil.DateOf(t)
	return start, start.AddMonths(1), nil
}

// LoadLedgerWithClient reads the ledger lines of one direction for a period,
// ordered as they were exported.
func LoadLedgerWithClient(ctx context.Context, client *bigquery.Client, table TableRef, period string, dir domain.Direction) (domain.Ledger, error) {
	start, end, err := ParsePeriod(period)
	if err != nil {
		return domain.Ledger{}, err
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			arah,
			line_no,
			tanggal_kasir,
			id_dokumen,
			nomor_dokumen,
			dibayarkan,
			keperluan,
			vessel_voyage,
			tempat_pembayaran,
			pembuat,
			sumber_dokumen,
			jenis_dokumen,
			tanggal_delivery,
			nama_kode,
			kode_accounting,
			user_pengakuan,
			unit,
			divisi,
			flag_kbm_kdrt,
			target_first,
			target_jenis,
			target_second,
			debet,
			kredit
		FROM %s
		WHERE arah = @direction
		  AND tanggal_kasir >= @start_date
		  AND tanggal_kasir < @end_date
		ORDER BY tanggal_kasir, line_no
	`, table.Qualified(table.Ledgers)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "direction", Value: string(dir)},
		{Name: "start_date", Value: start},
		{Name: "end_date", Value: end},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("LoadLedger: query read: %w", err)
	}

	var rows []*LedgerRow
	for {
		var r LedgerRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("LoadLedger: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return ToLedger(dir, rows)
}

// ToLedger maps warehouse rows onto a ledger with origin indices 0..n-1.
func ToLedger(dir domain.Direction, rows []*LedgerRow) (domain.Ledger, error) {
	ledger := domain.Ledger{Direction: dir, Transactions: make([]domain.Transaction, 0, len(rows))}
	for i, r := range rows {
		tx, err := r.Transaction(i, dir)
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("ToLedger: %s row %d: %w", dir, i, err)
		}
		ledger.Transactions = append(ledger.Transactions, tx)
	}
	return ledger, nil
}

// Transaction converts the row. NULL amounts become zero.
func (r *LedgerRow) Transaction(index int, dir domain.Direction) (domain.Transaction, error) {
	debet, err := numeric(r.Debet)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("debet: %w", err)
	}
	kredit, err := numeric(r.Kredit)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("kredit: %w", err)
	}

	tx := domain.Transaction{
		Index:           index,
		CashierDate:     formatDate(r.CashierDate),
		DocumentID:      r.DocumentID.StringVal,
		DocumentNumber:  r.DocumentNumber.StringVal,
		Counterparty:    r.Counterparty.StringVal,
		Purpose:         r.Purpose.StringVal,
		VesselVoyage:    r.VesselVoyage.StringVal,
		PaymentPlace:    r.PaymentPlace.StringVal,
		Creator:         r.Creator.StringVal,
		SourceDocument:  r.SourceDocument.StringVal,
		DocumentType:    r.DocumentType.StringVal,
		CodeName:        r.CodeName.StringVal,
		AccountingCode:  r.AccountingCode.StringVal,
		RecognitionUser: r.RecognitionUser.StringVal,
		Unit:            r.Unit.StringVal,
		Division:        r.Division.StringVal,
		Flag:            r.Flag.StringVal,
		TargetFirst:     r.TargetFirst.StringVal,
		TargetType:      r.TargetType.StringVal,
		TargetSecond:    r.TargetSecond.StringVal,
		Debet:           debet,
		Kredit:          kredit,
		Source:          dir,
	}
	if r.DeliveryDate.Valid {
		tx.DeliveryDate = formatDate(r.DeliveryDate.Date)
	}
	return tx, nil
}

func numeric(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(r.FloatString(numericScale))
}

func formatDate(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}
	return d.In(time.UTC).Format(dateLayout)
}
