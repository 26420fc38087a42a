package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// LedgerRow is one cashier ledger line as stored in the warehouse ledger table.
type LedgerRow struct {
	Direction string             `bigquery:"arah"`    // REQUIRED, cabang_sby | sby_cabang
	LineNo    bigquery.NullInt64 `bigquery:"line_no"` // NULLABLE, position in the source export

	CashierDate     civil.Date          `bigquery:"tanggal_kasir"` // REQUIRED
	DocumentID      bigquery.NullString `bigquery:"id_dokumen"`
	DocumentNumber  bigquery.NullString `bigquery:"nomor_dokumen"`
	Counterparty    bigquery.NullString `bigquery:"dibayarkan"`
	Purpose         bigquery.NullString `bigquery:"keperluan"`
	VesselVoyage    bigquery.NullString `bigquery:"vessel_voyage"`
	PaymentPlace    bigquery.NullString `bigquery:"tempat_pembayaran"`
	Creator         bigquery.NullString `bigquery:"pembuat"`
	SourceDocument  bigquery.NullString `bigquery:"sumber_dokumen"`
	DocumentType    bigquery.NullString `bigquery:"jenis_dokumen"`
	DeliveryDate    bigquery.NullDate   `bigquery:"tanggal_delivery"`
	CodeName        bigquery.NullString `bigquery:"nama_kode"`
	AccountingCode  bigquery.NullString `bigquery:"kode_accounting"`
	RecognitionUser bigquery.NullString `bigquery:"user_pengakuan"`
	Unit            bigquery.NullString `bigquery:"unit"`
	Division        bigquery.NullString `bigquery:"divisi"`
	Flag            bigquery.NullString `bigquery:"flag_kbm_kdrt"`
	TargetFirst     bigquery.NullString `bigquery:"target_first"`
	TargetType      bigquery.NullString `bigquery:"target_jenis"`
	TargetSecond    bigquery.NullString `bigquery:"target_second"`

	Debet  *big.Rat `bigquery:"debet"`  // NULLABLE NUMERIC
	Kredit *big.Rat `bigquery:"kredit"` // NULLABLE NUMERIC
}

// RunRow records one reconciliation run in the runs table.
type RunRow struct {
	RunID  string `bigquery:"run_id"` // REQUIRED
	Period string `bigquery:"period"` // NULLABLE, YYYY-MM when loaded from the warehouse
	Source string `bigquery:"source"` // REQUIRED, file | gcs | bigquery

	StartedTS  time.Time `bigquery:"started_ts"`
	FinishedTS time.Time `bigquery:"finished_ts"`
	Status     string    `bigquery:"status"` // SUCCESS | FAILED

	ReportURI    bigquery.NullString `bigquery:"report_uri"`
	ErrorMessage bigquery.NullString `bigquery:"error_message"`

	OffsetRows  int64    `bigquery:"offset_rows"`
	PendingRows int64    `bigquery:"pending_rows"`
	Warnings    []string `bigquery:"warnings"` // REPEATED STRING
}
