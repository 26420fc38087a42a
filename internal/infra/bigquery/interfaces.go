// Package bigquery reads cashier ledgers from and records reconciliation runs
// in BigQuery.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
)

// LedgerRepository provides the warehouse operations of a reconciliation.
type LedgerRepository interface {
	// LoadLedger reads one direction's ledger lines for a YYYY-MM period.
	LoadLedger(ctx context.Context, period string, dir domain.Direction) (domain.Ledger, error)

	// InsertRun records the outcome of a reconciliation run.
	InsertRun(ctx context.Context, row *RunRow) error
}

// TableRef locates the ledger and runs tables.
type TableRef struct {
	Project string
	Dataset string
	Ledgers string
	Runs    string
}

// Qualified returns the backtick-quoted project.dataset.table name.
func (t TableRef) Qualified(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", t.Project, t.Dataset, table)
}

// BigQueryLedgerRepository is the concrete implementation of LedgerRepository.
// It holds a shared BigQuery client to avoid creating a new connection for
// each operation.
type BigQueryLedgerRepository struct {
	client *bigquery.Client
	table  TableRef
}

var _ LedgerRepository = (*BigQueryLedgerRepository)(nil)

// NewBigQueryLedgerRepository creates a repository with a shared BigQuery client.
func NewBigQueryLedgerRepository(ctx context.Context, table TableRef) (*BigQueryLedgerRepository, error) {
	if table.Project == "" || table.Dataset == "" || table.Ledgers == "" {
		return nil, fmt.Errorf("NewBigQueryLedgerRepository: project, dataset and ledger table are required")
	}
	client, err := bigquery.NewClient(ctx, table.Project)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryLedgerRepository: creating client: %w", err)
	}
	return &BigQueryLedgerRepository{client: client, table: table}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryLedgerRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// LoadLedger delegates to LoadLedgerWithClient with the shared client.
func (r *BigQueryLedgerRepository) LoadLedger(ctx context.Context, period string, dir domain.Direction) (domain.Ledger, error) {
	return LoadLedgerWithClient(ctx, r.client, r.table, period, dir)
}

// InsertRun delegates to InsertRunWithClient. Without a runs table it is a no-op.
func (r *BigQueryLedgerRepository) InsertRun(ctx context.Context, row *RunRow) error {
	if r.table.Runs == "" {
		return nil
	}
	return InsertRunWithClient(ctx, r.client, r.table, row)
}
