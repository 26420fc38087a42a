package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const maxErrorLen = 2000

// InsertRunWithClient appends a run record to the runs table.
func InsertRunWithClient(ctx context.Context, client *bigquery.Client, table TableRef, row *RunRow) error {
	if row.ErrorMessage.Valid && len(row.ErrorMessage.StringVal) > maxErrorLen {
		row.ErrorMessage.StringVal = row.ErrorMessage.StringVal[:maxErrorLen]
	}

	inserter := client.DatasetInProject(table.Project, table.Dataset).Table(table.Runs).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertRun: inserting row: %w", err)
	}
	return nil
}
