package pipeline

import (
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/gcsstore"
	infra "github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/infra/bigquery"
)

// StorageService is the object storage used to fetch ledgers and upload reports.
type StorageService = gcsstore.Store

// LedgerRepository is the warehouse used to load ledgers and record runs.
type LedgerRepository = infra.LedgerRepository
