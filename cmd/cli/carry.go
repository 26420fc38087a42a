package main

import (
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/ledgercsv"
	"github.com/shopspring/decimal"
)

// parseCarryOver accepts the same notation as ledger amounts, e.g. "1,250,000".
func parseCarryOver(raw string) (decimal.Decimal, error) {
	return ledgercsv.ParseAmount(raw)
}
