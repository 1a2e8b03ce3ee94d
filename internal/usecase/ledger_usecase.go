package usecase

import (
	"context"

	"github.com/shopspring/decimal"
)

// LedgerUseCase exposes ledger-wide checks.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{ledgerRepo: ledgerRepo}
}

// ConsistencyResult reports the outcome of a double-entry balance check.
type ConsistencyResult struct {
	Consistent bool
	EntrySum   decimal.Decimal
}

// CheckConsistency sums every entry in the ledger. A balanced double-entry
// ledger sums to exactly zero.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyResult, error) {
	sum, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	return &ConsistencyResult{
		Consistent: sum.IsZero(),
		EntrySum:   sum,
	}, nil
}
