package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// CheckConsistency sums all entry amounts. Double-entry bookkeeping
// guarantees zero; anything else means corruption.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM entries`

	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, query).Scan(&sum)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return sum, nil
}
