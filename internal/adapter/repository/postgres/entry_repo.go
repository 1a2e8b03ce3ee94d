package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
)

const entryColumns = `id, account_id, direction, amount, counterparty_ref, transfer_id, created_at`

// EntryRepository implements usecase.EntryRepository. Entries are
// append-only; there is no update or delete.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts a new ledger entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO entries (id, account_id, direction, amount, counterparty_ref, transfer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.Direction,
		entry.Amount,
		entry.CounterpartyRef,
		entry.TransferID,
		entry.CreatedAt,
	)

	return err
}

// GetByTransfer retrieves both entries of a transfer.
func (r *EntryRepository) GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE transfer_id = $1 ORDER BY amount`

	return r.queryEntries(ctx, query, transferID)
}

// ListByAccount retrieves entries for an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryEntries(ctx, query, accountID, limit, offset)
}

func (r *EntryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var entry domain.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Direction,
			&entry.Amount,
			&entry.CounterpartyRef,
			&entry.TransferID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
