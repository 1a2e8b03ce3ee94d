package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
)

const transferColumns = `id, sender_id, from_account_id, recipient_ref, to_account_id, amount, currency, memo, status, tan_challenge_id, created_at, executed_at`

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

// Create inserts a new transfer.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transfers (id, sender_id, from_account_id, recipient_ref, to_account_id, amount, currency, memo, status, tan_challenge_id, created_at, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)
	`

	_, err := pgxTx.Exec(ctx, query,
		transfer.ID,
		transfer.SenderID,
		transfer.FromAccountID,
		transfer.RecipientRef,
		transfer.ToAccountID,
		transfer.Amount,
		transfer.Currency,
		transfer.Memo,
		transfer.Status,
		transfer.TANChallengeID,
		transfer.CreatedAt,
		transfer.ExecutedAt,
	)

	return err
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	return scanTransfer(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a transfer by ID with a FOR UPDATE lock.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transfer, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1 FOR UPDATE`

	return scanTransfer(pgxTx.QueryRow(ctx, query, id))
}

// UpdateStatus updates a transfer's status and execution time.
func (r *TransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransferStatus, executedAt *time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE transfers SET status = $2, executed_at = $3 WHERE id = $1`

	_, err := pgxTx.Exec(ctx, query, id, status, executedAt)

	return err
}

// UpdateChallenge links a transfer to its TAN challenge.
func (r *TransferRepository) UpdateChallenge(ctx context.Context, tx usecase.Transaction, id, challengeID string) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE transfers SET tan_challenge_id = $2 WHERE id = $1`

	_, err := pgxTx.Exec(ctx, query, id, challengeID)

	return err
}

// ListBySender retrieves transfers sent by a user, newest first.
func (r *TransferRepository) ListBySender(ctx context.Context, senderID string, limit, offset int) ([]*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE sender_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, senderID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*domain.Transfer
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}

	return transfers, rows.Err()
}

func scanTransfer(row rowScanner) (*domain.Transfer, error) {
	var (
		transfer    domain.Transfer
		challengeID *string
	)
	err := row.Scan(
		&transfer.ID,
		&transfer.SenderID,
		&transfer.FromAccountID,
		&transfer.RecipientRef,
		&transfer.ToAccountID,
		&transfer.Amount,
		&transfer.Currency,
		&transfer.Memo,
		&transfer.Status,
		&challengeID,
		&transfer.CreatedAt,
		&transfer.ExecutedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransferNotFound
	}

	if err != nil {
		return nil, err
	}

	if challengeID != nil {
		transfer.TANChallengeID = *challengeID
	}

	return &transfer, nil
}
