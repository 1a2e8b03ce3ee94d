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

const tanColumns = `id, transfer_id, user_id, code_hash, dynamic_link, expires_at, attempts_remaining, consumed, created_at`

// TANChallengeRepository implements usecase.TANChallengeRepository.
type TANChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewTANChallengeRepository creates a new TANChallengeRepository.
func NewTANChallengeRepository(pool *pgxpool.Pool) *TANChallengeRepository {
	return &TANChallengeRepository{pool: pool}
}

// Create inserts a new TAN challenge.
func (r *TANChallengeRepository) Create(ctx context.Context, tx usecase.Transaction, challenge *domain.TANChallenge) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO tan_challenges (id, transfer_id, user_id, code_hash, dynamic_link, expires_at, attempts_remaining, consumed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := pgxTx.Exec(ctx, query,
		challenge.ID,
		challenge.TransferID,
		challenge.UserID,
		challenge.CodeHash,
		challenge.DynamicLink,
		challenge.ExpiresAt,
		challenge.AttemptsRemaining,
		challenge.Consumed,
		challenge.CreatedAt,
	)

	return err
}

// GetByID retrieves a challenge by ID.
func (r *TANChallengeRepository) GetByID(ctx context.Context, id string) (*domain.TANChallenge, error) {
	query := `SELECT ` + tanColumns + ` FROM tan_challenges WHERE id = $1`

	return scanChallenge(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a challenge by ID with a FOR UPDATE lock.
// Serializing on the challenge row is what makes concurrent execute
// attempts see each other's consumption.
func (r *TANChallengeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.TANChallenge, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + tanColumns + ` FROM tan_challenges WHERE id = $1 FOR UPDATE`

	return scanChallenge(pgxTx.QueryRow(ctx, query, id))
}

// UpdateAttempts sets the remaining attempt budget.
func (r *TANChallengeRepository) UpdateAttempts(ctx context.Context, tx usecase.Transaction, id string, attemptsRemaining int) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE tan_challenges SET attempts_remaining = $2 WHERE id = $1`

	_, err := pgxTx.Exec(ctx, query, id, attemptsRemaining)

	return err
}

// MarkConsumed consumes the challenge.
func (r *TANChallengeRepository) MarkConsumed(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE tan_challenges SET consumed = TRUE WHERE id = $1`

	_, err := pgxTx.Exec(ctx, query, id)

	return err
}

// ListExpiredUnconsumed retrieves challenges past their expiry that were
// never consumed.
func (r *TANChallengeRepository) ListExpiredUnconsumed(ctx context.Context, now time.Time, limit int) ([]*domain.TANChallenge, error) {
	query := `
		SELECT ` + tanColumns + `
		FROM tan_challenges
		WHERE consumed = FALSE AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []*domain.TANChallenge
	for rows.Next() {
		challenge, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, challenge)
	}

	return challenges, rows.Err()
}

func scanChallenge(row rowScanner) (*domain.TANChallenge, error) {
	var challenge domain.TANChallenge
	err := row.Scan(
		&challenge.ID,
		&challenge.TransferID,
		&challenge.UserID,
		&challenge.CodeHash,
		&challenge.DynamicLink,
		&challenge.ExpiresAt,
		&challenge.AttemptsRemaining,
		&challenge.Consumed,
		&challenge.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrChallengeNotFound
	}

	if err != nil {
		return nil, err
	}

	return &challenge, nil
}
