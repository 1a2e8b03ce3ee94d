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

const standingOrderColumns = `id, owner_id, from_account_id, recipient_ref, amount, currency, memo, frequency, next_run_at, end_at, status, last_executed_transfer_id, consecutive_failures, created_at, updated_at`

// StandingOrderRepository implements usecase.StandingOrderRepository.
type StandingOrderRepository struct {
	pool *pgxpool.Pool
}

// NewStandingOrderRepository creates a new StandingOrderRepository.
func NewStandingOrderRepository(pool *pgxpool.Pool) *StandingOrderRepository {
	return &StandingOrderRepository{pool: pool}
}

// Create inserts a new standing order.
func (r *StandingOrderRepository) Create(ctx context.Context, order *domain.StandingOrder) error {
	query := `
		INSERT INTO standing_orders (id, owner_id, from_account_id, recipient_ref, amount, currency, memo, frequency, next_run_at, end_at, status, last_executed_transfer_id, consecutive_failures, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.OwnerID,
		order.FromAccountID,
		order.RecipientRef,
		order.Amount,
		order.Currency,
		order.Memo,
		order.Frequency,
		order.NextRunAt,
		order.EndAt,
		order.Status,
		order.LastExecutedTransferID,
		order.ConsecutiveFailures,
		order.CreatedAt,
		order.UpdatedAt,
	)

	return err
}

// GetByID retrieves a standing order by ID.
func (r *StandingOrderRepository) GetByID(ctx context.Context, id string) (*domain.StandingOrder, error) {
	query := `SELECT ` + standingOrderColumns + ` FROM standing_orders WHERE id = $1`

	return scanStandingOrder(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a standing order with a FOR UPDATE lock. The
// scheduler re-checks dueness against this locked row.
func (r *StandingOrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.StandingOrder, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + standingOrderColumns + ` FROM standing_orders WHERE id = $1 FOR UPDATE`

	return scanStandingOrder(pgxTx.QueryRow(ctx, query, id))
}

// ListByOwner retrieves all standing orders of an owner.
func (r *StandingOrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.StandingOrder, error) {
	query := `SELECT ` + standingOrderColumns + ` FROM standing_orders WHERE owner_id = $1 ORDER BY created_at`

	return r.queryOrders(ctx, query, ownerID)
}

// ListDue retrieves active orders whose next run time has passed.
func (r *StandingOrderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.StandingOrder, error) {
	query := `
		SELECT ` + standingOrderColumns + `
		FROM standing_orders
		WHERE status = $1 AND next_run_at <= $2
		ORDER BY next_run_at
		LIMIT $3
	`

	return r.queryOrders(ctx, query, domain.StandingOrderStatusActive, now, limit)
}

// Update persists the mutable fields of a standing order.
func (r *StandingOrderRepository) Update(ctx context.Context, tx usecase.Transaction, order *domain.StandingOrder) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE standing_orders
		SET next_run_at = $2, status = $3, last_executed_transfer_id = $4, consecutive_failures = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := pgxTx.Exec(ctx, query,
		order.ID,
		order.NextRunAt,
		order.Status,
		order.LastExecutedTransferID,
		order.ConsecutiveFailures,
		order.UpdatedAt,
	)

	return err
}

func (r *StandingOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.StandingOrder, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.StandingOrder
	for rows.Next() {
		order, err := scanStandingOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func scanStandingOrder(row rowScanner) (*domain.StandingOrder, error) {
	var order domain.StandingOrder
	err := row.Scan(
		&order.ID,
		&order.OwnerID,
		&order.FromAccountID,
		&order.RecipientRef,
		&order.Amount,
		&order.Currency,
		&order.Memo,
		&order.Frequency,
		&order.NextRunAt,
		&order.EndAt,
		&order.Status,
		&order.LastExecutedTransferID,
		&order.ConsecutiveFailures,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}

	if err != nil {
		return nil, err
	}

	return &order, nil
}
