package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetCheckingByOwner(ctx context.Context, ownerID string) (*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

// TransferRepository defines data access for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transfer, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransferStatus, executedAt *time.Time) error
	UpdateChallenge(ctx context.Context, tx Transaction, id, challengeID string) error
	ListBySender(ctx context.Context, senderID string, limit, offset int) ([]*domain.Transfer, error)
}

// TANChallengeRepository defines data access for TAN challenges.
type TANChallengeRepository interface {
	Create(ctx context.Context, tx Transaction, challenge *domain.TANChallenge) error
	GetByID(ctx context.Context, id string) (*domain.TANChallenge, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.TANChallenge, error)
	UpdateAttempts(ctx context.Context, tx Transaction, id string, attemptsRemaining int) error
	MarkConsumed(ctx context.Context, tx Transaction, id string) error
	ListExpiredUnconsumed(ctx context.Context, now time.Time, limit int) ([]*domain.TANChallenge, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
}

// LedgerRepository defines ledger-wide operations.
type LedgerRepository interface {
	// CheckConsistency returns the sum of all entry amounts, which must be
	// zero for a balanced double-entry ledger.
	CheckConsistency(ctx context.Context) (decimal.Decimal, error)
}

// StandingOrderRepository defines data access for standing orders.
type StandingOrderRepository interface {
	Create(ctx context.Context, order *domain.StandingOrder) error
	GetByID(ctx context.Context, id string) (*domain.StandingOrder, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.StandingOrder, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.StandingOrder, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.StandingOrder, error)
	Update(ctx context.Context, tx Transaction, order *domain.StandingOrder) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store conflicts. An exhausted
// retry budget surfaces domain.ErrConflictExceeded; non-retryable errors
// pass through unchanged.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
