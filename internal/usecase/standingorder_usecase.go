package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/infrastructure/metrics"
)

// SchedulerPolicy configures standing order failure handling.
// MaxConsecutiveFailures of zero means orders are never suspended.
type SchedulerPolicy struct {
	MaxConsecutiveFailures int
}

// StandingOrderUseCase manages recurring transfers and runs the ones that
// are due. Runs are pre-authorized: creating the order is the consent, so
// no TAN challenge is issued per run.
type StandingOrderUseCase struct {
	txManager    TransactionManager
	retrier      Retrier
	accountRepo  AccountRepository
	transferRepo TransferRepository
	orderRepo    StandingOrderRepository
	ledger       *ledgerMutator
	idGen        IDGenerator
	policy       SchedulerPolicy
	metrics      *metrics.Metrics
}

// NewStandingOrderUseCase creates a new StandingOrderUseCase.
func NewStandingOrderUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	entryRepo EntryRepository,
	orderRepo StandingOrderRepository,
	idGen IDGenerator,
	policy SchedulerPolicy,
	metrics *metrics.Metrics,
) *StandingOrderUseCase {
	return &StandingOrderUseCase{
		txManager:    txManager,
		retrier:      retrier,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		orderRepo:    orderRepo,
		ledger:       newLedgerMutator(accountRepo, entryRepo, idGen),
		idGen:        idGen,
		policy:       policy,
		metrics:      metrics,
	}
}

// CreateStandingOrderInput represents input for creating a standing order.
type CreateStandingOrderInput struct {
	OwnerID       string
	FromAccountID string
	RecipientRef  string
	Amount        decimal.Decimal
	Currency      string
	Memo          string
	Frequency     domain.Frequency
	StartAt       time.Time
	EndAt         *time.Time
}

// Create validates and persists a standing order. The first run happens at
// StartAt; the recipient reference must resolve at creation time.
func (uc *StandingOrderUseCase) Create(ctx context.Context, input CreateStandingOrderInput) (*domain.StandingOrder, error) {
	err := domain.ValidateAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	err = domain.ValidateCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	err = domain.ValidateMemo(input.Memo)
	if err != nil {
		return nil, err
	}

	if !input.Frequency.IsValid() {
		return nil, domain.ErrInvalidFrequency
	}

	fromAccount, err := uc.accountRepo.GetByID(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}

	if fromAccount.OwnerID != input.OwnerID {
		return nil, domain.ErrUnauthorized
	}

	if fromAccount.Currency != input.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	toAccount, err := resolveRecipient(ctx, uc.accountRepo, input.RecipientRef)
	if err != nil {
		return nil, err
	}

	if toAccount.ID == fromAccount.ID {
		return nil, domain.ErrSameAccount
	}

	now := time.Now().UTC()

	order := &domain.StandingOrder{
		ID:            uc.idGen.Generate(),
		OwnerID:       input.OwnerID,
		FromAccountID: fromAccount.ID,
		RecipientRef:  input.RecipientRef,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Memo:          input.Memo,
		Frequency:     input.Frequency,
		NextRunAt:     input.StartAt,
		EndAt:         input.EndAt,
		Status:        domain.StandingOrderStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = uc.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// List lists a user's standing orders.
func (uc *StandingOrderUseCase) List(ctx context.Context, ownerID string) ([]*domain.StandingOrder, error) {
	return uc.orderRepo.ListByOwner(ctx, ownerID)
}

// Get retrieves a standing order, scoped to its owner.
func (uc *StandingOrderUseCase) Get(ctx context.Context, id, ownerID string) (*domain.StandingOrder, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.OwnerID != ownerID {
		return nil, domain.ErrOrderNotFound
	}

	return order, nil
}

// Cancel cancels an active standing order.
func (uc *StandingOrderUseCase) Cancel(ctx context.Context, id, ownerID string) (*domain.StandingOrder, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	order, err := uc.orderRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	if order.OwnerID != ownerID {
		return nil, domain.ErrOrderNotFound
	}

	if order.Status != domain.StandingOrderStatusActive {
		return nil, domain.ErrOrderNotActive
	}

	order.Status = domain.StandingOrderStatusCancelled
	order.UpdatedAt = time.Now().UTC()

	err = uc.orderRepo.Update(txCtx, tx, order)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(txCtx)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// ListDue lists orders due for execution at now.
func (uc *StandingOrderUseCase) ListDue(ctx context.Context, now time.Time) ([]*domain.StandingOrder, error) {
	return uc.orderRepo.ListDue(ctx, now, DueBatchSize)
}

// RunDue executes one due standing order. The due check repeats against the
// locked row, so a second scheduler pass over the same order becomes a
// no-op; a no-op run returns a nil transfer. A failed run leaves NextRunAt
// unchanged and counts against the consecutive failure budget.
func (uc *StandingOrderUseCase) RunDue(ctx context.Context, orderID string, now time.Time) (*domain.Transfer, error) {
	var result *domain.Transfer

	err := uc.retrier.Retry(ctx, func() error {
		transfer, runErr := uc.runOnce(ctx, orderID, now)
		if runErr != nil {
			return runErr
		}

		result = transfer

		return nil
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.StandingOrderFailures.Inc()
		}

		recordErr := uc.recordFailure(ctx, orderID, now)
		if recordErr != nil {
			return nil, recordErr
		}

		return nil, err
	}

	if result != nil && uc.metrics != nil {
		uc.metrics.StandingOrdersExecuted.Inc()
	}

	return result, nil
}

func (uc *StandingOrderUseCase) runOnce(ctx context.Context, orderID string, now time.Time) (*domain.Transfer, error) {
	current, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !current.Due(now) {
		return nil, nil
	}

	toAccount, err := resolveRecipient(ctx, uc.accountRepo, current.RecipientRef)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	order, err := uc.orderRepo.GetByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return nil, err
	}

	// Re-check against the locked row; another pass may have run this
	// order between the lookup and the lock.
	if !order.Due(now) {
		return nil, nil
	}

	accounts, err := uc.ledger.lockAccounts(txCtx, tx, order.FromAccountID, toAccount.ID)
	if err != nil {
		return nil, err
	}

	from := accounts[order.FromAccountID]
	to := accounts[toAccount.ID]

	transfer := &domain.Transfer{
		ID:            uc.idGen.Generate(),
		SenderID:      order.OwnerID,
		FromAccountID: from.ID,
		RecipientRef:  order.RecipientRef,
		ToAccountID:   to.ID,
		Amount:        order.Amount,
		Currency:      order.Currency,
		Memo:          order.Memo,
		Status:        domain.TransferStatusExecuted,
		CreatedAt:     now,
		ExecutedAt:    &now,
	}

	err = transfer.Validate()
	if err != nil {
		return nil, err
	}

	err = uc.transferRepo.Create(txCtx, tx, transfer)
	if err != nil {
		return nil, err
	}

	err = uc.ledger.move(txCtx, tx, from, to, order.Amount, transfer.ID, now)
	if err != nil {
		return nil, err
	}

	order.NextRunAt = order.NextAfter(order.NextRunAt)
	order.LastExecutedTransferID = &transfer.ID
	order.ConsecutiveFailures = 0
	order.UpdatedAt = now

	if order.EndAt != nil && order.NextRunAt.After(*order.EndAt) {
		order.Status = domain.StandingOrderStatusCompleted
	}

	err = uc.orderRepo.Update(txCtx, tx, order)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(txCtx)
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

// recordFailure bumps the order's consecutive failure count in its own
// transaction, since the run's transaction rolled back. NextRunAt stays put
// so the next pass retries the same due date.
func (uc *StandingOrderUseCase) recordFailure(ctx context.Context, orderID string, now time.Time) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(txCtx)

	order, err := uc.orderRepo.GetByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return err
	}

	order.ConsecutiveFailures++
	order.UpdatedAt = now

	if uc.policy.MaxConsecutiveFailures > 0 && order.ConsecutiveFailures >= uc.policy.MaxConsecutiveFailures {
		order.Status = domain.StandingOrderStatusSuspended
	}

	err = uc.orderRepo.Update(txCtx, tx, order)
	if err != nil {
		return err
	}

	return tx.Commit(txCtx)
}
