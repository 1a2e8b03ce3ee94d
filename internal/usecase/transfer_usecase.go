package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/infrastructure/metrics"
)

// TransferUseCase drives the two-phase transfer protocol: initiate creates
// a transfer awaiting TAN confirmation, execute verifies the TAN and moves
// the money in one atomic unit.
type TransferUseCase struct {
	txManager    TransactionManager
	retrier      Retrier
	accountRepo  AccountRepository
	transferRepo TransferRepository
	entryRepo    EntryRepository
	tanManager   *TANManager
	ledger       *ledgerMutator
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	entryRepo EntryRepository,
	tanManager *TANManager,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		retrier:      retrier,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		entryRepo:    entryRepo,
		tanManager:   tanManager,
		ledger:       newLedgerMutator(accountRepo, entryRepo, idGen),
		idGen:        idGen,
		metrics:      metrics,
	}
}

// InitiateTransferInput represents input for initiating a transfer.
type InitiateTransferInput struct {
	SenderID      string
	FromAccountID string
	RecipientRef  string
	Amount        decimal.Decimal
	Currency      string
	Memo          string
}

// InitiateTransferResult carries the pending transfer and its challenge.
// Code is the raw TAN; it exists only in memory for delivery to the user.
type InitiateTransferResult struct {
	Transfer  *domain.Transfer
	Challenge *domain.TANChallenge
	Code      string
}

// Initiate validates a transfer request, performs an advisory funds check
// and persists the transfer together with a fresh TAN challenge. No
// balances change; the authoritative funds check happens at execute time.
func (uc *TransferUseCase) Initiate(ctx context.Context, input InitiateTransferInput) (*InitiateTransferResult, error) {
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

	fromAccount, err := uc.accountRepo.GetByID(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}

	if fromAccount.OwnerID != input.SenderID {
		return nil, domain.ErrUnauthorized
	}

	if fromAccount.Currency != input.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	toAccount, err := resolveRecipient(ctx, uc.accountRepo, input.RecipientRef)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	transfer := &domain.Transfer{
		ID:            uc.idGen.Generate(),
		SenderID:      input.SenderID,
		FromAccountID: fromAccount.ID,
		RecipientRef:  input.RecipientRef,
		ToAccountID:   toAccount.ID,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Memo:          input.Memo,
		Status:        domain.TransferStatusInitiated,
		CreatedAt:     now,
	}

	err = transfer.Validate()
	if err != nil {
		return nil, err
	}

	// Advisory only: the balance may change before execute, where the
	// check repeats against the locked row.
	err = fromAccount.ValidateDebit(input.Amount)
	if err != nil {
		return nil, err
	}

	err = transfer.TransitionTo(domain.TransferStatusTANPending)
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

	err = uc.transferRepo.Create(txCtx, tx, transfer)
	if err != nil {
		return nil, err
	}

	challenge, code, err := uc.tanManager.Create(txCtx, tx, transfer, now)
	if err != nil {
		return nil, err
	}

	transfer.TANChallengeID = challenge.ID

	err = uc.transferRepo.UpdateChallenge(txCtx, tx, transfer.ID, challenge.ID)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(txCtx)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersInitiated.Inc()
	}

	return &InitiateTransferResult{
		Transfer:  transfer,
		Challenge: challenge,
		Code:      code,
	}, nil
}

// ExecuteTransferInput represents input for executing a pending transfer.
type ExecuteTransferInput struct {
	TransferID string
	UserID     string
	TANCode    string
}

// Execute verifies the TAN and settles the transfer. TAN consumption, both
// ledger entries, both balance updates and the status transition commit in
// a single transaction; a failed funds check rolls all of it back, leaving
// the challenge available for another attempt.
func (uc *TransferUseCase) Execute(ctx context.Context, input ExecuteTransferInput) (*domain.Transfer, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, input.TransferID)
	if err != nil {
		return nil, err
	}

	if transfer.SenderID != input.UserID {
		return nil, domain.ErrUnauthorized
	}

	if transfer.Status.IsTerminal() {
		return nil, domain.ErrTransferNotFound
	}

	var result *domain.Transfer

	err = uc.retrier.Retry(ctx, func() error {
		executed, execErr := uc.executeOnce(ctx, input)
		if execErr != nil {
			return execErr
		}

		result = executed

		return nil
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.TANVerifications.WithLabelValues(tanResultLabel(err)).Inc()
			uc.metrics.TransferErrors.WithLabelValues(transferErrorLabel(err)).Inc()
		}

		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TANVerifications.WithLabelValues("ok").Inc()
		uc.metrics.TransfersExecuted.Inc()
		uc.metrics.TransferAmount.Observe(result.Amount.InexactFloat64())
	}

	return result, nil
}

func (uc *TransferUseCase) executeOnce(ctx context.Context, input ExecuteTransferInput) (*domain.Transfer, error) {
	now := time.Now().UTC()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	transfer, err := uc.transferRepo.GetByIDForUpdate(txCtx, tx, input.TransferID)
	if err != nil {
		return nil, err
	}

	// A concurrent execute or the expiry sweep may have settled the
	// transfer while we waited for the lock.
	if transfer.Status != domain.TransferStatusTANPending {
		return nil, domain.ErrTransferNotFound
	}

	challenge, verifyErr := uc.tanManager.Verify(txCtx, tx, transfer.TANChallengeID, input.UserID, input.TANCode, transfer, now)
	if verifyErr != nil {
		return nil, uc.settleFailedVerification(txCtx, tx, transfer, challenge, verifyErr)
	}

	accounts, err := uc.ledger.lockAccounts(txCtx, tx, transfer.FromAccountID, transfer.ToAccountID)
	if err != nil {
		return nil, err
	}

	err = uc.ledger.move(txCtx, tx, accounts[transfer.FromAccountID], accounts[transfer.ToAccountID], transfer.Amount, transfer.ID, now)
	if err != nil {
		// Rolling back leaves the challenge unconsumed and the transfer
		// pending, so the user can retry once the account is funded.
		return nil, err
	}

	err = transfer.TransitionTo(domain.TransferStatusExecuted)
	if err != nil {
		return nil, err
	}

	transfer.ExecutedAt = &now

	err = uc.transferRepo.UpdateStatus(txCtx, tx, transfer.ID, transfer.Status, transfer.ExecutedAt)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(txCtx)
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

// settleFailedVerification commits the side effects of a failed TAN check:
// a wrong code burns an attempt, the attempt that exhausts the budget fails
// the transfer, an expired challenge expires it. The original verification
// error is returned after the commit.
func (uc *TransferUseCase) settleFailedVerification(ctx context.Context, tx Transaction, transfer *domain.Transfer, challenge *domain.TANChallenge, verifyErr error) error {
	var next domain.TransferStatus

	switch {
	case errors.Is(verifyErr, domain.ErrTANExpired):
		next = domain.TransferStatusExpired
	case errors.Is(verifyErr, domain.ErrTANWrongCode) && challenge != nil && challenge.AttemptsRemaining <= 0:
		next = domain.TransferStatusFailed
	case errors.Is(verifyErr, domain.ErrTANExhausted):
		next = domain.TransferStatusFailed
	default:
		// Attempt bookkeeping from Verify still has to commit.
		err := tx.Commit(ctx)
		if err != nil {
			return err
		}

		return verifyErr
	}

	err := transfer.TransitionTo(next)
	if err != nil {
		return err
	}

	err = uc.transferRepo.UpdateStatus(ctx, tx, transfer.ID, transfer.Status, nil)
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}

	return verifyErr
}

// GetTransfer retrieves a transfer, scoped to its sender.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id, userID string) (*domain.Transfer, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if transfer.SenderID != userID {
		return nil, domain.ErrTransferNotFound
	}

	return transfer, nil
}

// ListTransfersInput represents input for listing a user's transfers.
type ListTransfersInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListTransfers lists transfers sent by a user.
func (uc *TransferUseCase) ListTransfers(ctx context.Context, input ListTransfersInput) ([]*domain.Transfer, error) {
	return uc.transferRepo.ListBySender(ctx, input.UserID, clampLimit(input.Limit), input.Offset)
}

func tanResultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrTANWrongCode):
		return "wrong_code"
	case errors.Is(err, domain.ErrTANExpired):
		return "expired"
	case errors.Is(err, domain.ErrTANExhausted):
		return "exhausted"
	case errors.Is(err, domain.ErrTANConsumed):
		return "consumed"
	default:
		return "error"
	}
}

func transferErrorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrConflictExceeded):
		return "conflict"
	case errors.Is(err, domain.ErrTransferNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTANWrongCode),
		errors.Is(err, domain.ErrTANExpired),
		errors.Is(err, domain.ErrTANExhausted),
		errors.Is(err, domain.ErrTANConsumed):
		return "tan_rejected"
	default:
		return "other"
	}
}
