package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/infrastructure/metrics"
)

// P2PUseCase handles single-phase transfers between users' checking
// accounts. No TAN challenge is involved; the authenticated session is the
// authorization.
type P2PUseCase struct {
	txManager    TransactionManager
	retrier      Retrier
	accountRepo  AccountRepository
	transferRepo TransferRepository
	ledger       *ledgerMutator
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewP2PUseCase creates a new P2PUseCase.
func NewP2PUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *P2PUseCase {
	return &P2PUseCase{
		txManager:    txManager,
		retrier:      retrier,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		ledger:       newLedgerMutator(accountRepo, entryRepo, idGen),
		idGen:        idGen,
		metrics:      metrics,
	}
}

// P2PTransferInput represents input for a peer-to-peer transfer.
type P2PTransferInput struct {
	SenderID    string
	RecipientID string
	Amount      decimal.Decimal
	Message     string
}

// Transfer moves money from the sender's checking account to the
// recipient's checking account in one atomic unit.
func (uc *P2PUseCase) Transfer(ctx context.Context, input P2PTransferInput) (*domain.Transfer, error) {
	err := domain.ValidateAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	err = domain.ValidateMemo(input.Message)
	if err != nil {
		return nil, err
	}

	if input.SenderID == input.RecipientID {
		return nil, domain.ErrSameAccount
	}

	fromAccount, err := uc.accountRepo.GetCheckingByOwner(ctx, input.SenderID)
	if err != nil {
		return nil, err
	}

	toAccount, err := uc.accountRepo.GetCheckingByOwner(ctx, input.RecipientID)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			return nil, domain.ErrRecipientNotFound
		}

		return nil, err
	}

	var result *domain.Transfer

	err = uc.retrier.Retry(ctx, func() error {
		transfer, txErr := uc.transferOnce(ctx, input, fromAccount.ID, toAccount.ID)
		if txErr != nil {
			return txErr
		}

		result = transfer

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.P2PTransfers.Inc()
	}

	return result, nil
}

func (uc *P2PUseCase) transferOnce(ctx context.Context, input P2PTransferInput, fromID, toID string) (*domain.Transfer, error) {
	now := time.Now().UTC()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	accounts, err := uc.ledger.lockAccounts(txCtx, tx, fromID, toID)
	if err != nil {
		return nil, err
	}

	from := accounts[fromID]
	to := accounts[toID]

	transfer := &domain.Transfer{
		ID:            uc.idGen.Generate(),
		SenderID:      input.SenderID,
		FromAccountID: from.ID,
		RecipientRef:  input.RecipientID,
		ToAccountID:   to.ID,
		Amount:        input.Amount,
		Currency:      from.Currency,
		Memo:          input.Message,
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

	err = uc.ledger.move(txCtx, tx, from, to, input.Amount, transfer.ID, now)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(txCtx)
	if err != nil {
		return nil, err
	}

	return transfer, nil
}
