package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, entryRepo EntryRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerID        string
	Type           domain.AccountType
	Number         string
	Currency       string
	OpeningBalance decimal.Decimal
}

// CreateAccount creates a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	err := domain.ValidateCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	if input.OpeningBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		OwnerID:   input.OwnerID,
		Type:      input.Type,
		Number:    input.Number,
		Currency:  input.Currency,
		Balance:   input.OpeningBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = uc.accountRepo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account, scoped to its owner.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id, ownerID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.OwnerID != ownerID {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// ListAccounts lists a user's accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	return uc.accountRepo.ListByOwner(ctx, ownerID)
}

// ListEntriesInput represents input for listing account entries.
type ListEntriesInput struct {
	AccountID string
	OwnerID   string
	Limit     int
	Offset    int
}

// ListEntries lists ledger entries for an account the caller owns.
func (uc *AccountUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.Entry, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if account.OwnerID != input.OwnerID {
		return nil, domain.ErrAccountNotFound
	}

	return uc.entryRepo.ListByAccount(ctx, input.AccountID, clampLimit(input.Limit), input.Offset)
}
