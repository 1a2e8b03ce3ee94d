package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
)

// ledgerMutator is the single primitive through which money moves. Every
// path that changes balances (two-phase transfers, P2P, standing order
// runs) funnels through move inside one database transaction, so the
// double-entry invariant has exactly one writer to audit.
type ledgerMutator struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
}

func newLedgerMutator(accountRepo AccountRepository, entryRepo EntryRepository, idGen IDGenerator) *ledgerMutator {
	return &ledgerMutator{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
	}
}

// lockAccounts locks the given accounts in sorted ID order (deadlock
// prevention) and returns them keyed by ID.
func (m *ledgerMutator) lockAccounts(ctx context.Context, tx Transaction, ids ...string) (map[string]*domain.Account, error) {
	seen := make(map[string]bool)

	var unique []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	sort.Strings(unique)

	accounts, err := m.accountRepo.GetByIDsForUpdate(ctx, tx, unique)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(unique) {
		return nil, domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	return accountMap, nil
}

// move debits from and credits to by amount, writing one entry per side.
// Both accounts must already be locked in this transaction. The hard
// balance check happens here, against the locked row.
func (m *ledgerMutator) move(ctx context.Context, tx Transaction, from, to *domain.Account, amount decimal.Decimal, transferID string, now time.Time) error {
	if from.Currency != to.Currency {
		return domain.ErrCurrencyMismatch
	}

	err := from.ValidateDebit(amount)
	if err != nil {
		return err
	}

	fromNewBalance := from.ApplyDebit(amount)
	fromEntry := &domain.Entry{
		ID:              m.idGen.Generate(),
		AccountID:       from.ID,
		Direction:       domain.EntryDirectionDebit,
		Amount:          amount.Neg(),
		CounterpartyRef: to.Number,
		TransferID:      transferID,
		CreatedAt:       now,
	}

	err = m.entryRepo.Create(ctx, tx, fromEntry)
	if err != nil {
		return err
	}

	err = m.accountRepo.UpdateBalance(ctx, tx, from.ID, fromNewBalance, now)
	if err != nil {
		return err
	}

	from.Balance = fromNewBalance
	from.Version++

	toNewBalance := to.ApplyCredit(amount)
	toEntry := &domain.Entry{
		ID:              m.idGen.Generate(),
		AccountID:       to.ID,
		Direction:       domain.EntryDirectionCredit,
		Amount:          amount,
		CounterpartyRef: from.Number,
		TransferID:      transferID,
		CreatedAt:       now,
	}

	err = m.entryRepo.Create(ctx, tx, toEntry)
	if err != nil {
		return err
	}

	err = m.accountRepo.UpdateBalance(ctx, tx, to.ID, toNewBalance, now)
	if err != nil {
		return err
	}

	to.Balance = toNewBalance
	to.Version++

	return nil
}

// resolveRecipient resolves a recipient reference to an account: first as
// an internal account ID, then as an external account number.
func resolveRecipient(ctx context.Context, accountRepo AccountRepository, ref string) (*domain.Account, error) {
	account, err := accountRepo.GetByID(ctx, ref)
	if err == nil {
		return account, nil
	}

	if err != domain.ErrAccountNotFound {
		return nil, err
	}

	account, err = accountRepo.GetByNumber(ctx, ref)
	if err == domain.ErrAccountNotFound {
		return nil, domain.ErrRecipientNotFound
	}

	if err != nil {
		return nil, err
	}

	return account, nil
}
