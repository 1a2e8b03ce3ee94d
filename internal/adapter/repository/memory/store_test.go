package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanbank/tanbank/internal/adapter/repository/memory"
	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
	"github.com/tanbank/tanbank/internal/usecase/mocks"
)

type env struct {
	store       *memory.Store
	accountRepo *memory.AccountRepository
	tanRepo     *memory.TANChallengeRepository
	entryRepo   *memory.EntryRepository
	orderRepo   *memory.StandingOrderRepository
	ledgerRepo  *memory.LedgerRepository
	transfers   *usecase.TransferUseCase
	p2p         *usecase.P2PUseCase
	orders      *usecase.StandingOrderUseCase
	ledger      *usecase.LedgerUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.NewStore()
	accountRepo := memory.NewAccountRepository(store)
	transferRepo := memory.NewTransferRepository(store)
	tanRepo := memory.NewTANChallengeRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	orderRepo := memory.NewStandingOrderRepository(store)
	ledgerRepo := memory.NewLedgerRepository(store)
	idGen := &mocks.MockIDGenerator{}
	retrier := memory.Retrier{}

	tanManager := usecase.NewTANManager(store, tanRepo, transferRepo, idGen, usecase.TANConfig{
		CodeLength:  6,
		TTL:         5 * time.Minute,
		MaxAttempts: 3,
	}, zerolog.Nop())

	return &env{
		store:       store,
		accountRepo: accountRepo,
		tanRepo:     tanRepo,
		entryRepo:   entryRepo,
		orderRepo:   orderRepo,
		ledgerRepo:  ledgerRepo,
		transfers:   usecase.NewTransferUseCase(store, retrier, accountRepo, transferRepo, entryRepo, tanManager, idGen, nil),
		p2p:         usecase.NewP2PUseCase(store, retrier, accountRepo, transferRepo, entryRepo, idGen, nil),
		orders:      usecase.NewStandingOrderUseCase(store, retrier, accountRepo, transferRepo, entryRepo, orderRepo, idGen, usecase.SchedulerPolicy{}, nil),
		ledger:      usecase.NewLedgerUseCase(ledgerRepo),
	}
}

func (e *env) seedAccounts(t *testing.T, fromBalance, toBalance string) {
	t.Helper()

	require.NoError(t, e.accountRepo.Create(context.Background(), &domain.Account{
		ID:       "acc-1",
		OwnerID:  "user-1",
		Type:     domain.AccountTypeChecking,
		Number:   "DE89370400440532013000",
		Currency: "EUR",
		Balance:  decimal.RequireFromString(fromBalance),
	}))
	require.NoError(t, e.accountRepo.Create(context.Background(), &domain.Account{
		ID:       "acc-2",
		OwnerID:  "user-2",
		Type:     domain.AccountTypeChecking,
		Number:   "DE75512108001245126199",
		Currency: "EUR",
		Balance:  decimal.RequireFromString(toBalance),
	}))
}

func TestTwoPhaseTransferEndToEnd(t *testing.T) {
	e := newEnv(t)
	e.seedAccounts(t, "1500.00", "5000.00")
	ctx := context.Background()

	initiated, err := e.transfers.Initiate(ctx, usecase.InitiateTransferInput{
		SenderID:      "user-1",
		FromAccountID: "acc-1",
		RecipientRef:  "DE75512108001245126199",
		Amount:        decimal.RequireFromString("200.00"),
		Currency:      "EUR",
		Memo:          "Miete",
	})
	require.NoError(t, err)

	executed, err := e.transfers.Execute(ctx, usecase.ExecuteTransferInput{
		TransferID: initiated.Transfer.ID,
		UserID:     "user-1",
		TANCode:    initiated.Code,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusExecuted, executed.Status)

	from, err := e.accountRepo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, from.Balance.Equal(decimal.RequireFromString("1300.00")), "got %s", from.Balance)

	to, err := e.accountRepo.GetByID(ctx, "acc-2")
	require.NoError(t, err)
	assert.True(t, to.Balance.Equal(decimal.RequireFromString("5200.00")), "got %s", to.Balance)

	result, err := e.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, result.Consistent)

	// Replaying the same code hits the consumed challenge.
	_, err = e.transfers.Execute(ctx, usecase.ExecuteTransferInput{
		TransferID: initiated.Transfer.ID,
		UserID:     "user-1",
		TANCode:    initiated.Code,
	})
	assert.ErrorIs(t, err, domain.ErrTransferNotFound)
}

func TestInsufficientFundsRollsBackConsumption(t *testing.T) {
	e := newEnv(t)
	e.seedAccounts(t, "100.00", "5000.00")
	ctx := context.Background()

	// Advisory check passes at 100, then the balance drains before
	// execute.
	initiated, err := e.transfers.Initiate(ctx, usecase.InitiateTransferInput{
		SenderID:      "user-1",
		FromAccountID: "acc-1",
		RecipientRef:  "DE75512108001245126199",
		Amount:        decimal.RequireFromString("80.00"),
		Currency:      "EUR",
	})
	require.NoError(t, err)

	_, err = e.p2p.Transfer(ctx, usecase.P2PTransferInput{
		SenderID:    "user-1",
		RecipientID: "user-2",
		Amount:      decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	_, err = e.transfers.Execute(ctx, usecase.ExecuteTransferInput{
		TransferID: initiated.Transfer.ID,
		UserID:     "user-1",
		TANCode:    initiated.Code,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// The whole unit rolled back: challenge unconsumed, transfer still
	// pending, balances untouched by the failed attempt.
	challenge, err := e.tanRepo.GetByID(ctx, initiated.Challenge.ID)
	require.NoError(t, err)
	assert.False(t, challenge.Consumed)
	assert.Equal(t, 3, challenge.AttemptsRemaining)

	transfer, err := e.transfers.GetTransfer(ctx, initiated.Transfer.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusTANPending, transfer.Status)

	from, err := e.accountRepo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, from.Balance.Equal(decimal.RequireFromString("50.00")), "got %s", from.Balance)

	// Funding the account lets the same challenge succeed.
	_, err = e.p2p.Transfer(ctx, usecase.P2PTransferInput{
		SenderID:    "user-2",
		RecipientID: "user-1",
		Amount:      decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)

	executed, err := e.transfers.Execute(ctx, usecase.ExecuteTransferInput{
		TransferID: initiated.Transfer.ID,
		UserID:     "user-1",
		TANCode:    initiated.Code,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusExecuted, executed.Status)
}

func TestConcurrentExecuteSingleWinner(t *testing.T) {
	e := newEnv(t)
	e.seedAccounts(t, "1500.00", "5000.00")
	ctx := context.Background()

	initiated, err := e.transfers.Initiate(ctx, usecase.InitiateTransferInput{
		SenderID:      "user-1",
		FromAccountID: "acc-1",
		RecipientRef:  "DE75512108001245126199",
		Amount:        decimal.RequireFromString("200.00"),
		Currency:      "EUR",
	})
	require.NoError(t, err)

	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.transfers.Execute(ctx, usecase.ExecuteTransferInput{
				TransferID: initiated.Transfer.ID,
				UserID:     "user-1",
				TANCode:    initiated.Code,
			})
		}(i)
	}

	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, domain.ErrTransferNotFound) {
			t.Errorf("unexpected loser error: %v", err)
		}
	}

	require.Equal(t, 1, successes, "exactly one execute may win")

	// Money moved exactly once.
	from, err := e.accountRepo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, from.Balance.Equal(decimal.RequireFromString("1300.00")), "got %s", from.Balance)

	result, err := e.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
}

func TestVersionAdvancesOncePerMutation(t *testing.T) {
	e := newEnv(t)
	e.seedAccounts(t, "1500.00", "5000.00")
	ctx := context.Background()

	initiated, err := e.transfers.Initiate(ctx, usecase.InitiateTransferInput{
		SenderID:      "user-1",
		FromAccountID: "acc-1",
		RecipientRef:  "DE75512108001245126199",
		Amount:        decimal.RequireFromString("200.00"),
		Currency:      "EUR",
	})
	require.NoError(t, err)

	_, err = e.transfers.Execute(ctx, usecase.ExecuteTransferInput{
		TransferID: initiated.Transfer.ID,
		UserID:     "user-1",
		TANCode:    initiated.Code,
	})
	require.NoError(t, err)

	from, err := e.accountRepo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), from.Version)

	to, err := e.accountRepo.GetByID(ctx, "acc-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), to.Version)

	_, err = e.p2p.Transfer(ctx, usecase.P2PTransferInput{
		SenderID:    "user-1",
		RecipientID: "user-2",
		Amount:      decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	from, err = e.accountRepo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), from.Version)
}

func TestStandingOrderRunThroughStore(t *testing.T) {
	e := newEnv(t)
	e.seedAccounts(t, "1000.00", "0.00")
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	order, err := e.orders.Create(ctx, usecase.CreateStandingOrderInput{
		OwnerID:       "user-1",
		FromAccountID: "acc-1",
		RecipientRef:  "DE75512108001245126199",
		Amount:        decimal.RequireFromString("850.00"),
		Currency:      "EUR",
		Memo:          "Miete",
		Frequency:     domain.FrequencyMonthly,
		StartAt:       now,
	})
	require.NoError(t, err)

	due, err := e.orders.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)

	transfer, err := e.orders.RunDue(ctx, order.ID, now)
	require.NoError(t, err)
	require.NotNil(t, transfer)

	// Second pass finds nothing due.
	due, err = e.orders.ListDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	result, err := e.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
}
