package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
	"github.com/tanbank/tanbank/internal/usecase/mocks"
)

type transferFixture struct {
	accountRepo  *mocks.MockAccountRepository
	transferRepo *mocks.MockTransferRepository
	tanRepo      *mocks.MockTANChallengeRepository
	entryRepo    *mocks.MockEntryRepository
	tanManager   *usecase.TANManager
	uc           *usecase.TransferUseCase
}

func newTransferFixture() *transferFixture {
	accountRepo := mocks.NewMockAccountRepository()
	transferRepo := mocks.NewMockTransferRepository()
	tanRepo := mocks.NewMockTANChallengeRepository()
	entryRepo := mocks.NewMockEntryRepository()
	txManager := &mocks.MockTransactionManager{}
	idGen := &mocks.MockIDGenerator{}

	tanManager := usecase.NewTANManager(txManager, tanRepo, transferRepo, idGen, usecase.TANConfig{
		CodeLength:  6,
		TTL:         5 * time.Minute,
		MaxAttempts: 3,
	}, zerolog.Nop())

	uc := usecase.NewTransferUseCase(
		txManager,
		&mocks.MockRetrier{},
		accountRepo,
		transferRepo,
		entryRepo,
		tanManager,
		idGen,
		nil,
	)

	return &transferFixture{
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		tanRepo:      tanRepo,
		entryRepo:    entryRepo,
		tanManager:   tanManager,
		uc:           uc,
	}
}

func (f *transferFixture) seedAccounts(fromBalance, toBalance string) {
	f.accountRepo.Seed(
		&domain.Account{
			ID:       "acc-1",
			OwnerID:  "user-1",
			Type:     domain.AccountTypeChecking,
			Number:   "DE89370400440532013000",
			Currency: "EUR",
			Balance:  decimal.RequireFromString(fromBalance),
		},
		&domain.Account{
			ID:       "acc-2",
			OwnerID:  "user-2",
			Type:     domain.AccountTypeChecking,
			Number:   "DE75512108001245126199",
			Currency: "EUR",
			Balance:  decimal.RequireFromString(toBalance),
		},
	)
}

// seedPending seeds a TAN-pending transfer over 200.00 EUR with a challenge
// answering to code 123456.
func (f *transferFixture) seedPending(now time.Time) *domain.Transfer {
	amount := decimal.RequireFromString("200.00")

	transfer := &domain.Transfer{
		ID:             "tr-1",
		SenderID:       "user-1",
		FromAccountID:  "acc-1",
		RecipientRef:   "DE75512108001245126199",
		ToAccountID:    "acc-2",
		Amount:         amount,
		Currency:       "EUR",
		Status:         domain.TransferStatusTANPending,
		TANChallengeID: "tan-1",
		CreatedAt:      now,
	}

	challenge := &domain.TANChallenge{
		ID:                "tan-1",
		TransferID:        "tr-1",
		UserID:            "user-1",
		CodeHash:          domain.HashTANCode("123456"),
		DynamicLink:       domain.TANDynamicLink("tr-1", amount, "DE75512108001245126199"),
		ExpiresAt:         now.Add(5 * time.Minute),
		AttemptsRemaining: 3,
		CreatedAt:         now,
	}

	f.transferRepo.Seed(transfer)
	f.tanRepo.Seed(challenge)

	return transfer
}

func TestTransferUseCase_Initiate(t *testing.T) {
	f := newTransferFixture()
	f.seedAccounts("1500.00", "5000.00")

	result, err := f.uc.Initiate(context.Background(), usecase.InitiateTransferInput{
		SenderID:      "user-1",
		FromAccountID: "acc-1",
		RecipientRef:  "DE75512108001245126199",
		Amount:        decimal.RequireFromString("200.00"),
		Currency:      "EUR",
		Memo:          "Miete",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Transfer.Status != domain.TransferStatusTANPending {
		t.Errorf("expected tan_pending, got %s", result.Transfer.Status)
	}

	if result.Transfer.ToAccountID != "acc-2" {
		t.Errorf("expected recipient number to resolve to acc-2, got %s", result.Transfer.ToAccountID)
	}

	if result.Transfer.TANChallengeID != result.Challenge.ID {
		t.Error("transfer is not linked to its challenge")
	}

	if result.Challenge.UserID != "user-1" {
		t.Errorf("challenge must be bound to the initiating session, got %s", result.Challenge.UserID)
	}

	if len(result.Code) != 6 {
		t.Errorf("expected 6-digit code, got %q", result.Code)
	}

	if result.Challenge.CodeHash != domain.HashTANCode(result.Code) {
		t.Error("stored hash does not match issued code")
	}

	// No money moved yet.
	acc, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	if !acc.Balance.Equal(decimal.RequireFromString("1500.00")) {
		t.Errorf("initiate must not move money, balance is %s", acc.Balance)
	}
}

func TestTransferUseCase_InitiateValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.InitiateTransferInput
		wantErr error
	}{
		{
			name: "zero amount",
			input: usecase.InitiateTransferInput{
				SenderID:      "user-1",
				FromAccountID: "acc-1",
				RecipientRef:  "acc-2",
				Amount:        decimal.Zero,
				Currency:      "EUR",
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "unknown currency",
			input: usecase.InitiateTransferInput{
				SenderID:      "user-1",
				FromAccountID: "acc-1",
				RecipientRef:  "acc-2",
				Amount:        decimal.NewFromInt(10),
				Currency:      "XXX",
			},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name: "currency does not match account",
			input: usecase.InitiateTransferInput{
				SenderID:      "user-1",
				FromAccountID: "acc-1",
				RecipientRef:  "acc-2",
				Amount:        decimal.NewFromInt(10),
				Currency:      "USD",
			},
			wantErr: domain.ErrCurrencyMismatch,
		},
		{
			name: "sender does not own source account",
			input: usecase.InitiateTransferInput{
				SenderID:      "user-2",
				FromAccountID: "acc-1",
				RecipientRef:  "acc-2",
				Amount:        decimal.NewFromInt(10),
				Currency:      "EUR",
			},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name: "transfer to same account",
			input: usecase.InitiateTransferInput{
				SenderID:      "user-1",
				FromAccountID: "acc-1",
				RecipientRef:  "acc-1",
				Amount:        decimal.NewFromInt(10),
				Currency:      "EUR",
			},
			wantErr: domain.ErrSameAccount,
		},
		{
			name: "unknown recipient",
			input: usecase.InitiateTransferInput{
				SenderID:      "user-1",
				FromAccountID: "acc-1",
				RecipientRef:  "DE00000000000000000000",
				Amount:        decimal.NewFromInt(10),
				Currency:      "EUR",
			},
			wantErr: domain.ErrRecipientNotFound,
		},
		{
			name: "insufficient funds advisory check",
			input: usecase.InitiateTransferInput{
				SenderID:      "user-1",
				FromAccountID: "acc-1",
				RecipientRef:  "acc-2",
				Amount:        decimal.RequireFromString("1500.01"),
				Currency:      "EUR",
			},
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransferFixture()
			f.seedAccounts("1500.00", "5000.00")

			_, err := f.uc.Initiate(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			// A rejected initiation persists nothing.
			transfers, _ := f.transferRepo.ListBySender(context.Background(), tt.input.SenderID, 10, 0)
			if len(transfers) != 0 {
				t.Errorf("expected no persisted transfers, got %d", len(transfers))
			}
		})
	}
}

func TestTransferUseCase_ExecuteSuccess(t *testing.T) {
	f := newTransferFixture()
	f.seedAccounts("1500.00", "5000.00")
	now := time.Now().UTC()
	f.seedPending(now)

	transfer, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		TransferID: "tr-1",
		UserID:     "user-1",
		TANCode:    "123456",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if transfer.Status != domain.TransferStatusExecuted {
		t.Errorf("expected executed, got %s", transfer.Status)
	}

	if transfer.ExecutedAt == nil {
		t.Error("expected ExecutedAt to be set")
	}

	from, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	to, _ := f.accountRepo.GetByID(context.Background(), "acc-2")

	if !from.Balance.Equal(decimal.RequireFromString("1300.00")) {
		t.Errorf("expected sender balance 1300.00, got %s", from.Balance)
	}

	if !to.Balance.Equal(decimal.RequireFromString("5200.00")) {
		t.Errorf("expected recipient balance 5200.00, got %s", to.Balance)
	}

	challenge, _ := f.tanRepo.GetByID(context.Background(), "tan-1")
	if !challenge.Consumed {
		t.Error("expected challenge to be consumed")
	}

	entries := f.entryRepo.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}

	if !sum.IsZero() {
		t.Errorf("expected entries to sum to zero, got %s", sum)
	}
}

func TestTransferUseCase_ExecuteWrongCode(t *testing.T) {
	f := newTransferFixture()
	f.seedAccounts("1500.00", "5000.00")
	now := time.Now().UTC()
	f.seedPending(now)

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		TransferID: "tr-1",
		UserID:     "user-1",
		TANCode:    "000000",
	})
	if !errors.Is(err, domain.ErrTANWrongCode) {
		t.Fatalf("expected ErrTANWrongCode, got %v", err)
	}

	challenge, _ := f.tanRepo.GetByID(context.Background(), "tan-1")
	if challenge.AttemptsRemaining != 2 {
		t.Errorf("expected 2 attempts remaining, got %d", challenge.AttemptsRemaining)
	}

	if challenge.Consumed {
		t.Error("challenge must survive a single wrong code")
	}

	transfer, _ := f.transferRepo.GetByID(context.Background(), "tr-1")
	if transfer.Status != domain.TransferStatusTANPending {
		t.Errorf("expected transfer to stay tan_pending, got %s", transfer.Status)
	}

	from, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	if !from.Balance.Equal(decimal.RequireFromString("1500.00")) {
		t.Errorf("expected balance unchanged, got %s", from.Balance)
	}
}

func TestTransferUseCase_ExecuteExhaustsAttempts(t *testing.T) {
	f := newTransferFixture()
	f.seedAccounts("1500.00", "5000.00")
	now := time.Now().UTC()
	f.seedPending(now)

	for i := 0; i < 3; i++ {
		_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
			TransferID: "tr-1",
			UserID:     "user-1",
			TANCode:    "000000",
		})
		if !errors.Is(err, domain.ErrTANWrongCode) {
			t.Fatalf("attempt %d: expected ErrTANWrongCode, got %v", i+1, err)
		}
	}

	challenge, _ := f.tanRepo.GetByID(context.Background(), "tan-1")
	if !challenge.Consumed {
		t.Error("expected exhausting attempt to consume the challenge")
	}

	transfer, _ := f.transferRepo.GetByID(context.Background(), "tr-1")
	if transfer.Status != domain.TransferStatusFailed {
		t.Errorf("expected transfer failed after exhaustion, got %s", transfer.Status)
	}

	// The correct code is worthless now; the terminal transfer is gone
	// from the caller's point of view.
	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		TransferID: "tr-1",
		UserID:     "user-1",
		TANCode:    "123456",
	})
	if !errors.Is(err, domain.ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound, got %v", err)
	}
}

func TestTransferUseCase_ExecuteExpiredChallenge(t *testing.T) {
	f := newTransferFixture()
	f.seedAccounts("1500.00", "5000.00")
	now := time.Now().UTC()
	f.seedPending(now)

	challenge, _ := f.tanRepo.GetByID(context.Background(), "tan-1")
	challenge.ExpiresAt = now.Add(-time.Second)

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		TransferID: "tr-1",
		UserID:     "user-1",
		TANCode:    "123456",
	})
	if !errors.Is(err, domain.ErrTANExpired) {
		t.Fatalf("expected ErrTANExpired, got %v", err)
	}

	transfer, _ := f.transferRepo.GetByID(context.Background(), "tr-1")
	if transfer.Status != domain.TransferStatusExpired {
		t.Errorf("expected transfer expired, got %s", transfer.Status)
	}

	from, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	if !from.Balance.Equal(decimal.RequireFromString("1500.00")) {
		t.Errorf("expected balance unchanged, got %s", from.Balance)
	}
}

func TestTransferUseCase_ExecuteSessionMismatch(t *testing.T) {
	f := newTransferFixture()
	f.seedAccounts("1500.00", "5000.00")
	now := time.Now().UTC()
	f.seedPending(now)

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		TransferID: "tr-1",
		UserID:     "user-2",
		TANCode:    "123456",
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	transfer, _ := f.transferRepo.GetByID(context.Background(), "tr-1")
	if transfer.Status != domain.TransferStatusTANPending {
		t.Errorf("expected transfer untouched, got %s", transfer.Status)
	}
}

func TestTransferUseCase_ExecuteInsufficientFunds(t *testing.T) {
	f := newTransferFixture()
	f.seedAccounts("100.00", "5000.00")
	now := time.Now().UTC()
	f.seedPending(now)

	_, err := f.uc.Execute(context.Background(), usecase.ExecuteTransferInput{
		TransferID: "tr-1",
		UserID:     "user-1",
		TANCode:    "123456",
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	from, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	to, _ := f.accountRepo.GetByID(context.Background(), "acc-2")

	if !from.Balance.Equal(decimal.RequireFromString("100.00")) || !to.Balance.Equal(decimal.RequireFromString("5000.00")) {
		t.Errorf("expected balances unchanged, got %s and %s", from.Balance, to.Balance)
	}

	if len(f.entryRepo.All()) != 0 {
		t.Error("expected no ledger entries")
	}
}

func TestTransferUseCase_GetTransferScopedToSender(t *testing.T) {
	f := newTransferFixture()
	now := time.Now().UTC()
	f.seedPending(now)

	if _, err := f.uc.GetTransfer(context.Background(), "tr-1", "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.uc.GetTransfer(context.Background(), "tr-1", "user-2"); !errors.Is(err, domain.ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound for foreign caller, got %v", err)
	}
}
