package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Type           string          `json:"type"`
	Number         string          `json:"number"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(ownerID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerID:        ownerID,
		Type:           domain.AccountType(r.Type),
		Number:         r.Number,
		Currency:       r.Currency,
		OpeningBalance: r.OpeningBalance,
	}
}

// InitiateTransferRequest represents a request to initiate a transfer.
type InitiateTransferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	RecipientRef  string          `json:"recipient_ref"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Memo          string          `json:"memo,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *InitiateTransferRequest) ToUseCaseInput(senderID string) usecase.InitiateTransferInput {
	return usecase.InitiateTransferInput{
		SenderID:      senderID,
		FromAccountID: r.FromAccountID,
		RecipientRef:  r.RecipientRef,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Memo:          r.Memo,
	}
}

// ExecuteTransferRequest carries the TAN code authorizing a pending
// transfer. The challenge is bound to the transfer, so only the code is
// needed.
type ExecuteTransferRequest struct {
	Code string `json:"code"`
}

// ToUseCaseInput converts to use case input.
func (r *ExecuteTransferRequest) ToUseCaseInput(transferID, userID string) usecase.ExecuteTransferInput {
	return usecase.ExecuteTransferInput{
		TransferID: transferID,
		UserID:     userID,
		TANCode:    r.Code,
	}
}

// P2PTransferRequest represents a single-phase peer-to-peer transfer.
type P2PTransferRequest struct {
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Message     string          `json:"message,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *P2PTransferRequest) ToUseCaseInput(senderID string) usecase.P2PTransferInput {
	return usecase.P2PTransferInput{
		SenderID:    senderID,
		RecipientID: r.RecipientID,
		Amount:      r.Amount,
		Message:     r.Message,
	}
}

// CreateStandingOrderRequest represents a request to create a standing order.
type CreateStandingOrderRequest struct {
	FromAccountID string          `json:"from_account_id"`
	RecipientRef  string          `json:"recipient_ref"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Memo          string          `json:"memo,omitempty"`
	Frequency     string          `json:"frequency"`
	StartAt       time.Time       `json:"start_at"`
	EndAt         *time.Time      `json:"end_at,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateStandingOrderRequest) ToUseCaseInput(ownerID string) usecase.CreateStandingOrderInput {
	return usecase.CreateStandingOrderInput{
		OwnerID:       ownerID,
		FromAccountID: r.FromAccountID,
		RecipientRef:  r.RecipientRef,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Memo:          r.Memo,
		Frequency:     domain.Frequency(r.Frequency),
		StartAt:       r.StartAt,
		EndAt:         r.EndAt,
	}
}
