package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Type      string          `json:"type"`
	Number    string          `json:"number"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Type:      string(a.Type),
		Number:    a.Number,
		Currency:  a.Currency,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID             string          `json:"id"`
	FromAccountID  string          `json:"from_account_id"`
	RecipientRef   string          `json:"recipient_ref"`
	ToAccountID    string          `json:"to_account_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Memo           string          `json:"memo,omitempty"`
	Status         string          `json:"status"`
	TANChallengeID string          `json:"tan_challenge_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ExecutedAt     *time.Time      `json:"executed_at,omitempty"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	return &TransferResponse{
		ID:             t.ID,
		FromAccountID:  t.FromAccountID,
		RecipientRef:   t.RecipientRef,
		ToAccountID:    t.ToAccountID,
		Amount:         t.Amount,
		Currency:       t.Currency,
		Memo:           t.Memo,
		Status:         string(t.Status),
		TANChallengeID: t.TANChallengeID,
		CreatedAt:      t.CreatedAt,
		ExecutedAt:     t.ExecutedAt,
	}
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.Transfer) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// ChallengeResponse represents a pending TAN challenge. The raw code is
// never part of an API response; it travels over the delivery channel.
type ChallengeResponse struct {
	ID                string    `json:"id"`
	TransferID        string    `json:"transfer_id"`
	ExpiresAt         time.Time `json:"expires_at"`
	AttemptsRemaining int       `json:"attempts_remaining"`
}

// ChallengeFromDomain converts a domain challenge to a response.
func ChallengeFromDomain(c *domain.TANChallenge) *ChallengeResponse {
	return &ChallengeResponse{
		ID:                c.ID,
		TransferID:        c.TransferID,
		ExpiresAt:         c.ExpiresAt,
		AttemptsRemaining: c.AttemptsRemaining,
	}
}

// InitiateTransferResponse is the two-phase initiation result.
type InitiateTransferResponse struct {
	Transfer  *TransferResponse  `json:"transfer"`
	Challenge *ChallengeResponse `json:"challenge"`
	// DebugCode is only populated when debug TAN delivery is enabled.
	DebugCode string `json:"debug_code,omitempty"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Direction       string          `json:"direction"`
	Amount          decimal.Decimal `json:"amount"`
	CounterpartyRef string          `json:"counterparty_ref"`
	TransferID      string          `json:"transfer_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:              e.ID,
		AccountID:       e.AccountID,
		Direction:       string(e.Direction),
		Amount:          e.Amount,
		CounterpartyRef: e.CounterpartyRef,
		TransferID:      e.TransferID,
		CreatedAt:       e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// StandingOrderResponse represents a standing order in API responses.
type StandingOrderResponse struct {
	ID                     string          `json:"id"`
	FromAccountID          string          `json:"from_account_id"`
	RecipientRef           string          `json:"recipient_ref"`
	Amount                 decimal.Decimal `json:"amount"`
	Currency               string          `json:"currency"`
	Memo                   string          `json:"memo,omitempty"`
	Frequency              string          `json:"frequency"`
	NextRunAt              time.Time       `json:"next_run_at"`
	EndAt                  *time.Time      `json:"end_at,omitempty"`
	Status                 string          `json:"status"`
	LastExecutedTransferID *string         `json:"last_executed_transfer_id,omitempty"`
	ConsecutiveFailures    int             `json:"consecutive_failures"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// StandingOrderFromDomain converts a domain standing order to a response.
func StandingOrderFromDomain(o *domain.StandingOrder) *StandingOrderResponse {
	return &StandingOrderResponse{
		ID:                     o.ID,
		FromAccountID:          o.FromAccountID,
		RecipientRef:           o.RecipientRef,
		Amount:                 o.Amount,
		Currency:               o.Currency,
		Memo:                   o.Memo,
		Frequency:              string(o.Frequency),
		NextRunAt:              o.NextRunAt,
		EndAt:                  o.EndAt,
		Status:                 string(o.Status),
		LastExecutedTransferID: o.LastExecutedTransferID,
		ConsecutiveFailures:    o.ConsecutiveFailures,
		CreatedAt:              o.CreatedAt,
		UpdatedAt:              o.UpdatedAt,
	}
}

// StandingOrdersFromDomain converts domain standing orders to responses.
func StandingOrdersFromDomain(orders []*domain.StandingOrder) []*StandingOrderResponse {
	result := make([]*StandingOrderResponse, len(orders))
	for i, o := range orders {
		result[i] = StandingOrderFromDomain(o)
	}
	return result
}

// ConsistencyResponse reports a double-entry balance check.
type ConsistencyResponse struct {
	Consistent bool            `json:"consistent"`
	EntrySum   decimal.Decimal `json:"entry_sum"`
}

// ConsistencyFromResult converts a use case consistency result.
func ConsistencyFromResult(r *usecase.ConsistencyResult) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent: r.Consistent,
		EntrySum:   r.EntrySum,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
