package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the state of a transfer in its lifecycle. Transitions
// are forward-only; once a transfer reaches a terminal status it can never
// change again.
type TransferStatus string

const (
	TransferStatusInitiated  TransferStatus = "initiated"
	TransferStatusTANPending TransferStatus = "tan_pending"
	TransferStatusExecuted   TransferStatus = "executed"
	TransferStatusExpired    TransferStatus = "expired"
	TransferStatusFailed     TransferStatus = "failed"
)

// transitions enumerates every legal status transition.
var transitions = map[TransferStatus][]TransferStatus{
	TransferStatusInitiated:  {TransferStatusTANPending, TransferStatusFailed},
	TransferStatusTANPending: {TransferStatusExecuted, TransferStatusExpired, TransferStatusFailed},
	TransferStatusExecuted:   {},
	TransferStatusExpired:    {},
	TransferStatusFailed:     {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s TransferStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Transfer represents a money movement between two accounts. RecipientRef
// is what the caller addressed the transfer to (an internal account ID or
// an external account number); ToAccountID is the account it resolved to.
type Transfer struct {
	ID             string
	SenderID       string
	FromAccountID  string
	RecipientRef   string
	ToAccountID    string
	Amount         decimal.Decimal
	Currency       string
	Memo           string
	Status         TransferStatus
	TANChallengeID string
	CreatedAt      time.Time
	ExecutedAt     *time.Time
}

// Validate validates a transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// TransitionTo moves the transfer to next, rejecting illegal transitions.
func (t *Transfer) TransitionTo(next TransferStatus) error {
	if !t.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	t.Status = next

	return nil
}
