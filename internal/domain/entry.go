package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection tells whether an entry debits or credits its account.
type EntryDirection string

const (
	EntryDirectionDebit  EntryDirection = "debit"
	EntryDirectionCredit EntryDirection = "credit"
)

// Entry is a single immutable ledger record. Amount is signed: negative for
// debits, positive for credits. Every committed transfer produces exactly
// one debit and one credit entry whose amounts sum to zero.
type Entry struct {
	ID              string
	AccountID       string
	Direction       EntryDirection
	Amount          decimal.Decimal
	CounterpartyRef string
	TransferID      string
	CreatedAt       time.Time
}
