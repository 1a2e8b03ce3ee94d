package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes the account products a user can hold.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// Account represents a balance-holding account owned by a user. Number is
// the IBAN-like external identifier used to address the account from
// outside the institution.
type Account struct {
	ID        string
	OwnerID   string
	Type      AccountType
	Number    string
	Currency  string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if the account can be debited by amount. Overdraft
// is not modeled: a debit that would take the balance negative is rejected.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the new balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the new balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
