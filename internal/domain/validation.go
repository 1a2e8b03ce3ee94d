package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrMemoTooLong     = errors.New("memo exceeds maximum length")
)

// Validation constants
const (
	MaxTransferAmount = "1000000000" // 1 billion, minor units aside
	MaxMemoLength     = 140
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "CHF": true,
	"SEK": true, "NOK": true, "DKK": true, "PLN": true,
	"CZK": true, "JPY": true, "CAD": true, "AUD": true,
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a supported ISO 4217 code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a transfer amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidateMemo validates a payment reference line.
func ValidateMemo(memo string) error {
	if len(memo) > MaxMemoLength {
		return fmt.Errorf("%w: limit is %d characters", ErrMemoTooLong, MaxMemoLength)
	}

	return nil
}
