package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCurrency(t *testing.T) {
	if err := ValidateCurrency("EUR"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateCurrency(" eur "); err != nil {
		t.Errorf("expected case and whitespace to be normalized: %v", err)
	}

	if err := ValidateCurrency("XXX"); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(decimal.RequireFromString("0.01")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	if err := ValidateAmount(decimal.RequireFromString("1000000001")); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestValidateMemo(t *testing.T) {
	if err := ValidateMemo("Miete März"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateMemo(strings.Repeat("x", MaxMemoLength+1)); !errors.Is(err, ErrMemoTooLong) {
		t.Errorf("expected ErrMemoTooLong, got %v", err)
	}
}
