package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Transfer errors
	ErrSameAccount       = errors.New("cannot transfer to same account")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrCurrencyMismatch  = errors.New("cannot transfer between different currencies")
	ErrTransferNotFound  = errors.New("transfer not found")
	ErrInvalidTransition = errors.New("illegal transfer status transition")

	// TAN errors
	ErrChallengeNotFound = errors.New("tan challenge not found")
	ErrTANWrongCode      = errors.New("tan code does not match")
	ErrTANExpired        = errors.New("tan challenge has expired")
	ErrTANExhausted      = errors.New("tan attempts exhausted")
	ErrTANConsumed       = errors.New("tan challenge already consumed")

	// Standing order errors
	ErrOrderNotFound    = errors.New("standing order not found")
	ErrOrderNotActive   = errors.New("standing order is not active")
	ErrInvalidFrequency = errors.New("invalid standing order frequency")

	// Store errors
	ErrConflictExceeded = errors.New("transaction retry budget exhausted")
)
