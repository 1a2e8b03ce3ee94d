package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds every database transaction.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultPageSize is used when a list request does not set a limit.
	DefaultPageSize = 20

	// MaxPageSize caps list request page sizes.
	MaxPageSize = 100

	// SweepBatchSize caps how many expired challenges one sweep pass handles.
	SweepBatchSize = 100

	// DueBatchSize caps how many due standing orders one scheduler pass handles.
	DueBatchSize = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}
