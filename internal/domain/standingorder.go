package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the recurrence interval of a standing order.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

var validFrequencies = map[Frequency]bool{
	FrequencyDaily:     true,
	FrequencyWeekly:    true,
	FrequencyMonthly:   true,
	FrequencyQuarterly: true,
	FrequencyYearly:    true,
}

// IsValid checks if the frequency is a known recurrence interval.
func (f Frequency) IsValid() bool {
	return validFrequencies[f]
}

// StandingOrderStatus is the lifecycle state of a standing order.
type StandingOrderStatus string

const (
	StandingOrderStatusActive    StandingOrderStatus = "active"
	StandingOrderStatusCancelled StandingOrderStatus = "cancelled"
	StandingOrderStatusCompleted StandingOrderStatus = "completed"
	StandingOrderStatusSuspended StandingOrderStatus = "suspended"
)

// StandingOrder is a persisted recurring transfer. The scheduler is the
// only writer of NextRunAt, LastExecutedTransferID and ConsecutiveFailures;
// the owner may only cancel.
type StandingOrder struct {
	ID                      string
	OwnerID                 string
	FromAccountID           string
	RecipientRef            string
	Amount                  decimal.Decimal
	Currency                string
	Memo                    string
	Frequency               Frequency
	NextRunAt               time.Time
	EndAt                   *time.Time
	Status                  StandingOrderStatus
	LastExecutedTransferID  *string
	ConsecutiveFailures     int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Due reports whether the order should run at now. Advancing NextRunAt
// after a successful run is what makes a second scheduler pass skip it.
func (o *StandingOrder) Due(now time.Time) bool {
	return o.Status == StandingOrderStatusActive && !o.NextRunAt.After(now)
}

// NextAfter returns the run time one frequency step after current. Monthly,
// quarterly and yearly steps clamp to the last day of shorter months
// (Jan 31 advances to Feb 28).
func (o *StandingOrder) NextAfter(current time.Time) time.Time {
	switch o.Frequency {
	case FrequencyDaily:
		return current.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return addMonthsClamped(current, 1)
	case FrequencyQuarterly:
		return addMonthsClamped(current, 3)
	case FrequencyYearly:
		return addMonthsClamped(current, 12)
	}
	return current
}

// addMonthsClamped adds months without the normalization overflow of
// AddDate (which turns Jan 31 + 1 month into Mar 3).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	month = time.Month((m-1)%12 + 1)

	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
