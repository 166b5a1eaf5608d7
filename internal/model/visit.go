package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Visit is an attendance record. WasBalanceUsed is true iff BalanceID is set;
// a visit paid one-off carries a standalone Price instead.
type Visit struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	UserID         uuid.UUID        `json:"user_id" db:"user_id"`
	TrainerID      *uuid.UUID       `json:"trainer_id,omitempty" db:"trainer_id"`
	Date           time.Time        `json:"date" db:"date"`
	Price          *decimal.Decimal `json:"price,omitempty" db:"price"`
	Notes          *string          `json:"notes,omitempty" db:"notes"`
	WasBalanceUsed bool             `json:"was_balance_used" db:"was_balance_used"`
	BalanceID      *uuid.UUID       `json:"balance_id,omitempty" db:"balance_id"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// StatsPeriod selects the window for visit statistics.
type StatsPeriod string

const (
	PeriodDay   StatsPeriod = "day"
	PeriodWeek  StatsPeriod = "week"
	PeriodMonth StatsPeriod = "month"
	PeriodYear  StatsPeriod = "year"
)

// Start returns the window start for the period relative to now,
// or the zero time for all-time stats.
func (p StatsPeriod) Start(now time.Time) time.Time {
	switch p {
	case PeriodDay:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PeriodYear:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

// VisitStats is the aggregate over a period window.
type VisitStats struct {
	TotalVisits   int             `json:"totalVisits"`
	Revenue       decimal.Decimal `json:"revenue"`
	BalanceVisits int             `json:"balanceVisits"`
	PaidVisits    int             `json:"paidVisits"`
}
