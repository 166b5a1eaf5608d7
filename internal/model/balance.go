package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is a prepaid bundle of visit credits with an expiry date.
type Balance struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	UserID       uuid.UUID        `json:"user_id" db:"user_id"`
	Visits       int              `json:"visits" db:"visits"`
	DueDate      time.Time        `json:"due_date" db:"due_date"`
	IsActive     bool             `json:"is_active" db:"is_active"`
	PurchaseDate time.Time        `json:"purchase_date" db:"purchase_date"`
	Price        *decimal.Decimal `json:"price,omitempty" db:"price"` // cumulative across top-up merges
	Notes        *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Eligible reports whether the balance can be consumed at the given instant.
// The stored is_active flag is a fast-filter hint; eligibility is always
// recomputed from visits and due_date.
func (b *Balance) Eligible(now time.Time) bool {
	return b.IsActive && b.Visits > 0 && b.DueDate.After(now)
}

// ConsumeResult is the structured outcome of a consumption attempt.
// "No eligible balance" is an expected business outcome, not an error.
type ConsumeResult struct {
	Success         bool       `json:"success"`
	Message         string     `json:"message"`
	RemainingVisits *int       `json:"remainingVisits,omitempty"`
	BalanceID       *uuid.UUID `json:"balanceId,omitempty"`
}

// ActiveBalanceInfo is the trimmed view returned by GET /api/balance/active
// and embedded in user stats.
type ActiveBalanceInfo struct {
	ID           uuid.UUID `json:"id"`
	Visits       int       `json:"visits"`
	DueDate      time.Time `json:"dueDate"`
	IsExpired    bool      `json:"isExpired"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

// UserStats aggregates a member's balance and attendance figures.
type UserStats struct {
	ActiveBalance   *ActiveBalanceInfo `json:"activeBalance"`
	TotalBalances   int                `json:"totalBalances"`
	TotalVisitsUsed int                `json:"totalVisitsUsed"`
	ThisMonthVisits int                `json:"thisMonthVisits"`
	RecentVisits    []VisitHistory     `json:"recentVisits"`
}
