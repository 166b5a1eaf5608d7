package model

import (
	"time"

	"github.com/google/uuid"
)

// VisitHistory is an append-only audit record of one consumed visit credit.
// It is best-effort: balance correctness never depends on it.
type VisitHistory struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	BalanceID uuid.UUID `json:"balance_id" db:"balance_id"`
	VisitDate time.Time `json:"visit_date" db:"visit_date"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
