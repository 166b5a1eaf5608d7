package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
)

var (
	ErrBalanceNotFound = errors.New("balance not found")

	// ErrNoEligibleBalance means no balance matched the eligibility filter
	// (is_active, visits > 0, due_date in the future) at the instant of the
	// operation. Callers treat it as an expected outcome, not a failure.
	ErrNoEligibleBalance = errors.New("no eligible balance")
)

func (r *Repository) CreateBalance(ctx context.Context, balance *model.Balance) error {
	if balance.ID == uuid.Nil {
		balance.ID = uuid.New()
	}

	query := `
		INSERT INTO balances (id, user_id, visits, due_date, is_active, purchase_date, price, notes)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), $7, $8)
		RETURNING purchase_date, created_at, updated_at`

	var purchaseDate interface{}
	if !balance.PurchaseDate.IsZero() {
		purchaseDate = balance.PurchaseDate
	}

	return r.db.QueryRowContext(ctx, query,
		balance.ID,
		balance.UserID,
		balance.Visits,
		balance.DueDate,
		balance.IsActive,
		purchaseDate,
		balance.Price,
		balance.Notes,
	).Scan(&balance.PurchaseDate, &balance.CreatedAt, &balance.UpdatedAt)
}

func (r *Repository) GetBalance(ctx context.Context, id uuid.UUID) (*model.Balance, error) {
	var balance model.Balance
	err := r.db.GetContext(ctx, &balance, "SELECT * FROM balances WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

// GetActiveBalance returns the user's eligible balance with the soonest due
// date, so bundles are consumed earliest-expiring-first.
func (r *Repository) GetActiveBalance(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	var balance model.Balance
	err := r.db.GetContext(ctx, &balance, `
		SELECT * FROM balances
		WHERE user_id = $1 AND is_active = TRUE AND visits > 0 AND due_date > NOW()
		ORDER BY due_date ASC
		LIMIT 1`,
		userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoEligibleBalance
		}
		return nil, err
	}
	return &balance, nil
}

func (r *Repository) ListBalances(ctx context.Context, userID uuid.UUID) ([]model.Balance, error) {
	balances := []model.Balance{}
	err := r.db.SelectContext(ctx, &balances, `
		SELECT * FROM balances
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID)
	return balances, err
}

// ConsumeVisit finds the user's eligible balance and decrements its visit
// count in one transaction. The row lock plus the predicate re-check after
// lock acquisition is what keeps two concurrent consumptions of a one-visit
// balance from both succeeding; no in-process coordination exists above this.
func (r *Repository) ConsumeVisit(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var balance model.Balance
	err = tx.GetContext(ctx, &balance, `
		SELECT * FROM balances
		WHERE user_id = $1 AND is_active = TRUE AND visits > 0 AND due_date > NOW()
		ORDER BY due_date ASC
		LIMIT 1
		FOR UPDATE`,
		userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoEligibleBalance
		}
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}

	err = tx.GetContext(ctx, &balance, `
		UPDATE balances
		SET visits = visits - 1,
		    is_active = (visits - 1 > 0),
		    updated_at = NOW()
		WHERE id = $1 AND visits > 0
		RETURNING *`,
		balance.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoEligibleBalance
		}
		return nil, fmt.Errorf("failed to decrement balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &balance, nil
}

// AddVisits atomically adds delta visits to a specific balance and reactivates
// it when the resulting count is positive. Used for refunds and admin top-ups.
func (r *Repository) AddVisits(ctx context.Context, balanceID uuid.UUID, delta int) (*model.Balance, error) {
	var balance model.Balance
	err := r.db.GetContext(ctx, &balance, `
		UPDATE balances
		SET visits = visits + $2,
		    is_active = (visits + $2 > 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING *`,
		balanceID, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBalanceNotFound
		}
		return nil, fmt.Errorf("failed to add visits: %w", err)
	}
	return &balance, nil
}

// UpdateBalance writes back a top-up merge (visits, due date, price, notes).
func (r *Repository) UpdateBalance(ctx context.Context, balance *model.Balance) error {
	query := `
		UPDATE balances SET
			visits = $2,
			due_date = $3,
			is_active = $4,
			price = $5,
			notes = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		balance.ID,
		balance.Visits,
		balance.DueDate,
		balance.IsActive,
		balance.Price,
		balance.Notes,
	).Scan(&balance.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBalanceNotFound
	}
	return err
}

// DeactivateExpired flips is_active off on every active balance whose due
// date has passed. Idempotent; safe to run concurrently with consumption
// since consumption only ever touches still-eligible rows.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE balances
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active = TRUE AND due_date < $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired balances: %w", err)
	}
	return res.RowsAffected()
}

func (r *Repository) CountBalances(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM balances WHERE user_id = $1", userID)
	return count, err
}
