package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
)

var ErrHistoryNotFound = errors.New("visit history entry not found")

func (r *Repository) AppendHistory(ctx context.Context, entry *model.VisitHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.VisitDate.IsZero() {
		entry.VisitDate = time.Now()
	}

	query := `
		INSERT INTO visit_history (id, user_id, balance_id, visit_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.BalanceID,
		entry.VisitDate,
		entry.Notes,
	).Scan(&entry.CreatedAt)
}

// MostRecentHistoryForBalance supports refund compensation: the refunded
// consumption is the newest entry tied to the balance.
func (r *Repository) MostRecentHistoryForBalance(ctx context.Context, balanceID uuid.UUID) (*model.VisitHistory, error) {
	var entry model.VisitHistory
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM visit_history
		WHERE balance_id = $1
		ORDER BY visit_date DESC, created_at DESC
		LIMIT 1`,
		balanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) DeleteHistory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM visit_history WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrHistoryNotFound
	}
	return nil
}

func (r *Repository) CountHistoryForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM visit_history WHERE user_id = $1", userID)
	return count, err
}

func (r *Repository) CountHistoryForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM visit_history WHERE user_id = $1 AND visit_date >= $2",
		userID, since)
	return count, err
}

func (r *Repository) ListRecentHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.VisitHistory, error) {
	if limit <= 0 {
		limit = 10
	}
	entries := []model.VisitHistory{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM visit_history
		WHERE user_id = $1
		ORDER BY visit_date DESC
		LIMIT $2`,
		userID, limit)
	return entries, err
}
