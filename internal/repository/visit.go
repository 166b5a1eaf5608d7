package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
)

var ErrVisitNotFound = errors.New("visit not found")

// VisitFilter narrows visit listings and aggregates. Zero values are ignored.
type VisitFilter struct {
	UserID    *uuid.UUID
	TrainerID *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Skip      int
}

func (f VisitFilter) where() (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.TrainerID != nil {
		add("trainer_id = $%d", *f.TrainerID)
	}
	if f.DateFrom != nil {
		add("date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("date <= $%d", *f.DateTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) CreateVisit(ctx context.Context, visit *model.Visit) error {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	if visit.Date.IsZero() {
		visit.Date = time.Now()
	}

	query := `
		INSERT INTO visits (id, user_id, trainer_id, date, price, notes, was_balance_used, balance_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		visit.ID,
		visit.UserID,
		visit.TrainerID,
		visit.Date,
		visit.Price,
		visit.Notes,
		visit.WasBalanceUsed,
		visit.BalanceID,
	).Scan(&visit.CreatedAt)
}

func (r *Repository) GetVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, "SELECT * FROM visits WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return &visit, nil
}

func (r *Repository) ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error) {
	where, args := filter.where()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	query := "SELECT * FROM visits" + where +
		" ORDER BY date DESC LIMIT " + strconv.Itoa(limit) +
		" OFFSET " + strconv.Itoa(skip)

	visits := []model.Visit{}
	err := r.db.SelectContext(ctx, &visits, query, args...)
	return visits, err
}

func (r *Repository) CountVisits(ctx context.Context, filter VisitFilter) (int, error) {
	where, args := filter.where()
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM visits"+where, args...)
	return count, err
}

// SumVisitRevenue totals the standalone prices of one-off paid visits.
// Balance-consuming visits carry no price and contribute nothing.
func (r *Repository) SumVisitRevenue(ctx context.Context, filter VisitFilter) (decimal.Decimal, error) {
	where, args := filter.where()
	if where == "" {
		where = " WHERE price > 0"
	} else {
		where += " AND price > 0"
	}

	var revenue decimal.Decimal
	err := r.db.GetContext(ctx, &revenue,
		"SELECT COALESCE(SUM(price), 0) FROM visits"+where, args...)
	return revenue, err
}

func (r *Repository) CountBalanceVisits(ctx context.Context, filter VisitFilter) (int, error) {
	where, args := filter.where()
	if where == "" {
		where = " WHERE was_balance_used = TRUE"
	} else {
		where += " AND was_balance_used = TRUE"
	}

	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM visits"+where, args...)
	return count, err
}

// UpdateVisit applies the mutable subset of visit fields. Nil inputs leave the
// stored value untouched.
func (r *Repository) UpdateVisit(ctx context.Context, id uuid.UUID, trainerID *uuid.UUID, date *time.Time, price *decimal.Decimal, notes *string) (*model.Visit, error) {
	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, `
		UPDATE visits SET
			trainer_id = COALESCE($2, trainer_id),
			date = COALESCE($3, date),
			price = COALESCE($4, price),
			notes = COALESCE($5, notes)
		WHERE id = $1
		RETURNING *`,
		id, trainerID, date, price, notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return &visit, nil
}

func (r *Repository) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM visits WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrVisitNotFound
	}
	return nil
}
