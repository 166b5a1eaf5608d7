package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
	"github.com/IvanTrutnev/Fitness-app/internal/repository"
)

// Store interfaces are declared where they are consumed so tests can run the
// services against in-memory fakes. *repository.Repository satisfies all of
// them.

type BalanceStore interface {
	CreateBalance(ctx context.Context, balance *model.Balance) error
	GetBalance(ctx context.Context, id uuid.UUID) (*model.Balance, error)
	GetActiveBalance(ctx context.Context, userID uuid.UUID) (*model.Balance, error)
	ListBalances(ctx context.Context, userID uuid.UUID) ([]model.Balance, error)
	ConsumeVisit(ctx context.Context, userID uuid.UUID) (*model.Balance, error)
	AddVisits(ctx context.Context, balanceID uuid.UUID, delta int) (*model.Balance, error)
	UpdateBalance(ctx context.Context, balance *model.Balance) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	CountBalances(ctx context.Context, userID uuid.UUID) (int, error)
}

type VisitHistoryStore interface {
	AppendHistory(ctx context.Context, entry *model.VisitHistory) error
	MostRecentHistoryForBalance(ctx context.Context, balanceID uuid.UUID) (*model.VisitHistory, error)
	DeleteHistory(ctx context.Context, id uuid.UUID) error
	CountHistoryForUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountHistoryForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	ListRecentHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.VisitHistory, error)
}

type VisitStore interface {
	CreateVisit(ctx context.Context, visit *model.Visit) error
	GetVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	ListVisits(ctx context.Context, filter repository.VisitFilter) ([]model.Visit, error)
	CountVisits(ctx context.Context, filter repository.VisitFilter) (int, error)
	SumVisitRevenue(ctx context.Context, filter repository.VisitFilter) (decimal.Decimal, error)
	CountBalanceVisits(ctx context.Context, filter repository.VisitFilter) (int, error)
	UpdateVisit(ctx context.Context, id uuid.UUID, trainerID *uuid.UUID, date *time.Time, price *decimal.Decimal, notes *string) (*model.Visit, error)
	DeleteVisit(ctx context.Context, id uuid.UUID) error
}

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}
