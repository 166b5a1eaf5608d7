package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
	"github.com/IvanTrutnev/Fitness-app/internal/repository"
)

// InsufficientBalanceError reports a balance-consuming visit that found no
// eligible balance. It is a business outcome (HTTP 400), not a storage error.
type InsufficientBalanceError struct {
	Message string
}

func (e *InsufficientBalanceError) Error() string {
	return e.Message
}

// BalanceAccounting is the slice of BalanceService the orchestrator needs.
type BalanceAccounting interface {
	ConsumeVisit(ctx context.Context, userID uuid.UUID, notes *string) (*model.ConsumeResult, error)
	RefundVisit(ctx context.Context, balanceID uuid.UUID) (*model.Balance, error)
}

type VisitService struct {
	visits   VisitStore
	users    UserStore
	balances BalanceAccounting
	log      *logrus.Logger
}

func NewVisitService(visits VisitStore, users UserStore, balances BalanceAccounting, log *logrus.Logger) *VisitService {
	return &VisitService{
		visits:   visits,
		users:    users,
		balances: balances,
		log:      log,
	}
}

type CreateVisitInput struct {
	UserID     uuid.UUID
	TrainerID  *uuid.UUID
	Date       *time.Time
	Price      *decimal.Decimal
	Notes      *string
	UseBalance bool
}

// compensation is one committed forward step's reversal. Steps are recorded
// as data and unwound in strict reverse order so a failure at step N only
// undoes steps 1..N-1.
type compensation struct {
	name string
	run  func(ctx context.Context) error
}

// CreateVisit records an attendance. When the visit draws from the member's
// balance the operation is a small saga: consume the credit, persist the
// visit, and on a later failure refund the already-committed consumption.
// Compensation failures are logged; the original error always wins.
func (s *VisitService) CreateVisit(ctx context.Context, in CreateVisitInput) (*model.Visit, error) {
	if _, err := s.users.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	if in.TrainerID != nil {
		if _, err := s.users.GetUser(ctx, *in.TrainerID); err != nil {
			return nil, err
		}
	}

	visit := &model.Visit{
		UserID:    in.UserID,
		TrainerID: in.TrainerID,
		Notes:     in.Notes,
	}
	if in.Date != nil {
		visit.Date = *in.Date
	} else {
		visit.Date = time.Now()
	}

	var compensations []compensation

	if in.UseBalance {
		result, err := s.balances.ConsumeVisit(ctx, in.UserID, in.Notes)
		if err != nil {
			return nil, err
		}
		if !result.Success {
			// Nothing was committed, nothing to compensate.
			return nil, &InsufficientBalanceError{Message: result.Message}
		}

		visit.WasBalanceUsed = true
		visit.BalanceID = result.BalanceID

		balanceID := *result.BalanceID
		compensations = append(compensations, compensation{
			name: "refund consumed visit",
			run: func(ctx context.Context) error {
				_, err := s.balances.RefundVisit(ctx, balanceID)
				return err
			},
		})
	} else if in.Price != nil {
		visit.Price = in.Price
	}

	if err := s.visits.CreateVisit(ctx, visit); err != nil {
		s.compensate(ctx, compensations)
		return nil, err
	}

	return visit, nil
}

func (s *VisitService) compensate(ctx context.Context, steps []compensation) {
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i].run(ctx); err != nil {
			s.log.WithError(err).WithField("step", steps[i].name).Error("compensation step failed")
		}
	}
}

type VisitListOptions struct {
	Limit    int
	Skip     int
	DateFrom *time.Time
	DateTo   *time.Time
}

func (o VisitListOptions) filter() repository.VisitFilter {
	return repository.VisitFilter{
		Limit:    o.Limit,
		Skip:     o.Skip,
		DateFrom: o.DateFrom,
		DateTo:   o.DateTo,
	}
}

func (s *VisitService) GetUserVisits(ctx context.Context, userID uuid.UUID, trainerID *uuid.UUID, opts VisitListOptions) ([]model.Visit, error) {
	filter := opts.filter()
	filter.UserID = &userID
	filter.TrainerID = trainerID
	return s.visits.ListVisits(ctx, filter)
}

func (s *VisitService) GetTrainerVisits(ctx context.Context, trainerID uuid.UUID, userID *uuid.UUID, opts VisitListOptions) ([]model.Visit, error) {
	filter := opts.filter()
	filter.TrainerID = &trainerID
	filter.UserID = userID
	return s.visits.ListVisits(ctx, filter)
}

// GetAllVisits returns the filtered page plus the unpaged total for the
// admin listing.
func (s *VisitService) GetAllVisits(ctx context.Context, userID, trainerID *uuid.UUID, opts VisitListOptions) ([]model.Visit, int, error) {
	filter := opts.filter()
	filter.UserID = userID
	filter.TrainerID = trainerID

	visits, err := s.visits.ListVisits(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.visits.CountVisits(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return visits, total, nil
}

// GetVisitStats computes count, one-off revenue and the balance-vs-paid split
// over the period window (day: since local midnight, week: last 7 days,
// month: since the first, year: since Jan 1, absent: all time).
func (s *VisitService) GetVisitStats(ctx context.Context, userID, trainerID *uuid.UUID, period model.StatsPeriod) (*model.VisitStats, error) {
	filter := repository.VisitFilter{
		UserID:    userID,
		TrainerID: trainerID,
	}
	if start := period.Start(time.Now()); !start.IsZero() {
		filter.DateFrom = &start
	}

	total, err := s.visits.CountVisits(ctx, filter)
	if err != nil {
		return nil, err
	}
	revenue, err := s.visits.SumVisitRevenue(ctx, filter)
	if err != nil {
		return nil, err
	}
	balanceVisits, err := s.visits.CountBalanceVisits(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &model.VisitStats{
		TotalVisits:   total,
		Revenue:       revenue,
		BalanceVisits: balanceVisits,
		PaidVisits:    total - balanceVisits,
	}, nil
}

type UpdateVisitInput struct {
	TrainerID *uuid.UUID
	Date      *time.Time
	Price     *decimal.Decimal
	Notes     *string
}

func (s *VisitService) UpdateVisit(ctx context.Context, id uuid.UUID, in UpdateVisitInput) (*model.Visit, error) {
	if in.TrainerID != nil {
		if _, err := s.users.GetUser(ctx, *in.TrainerID); err != nil {
			return nil, err
		}
	}
	return s.visits.UpdateVisit(ctx, id, in.TrainerID, in.Date, in.Price, in.Notes)
}

// DeleteVisit hard-deletes the record. It does NOT refund a consumed
// balance; compensation is reserved for creation-time rollback.
func (s *VisitService) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	return s.visits.DeleteVisit(ctx, id)
}
