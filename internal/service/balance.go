package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
	"github.com/IvanTrutnev/Fitness-app/internal/repository"
)

// MsgNoEligibleBalance deliberately does not distinguish "no balance",
// "exhausted" and "expired": the decrement is a single atomic operation and
// tearing the reason apart would require a second, racy read.
const (
	MsgNoEligibleBalance = "You have no active balance or visits have run out"
	MsgVisitDeducted     = "Visit successfully deducted"
)

// notesSeparator joins the old and new notes of a merged top-up.
const notesSeparator = "\n---\n"

type BalanceService struct {
	balances BalanceStore
	history  VisitHistoryStore
	log      *logrus.Logger
}

func NewBalanceService(balances BalanceStore, history VisitHistoryStore, log *logrus.Logger) *BalanceService {
	return &BalanceService{
		balances: balances,
		history:  history,
		log:      log,
	}
}

// TopUp merges the purchased bundle into the user's active balance when one
// exists (sum visits, extend due date to the later of old/new, sum price,
// concatenate notes), otherwise creates a new balance.
func (s *BalanceService) TopUp(ctx context.Context, userID uuid.UUID, visits int, dueDate time.Time, price *decimal.Decimal, notes *string) (*model.Balance, error) {
	existing, err := s.balances.GetActiveBalance(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNoEligibleBalance) {
		return nil, err
	}

	if existing != nil {
		existing.Visits += visits

		if dueDate.After(existing.DueDate) {
			existing.DueDate = dueDate
		}

		if price != nil {
			if existing.Price != nil {
				sum := existing.Price.Add(*price)
				existing.Price = &sum
			} else {
				p := *price
				existing.Price = &p
			}
		}

		if notes != nil && *notes != "" {
			if existing.Notes != nil && *existing.Notes != "" {
				merged := *existing.Notes + notesSeparator + *notes
				existing.Notes = &merged
			} else {
				existing.Notes = notes
			}
		}

		if err := s.balances.UpdateBalance(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	balance := &model.Balance{
		UserID:   userID,
		Visits:   visits,
		DueDate:  dueDate,
		IsActive: true,
		Price:    price,
		Notes:    notes,
	}
	if err := s.balances.CreateBalance(ctx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// ConsumeVisit deducts one visit from the user's eligible balance. The
// "nothing to deduct" case is a structured result, not an error; only storage
// failures propagate. The audit entry is appended best-effort after the
// decrement committed: its failure is logged and swallowed.
func (s *BalanceService) ConsumeVisit(ctx context.Context, userID uuid.UUID, notes *string) (*model.ConsumeResult, error) {
	balance, err := s.balances.ConsumeVisit(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoEligibleBalance) {
			return &model.ConsumeResult{
				Success: false,
				Message: MsgNoEligibleBalance,
			}, nil
		}
		return nil, err
	}

	entry := &model.VisitHistory{
		UserID:    userID,
		BalanceID: balance.ID,
		VisitDate: time.Now(),
		Notes:     notes,
	}
	if err := s.history.AppendHistory(ctx, entry); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"balance_id": balance.ID,
		}).Warn("failed to append visit history")
	}

	remaining := balance.Visits
	balanceID := balance.ID
	return &model.ConsumeResult{
		Success:         true,
		Message:         MsgVisitDeducted,
		RemainingVisits: &remaining,
		BalanceID:       &balanceID,
	}, nil
}

// RefundVisit restores one visit credit and reactivates the balance. It is
// the compensation for a consumption whose follow-up work failed, never a
// general "free visit" path. The matching audit entry is removed best-effort.
func (s *BalanceService) RefundVisit(ctx context.Context, balanceID uuid.UUID) (*model.Balance, error) {
	balance, err := s.balances.AddVisits(ctx, balanceID, 1)
	if err != nil {
		return nil, err
	}

	entry, err := s.history.MostRecentHistoryForBalance(ctx, balanceID)
	if err != nil {
		if !errors.Is(err, repository.ErrHistoryNotFound) {
			s.log.WithError(err).WithField("balance_id", balanceID).Warn("failed to find visit history entry for refund")
		}
		return balance, nil
	}
	if err := s.history.DeleteHistory(ctx, entry.ID); err != nil {
		s.log.WithError(err).WithField("history_id", entry.ID).Warn("failed to delete visit history entry for refund")
	}

	return balance, nil
}

// AddVisitsToBalance tops up a specific, already-identified balance (admin
// path) and reactivates it when the resulting count is positive.
func (s *BalanceService) AddVisitsToBalance(ctx context.Context, balanceID uuid.UUID, additionalVisits int) (*model.Balance, error) {
	return s.balances.AddVisits(ctx, balanceID, additionalVisits)
}

// ExpireSweep deactivates every active balance whose due date lies before
// now. Idempotent: a second run affects zero rows.
func (s *BalanceService) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	return s.balances.DeactivateExpired(ctx, now)
}

func (s *BalanceService) GetActiveBalance(ctx context.Context, userID uuid.UUID) (*model.Balance, error) {
	return s.balances.GetActiveBalance(ctx, userID)
}

func (s *BalanceService) ListBalances(ctx context.Context, userID uuid.UUID) ([]model.Balance, error) {
	return s.balances.ListBalances(ctx, userID)
}

// GetUserStats aggregates the member's balance and attendance figures.
// Read-only, no side effects.
func (s *BalanceService) GetUserStats(ctx context.Context, userID uuid.UUID) (*model.UserStats, error) {
	stats := &model.UserStats{}
	now := time.Now()

	active, err := s.balances.GetActiveBalance(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNoEligibleBalance) {
		return nil, err
	}
	if active != nil {
		stats.ActiveBalance = &model.ActiveBalanceInfo{
			ID:           active.ID,
			Visits:       active.Visits,
			DueDate:      active.DueDate,
			IsExpired:    active.DueDate.Before(now),
			PurchaseDate: active.PurchaseDate,
		}
	}

	if stats.TotalBalances, err = s.balances.CountBalances(ctx, userID); err != nil {
		return nil, err
	}
	if stats.TotalVisitsUsed, err = s.history.CountHistoryForUser(ctx, userID); err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if stats.ThisMonthVisits, err = s.history.CountHistoryForUserSince(ctx, userID, monthStart); err != nil {
		return nil, err
	}

	if stats.RecentVisits, err = s.history.ListRecentHistory(ctx, userID, 10); err != nil {
		return nil, err
	}

	return stats, nil
}
