package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/IvanTrutnev/Fitness-app/internal/model"
	"github.com/IvanTrutnev/Fitness-app/internal/repository"
)

// memStore is an in-memory implementation of the store interfaces with the
// same semantics as the Postgres repository, including the atomic
// find-and-decrement (serialized here by a mutex). Error fields let tests
// inject failures on specific operations.
type memStore struct {
	mu       sync.Mutex
	balances map[uuid.UUID]*model.Balance
	history  []model.VisitHistory
	visits   map[uuid.UUID]*model.Visit
	users    map[uuid.UUID]*model.User

	createVisitErr   error
	appendHistoryErr error
	deleteHistoryErr error
	addVisitsErr     error
}

var (
	_ BalanceStore      = (*memStore)(nil)
	_ VisitHistoryStore = (*memStore)(nil)
	_ VisitStore        = (*memStore)(nil)
	_ UserStore         = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		balances: make(map[uuid.UUID]*model.Balance),
		visits:   make(map[uuid.UUID]*model.Visit),
		users:    make(map[uuid.UUID]*model.User),
	}
}

func (m *memStore) putUser(role model.Role) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.users[id] = &model.User{ID: id, Email: id.String() + "@test.local", Role: role}
	return id
}

func (m *memStore) eligibleLocked(userID uuid.UUID, now time.Time) *model.Balance {
	var best *model.Balance
	for _, b := range m.balances {
		if b.UserID != userID || !b.Eligible(now) {
			continue
		}
		if best == nil || b.DueDate.Before(best.DueDate) {
			best = b
		}
	}
	return best
}

func copyBalance(b *model.Balance) *model.Balance {
	c := *b
	return &c
}

// BalanceStore

func (m *memStore) CreateBalance(_ context.Context, balance *model.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if balance.ID == uuid.Nil {
		balance.ID = uuid.New()
	}
	now := time.Now()
	if balance.PurchaseDate.IsZero() {
		balance.PurchaseDate = now
	}
	balance.CreatedAt = now
	balance.UpdatedAt = now
	m.balances[balance.ID] = copyBalance(balance)
	return nil
}

func (m *memStore) GetBalance(_ context.Context, id uuid.UUID) (*model.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[id]
	if !ok {
		return nil, repository.ErrBalanceNotFound
	}
	return copyBalance(b), nil
}

func (m *memStore) GetActiveBalance(_ context.Context, userID uuid.UUID) (*model.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.eligibleLocked(userID, time.Now()); b != nil {
		return copyBalance(b), nil
	}
	return nil, repository.ErrNoEligibleBalance
}

func (m *memStore) ListBalances(_ context.Context, userID uuid.UUID) ([]model.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Balance
	for _, b := range m.balances {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ConsumeVisit(_ context.Context, userID uuid.UUID) (*model.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.eligibleLocked(userID, time.Now())
	if b == nil {
		return nil, repository.ErrNoEligibleBalance
	}
	b.Visits--
	b.IsActive = b.Visits > 0
	b.UpdatedAt = time.Now()
	return copyBalance(b), nil
}

func (m *memStore) AddVisits(_ context.Context, balanceID uuid.UUID, delta int) (*model.Balance, error) {
	if m.addVisitsErr != nil {
		return nil, m.addVisitsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[balanceID]
	if !ok {
		return nil, repository.ErrBalanceNotFound
	}
	b.Visits += delta
	b.IsActive = b.Visits > 0
	b.UpdatedAt = time.Now()
	return copyBalance(b), nil
}

func (m *memStore) UpdateBalance(_ context.Context, balance *model.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[balance.ID]; !ok {
		return repository.ErrBalanceNotFound
	}
	balance.UpdatedAt = time.Now()
	m.balances[balance.ID] = copyBalance(balance)
	return nil
}

func (m *memStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, b := range m.balances {
		if b.IsActive && b.DueDate.Before(now) {
			b.IsActive = false
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountBalances(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, b := range m.balances {
		if b.UserID == userID {
			count++
		}
	}
	return count, nil
}

// VisitHistoryStore

func (m *memStore) AppendHistory(_ context.Context, entry *model.VisitHistory) error {
	if m.appendHistoryErr != nil {
		return m.appendHistoryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	m.history = append(m.history, *entry)
	return nil
}

func (m *memStore) MostRecentHistoryForBalance(_ context.Context, balanceID uuid.UUID) (*model.VisitHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.VisitHistory
	for i := range m.history {
		e := &m.history[i]
		if e.BalanceID != balanceID {
			continue
		}
		if best == nil || e.VisitDate.After(best.VisitDate) {
			best = e
		}
	}
	if best == nil {
		return nil, repository.ErrHistoryNotFound
	}
	c := *best
	return &c, nil
}

func (m *memStore) DeleteHistory(_ context.Context, id uuid.UUID) error {
	if m.deleteHistoryErr != nil {
		return m.deleteHistoryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.history {
		if m.history[i].ID == id {
			m.history = append(m.history[:i], m.history[i+1:]...)
			return nil
		}
	}
	return repository.ErrHistoryNotFound
}

func (m *memStore) CountHistoryForUser(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for i := range m.history {
		if m.history[i].UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountHistoryForUserSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for i := range m.history {
		if m.history[i].UserID == userID && !m.history[i].VisitDate.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) ListRecentHistory(_ context.Context, userID uuid.UUID, limit int) ([]model.VisitHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.VisitHistory
	for i := range m.history {
		if m.history[i].UserID == userID {
			out = append(out, m.history[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// VisitStore

func matches(v *model.Visit, f repository.VisitFilter) bool {
	if f.UserID != nil && v.UserID != *f.UserID {
		return false
	}
	if f.TrainerID != nil && (v.TrainerID == nil || *v.TrainerID != *f.TrainerID) {
		return false
	}
	if f.DateFrom != nil && v.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && v.Date.After(*f.DateTo) {
		return false
	}
	return true
}

func (m *memStore) CreateVisit(_ context.Context, visit *model.Visit) error {
	if m.createVisitErr != nil {
		return m.createVisitErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	visit.CreatedAt = time.Now()
	c := *visit
	m.visits[visit.ID] = &c
	return nil
}

func (m *memStore) GetVisit(_ context.Context, id uuid.UUID) (*model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, repository.ErrVisitNotFound
	}
	c := *v
	return &c, nil
}

func (m *memStore) ListVisits(_ context.Context, filter repository.VisitFilter) ([]model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Visit
	for _, v := range m.visits {
		if matches(v, filter) {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	skip := filter.Skip
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CountVisits(_ context.Context, filter repository.VisitFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, v := range m.visits {
		if matches(v, filter) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) SumVisitRevenue(_ context.Context, filter repository.VisitFilter) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, v := range m.visits {
		if matches(v, filter) && v.Price != nil && v.Price.IsPositive() {
			sum = sum.Add(*v.Price)
		}
	}
	return sum, nil
}

func (m *memStore) CountBalanceVisits(_ context.Context, filter repository.VisitFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, v := range m.visits {
		if matches(v, filter) && v.WasBalanceUsed {
			count++
		}
	}
	return count, nil
}

func (m *memStore) UpdateVisit(_ context.Context, id uuid.UUID, trainerID *uuid.UUID, date *time.Time, price *decimal.Decimal, notes *string) (*model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, repository.ErrVisitNotFound
	}
	if trainerID != nil {
		v.TrainerID = trainerID
	}
	if date != nil {
		v.Date = *date
	}
	if price != nil {
		v.Price = price
	}
	if notes != nil {
		v.Notes = notes
	}
	c := *v
	return &c, nil
}

func (m *memStore) DeleteVisit(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visits[id]; !ok {
		return repository.ErrVisitNotFound
	}
	delete(m.visits, id)
	return nil
}

// UserStore

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = model.RoleMember
	}
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrUserExists
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	c := *user
	m.users[user.ID] = &c
	return nil
}
