package activitytest

import (
	"context"
	"sync"
	"time"

	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

// MemStore is an in-memory activity store with the same check-and-insert
// contract as the Postgres repository. It backs service and handler tests.
type MemStore struct {
	mu   sync.Mutex
	rows map[string]domain.Activity
	seq  []string
}

func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]domain.Activity)}
}

func (m *MemStore) Get(_ context.Context, id string) (*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (m *MemStore) ListByOwnerAndDate(_ context.Context, ownerID string, date domain.Date) ([]domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(a domain.Activity) bool {
		return a.OwnerID == ownerID && a.Date.Equal(date)
	}), nil
}

func (m *MemStore) ListByOwners(_ context.Context, ownerIDs []string, from, to *domain.Date) ([]domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	return m.filter(func(a domain.Activity) bool {
		if !owners[a.OwnerID] {
			return false
		}
		if from != nil && a.Date.Before(*from) {
			return false
		}
		if to != nil && a.Date.After(*to) {
			return false
		}
		return true
	}), nil
}

func (m *MemStore) ListSubmittedOn(_ context.Context, date domain.Date) ([]domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(a domain.Activity) bool {
		return a.Status == domain.StatusSubmitted && a.Date.Equal(date)
	}), nil
}

func (m *MemStore) Insert(_ context.Context, a domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := domain.CheckOverlap(a, m.filter(func(domain.Activity) bool { return true })); err != nil {
		return err
	}
	m.rows[a.ID] = a
	m.seq = append(m.seq, a.ID)
	return nil
}

func (m *MemStore) Update(_ context.Context, a domain.Activity, expected domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != expected {
		return &domain.TransitionError{From: cur.Status, To: a.Status}
	}
	if err := domain.CheckOverlap(a, m.filter(func(domain.Activity) bool { return true })); err != nil {
		return err
	}
	m.rows[a.ID] = a
	return nil
}

func (m *MemStore) UpdateStatus(_ context.Context, id string, from, to domain.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != from {
		return &domain.TransitionError{From: cur.Status, To: to}
	}
	cur.Status = to
	cur.UpdatedAt = at
	m.rows[id] = cur
	return nil
}

func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := domain.CheckDelete(cur.Status); err != nil {
		return err
	}
	delete(m.rows, id)
	return nil
}

// filter walks rows in insertion order; callers hold mu.
func (m *MemStore) filter(keep func(domain.Activity) bool) []domain.Activity {
	out := make([]domain.Activity, 0)
	for _, id := range m.seq {
		a, ok := m.rows[id]
		if ok && keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// SetStatus forces a stored status, bypassing the lifecycle.
func (m *MemStore) SetStatus(id string, s domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.rows[id]
	a.Status = s
	m.rows[id] = a
}

