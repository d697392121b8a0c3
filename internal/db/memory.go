package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/triage/backend/internal/models"
)

// MemoryStore keeps tickets and runs in process memory. It serves the same
// queries as Store and is used when no DATABASE_URL is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]models.Ticket
	runs    []models.Run
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: map[string]models.Ticket{},
		now:     time.Now,
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) InsertTickets(_ context.Context, _ string, tickets []models.Ticket) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tickets {
		if _, ok := m.tickets[t.ID]; ok {
			return 0, fmt.Errorf("duplicate ticket id %s", t.ID)
		}
	}
	for _, t := range tickets {
		m.tickets[t.ID] = t
	}
	return int64(len(tickets)), nil
}

func (m *MemoryStore) ListTickets(_ context.Context, f models.TicketFilter, limit, offset int) ([]models.Ticket, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items := m.filtered(f)
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ReceivedAt.Equal(items[j].ReceivedAt) {
			return items[i].ReceivedAt.After(items[j].ReceivedAt)
		}
		return items[i].ID < items[j].ID
	})
	if offset >= len(items) {
		return []models.Ticket{}, nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryStore) TicketsForAnalysis(_ context.Context, f models.TicketFilter) ([]models.Ticket, error) {
	items := m.filtered(f)
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ReceivedAt.Equal(items[j].ReceivedAt) {
			return items[i].ReceivedAt.Before(items[j].ReceivedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (m *MemoryStore) GetTicket(_ context.Context, id string) (models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return models.Ticket{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryStore) Respond(_ context.Context, id string, response string) (models.Ticket, error) {
	return m.update(id, func(t *models.Ticket) {
		t.AIResponse = &response
		t.Status = models.StatusResponded
	})
}

func (m *MemoryStore) Resolve(_ context.Context, id string) (models.Ticket, error) {
	return m.update(id, func(t *models.Ticket) {
		t.Status = models.StatusResolved
	})
}

func (m *MemoryStore) CreateRun(_ context.Context, status string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.runs = append(m.runs, models.Run{ID: id, StartedAt: m.now(), Status: status})
	return id, nil
}

func (m *MemoryStore) FinishRun(_ context.Context, runID string, status string, summary []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == runID {
			finished := m.now()
			m.runs[i].Status = status
			m.runs[i].Summary = append([]byte(nil), summary...)
			m.runs[i].FinishedAt = &finished
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) GetLatestRun(context.Context) (models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return models.Run{}, ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

func (m *MemoryStore) filtered(f models.TicketFilter) []models.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Ticket{}
	for _, t := range m.tickets {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (m *MemoryStore) update(id string, fn func(t *models.Ticket)) (models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return models.Ticket{}, ErrNotFound
	}
	fn(&t)
	m.tickets[id] = t
	return t, nil
}
