package testutil

import (
	"context"
	"sort"
	"sync"

	"shuttle-router/internal/database"
	"shuttle-router/internal/models"
)

// MockRunStore is an in-memory database.DataStore for handler tests
type MockRunStore struct {
	mu    sync.Mutex
	runs  map[string]*models.RoutingResult
	notes map[string]string
	// HealthErr is returned by HealthCheck when set
	HealthErr error
	closed    bool
}

func NewMockRunStore() *MockRunStore {
	return &MockRunStore{
		runs:  make(map[string]*models.RoutingResult),
		notes: make(map[string]string),
	}
}

func (m *MockRunStore) HealthCheck(ctx context.Context) error { return m.HealthErr }
func (m *MockRunStore) Runs() database.RunRepository { return m }

func (m *MockRunStore) List(ctx context.Context, limit, offset int) ([]models.RunSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]models.RunSummary, 0, len(m.runs))
	for id, r := range m.runs {
		all = append(all, models.RunSummary{
			ID:            id,
			CreatedAt:     r.CreatedAt,
			Notes:         m.notes[id],
			Strategy:      r.Summary.Strategy,
			TotalStaff:    r.Summary.TotalStaff,
			VehiclesUsed:  r.Summary.VehiclesUsed,
			TotalDistance: r.Summary.TotalDistance,
			StopReason:    r.Summary.StopReason,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MockRunStore) GetByID(ctx context.Context, id string) (*models.RoutingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *MockRunStore) Create(ctx context.Context, result *models.RoutingResult, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[result.RunID]; ok {
		return database.ErrDuplicateRun
	}
	copied := *result
	m.runs[result.RunID] = &copied
	m.notes[result.RunID] = notes
	return nil
}

func (m *MockRunStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.runs, id)
	delete(m.notes, id)
	return nil
}

// Count returns the number of stored runs
func (m *MockRunStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

func (m *MockRunStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called
func (m *MockRunStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
