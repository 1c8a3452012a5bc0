package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-commerce-backend/internal/repo"
)

var errStorage = errors.New("storage offline")

// memOrders is an in-memory OrderRepository.
type memOrders struct {
	mu    sync.Mutex
	rows  map[string]repo.OrderRow
	keys  map[string]string
	fail  error
	calls int

	// beforeWrite runs before conditional writes to simulate a racing writer.
	beforeWrite func(m *memOrders, id string)
}

func newMemOrders() *memOrders {
	return &memOrders{rows: map[string]repo.OrderRow{}, keys: map[string]string{}}
}

func (m *memOrders) put(row repo.OrderRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.ID] = row
}

func (m *memOrders) FindByID(_ context.Context, id string) (*repo.OrderRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memOrders) FindMany(_ context.Context, f repo.OrderFilter) ([]repo.OrderRow, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, 0, m.fail
	}
	var all []repo.OrderRow
	for _, r := range m.rows {
		if (f.UserID == "" || r.UserID == f.UserID) && (f.Status == "" || r.Status == f.Status) {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if f.Offset >= len(all) {
		return []repo.OrderRow{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], total, nil
}

func (m *memOrders) Create(_ context.Context, row *repo.OrderRow) (*repo.OrderRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	row.ID = uuid.NewString()
	row.CreatedAt = time.Now().UTC()
	row.UpdatedAt = row.CreatedAt
	m.rows[row.ID] = *row
	return row, nil
}

func (m *memOrders) CreateIdempotent(ctx context.Context, row *repo.OrderRow, key string, _ time.Duration) (*repo.OrderRow, bool, error) {
	m.mu.Lock()
	if id, ok := m.keys[row.UserID+"/"+key]; ok {
		r := m.rows[id]
		m.mu.Unlock()
		return &r, true, nil
	}
	m.mu.Unlock()
	created, err := m.Create(ctx, row)
	if err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	m.keys[row.UserID+"/"+key] = created.ID
	m.mu.Unlock()
	return created, false, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id, from, to string) (*repo.OrderRow, error) {
	if m.beforeWrite != nil {
		m.beforeWrite(m, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != from {
		return nil, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	m.rows[id] = r
	return &r, nil
}

func (m *memOrders) Delete(_ context.Context, id, status string) (bool, error) {
	if m.beforeWrite != nil {
		m.beforeWrite(m, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != status {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

// memWidgets is an in-memory WidgetRepository.
type memWidgets struct {
	mu   sync.Mutex
	rows map[string]repo.WidgetRow
	seq  int
	fail error
}

func newMemWidgets() *memWidgets { return &memWidgets{rows: map[string]repo.WidgetRow{}} }

func (m *memWidgets) FindByID(_ context.Context, id string) (*repo.WidgetRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memWidgets) FindMany(_ context.Context, f repo.WidgetFilter) ([]repo.WidgetRow, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repo.WidgetRow
	for _, r := range m.rows {
		if f.Name == "" || strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Name)) {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memWidgets) Create(_ context.Context, name string) (*repo.WidgetRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	m.seq++
	now := time.Now().UTC()
	r := repo.WidgetRow{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	m.rows[r.ID] = r
	return &r, nil
}

func (m *memWidgets) Update(_ context.Context, id, name string) (*repo.WidgetRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	r.Name = name
	r.UpdatedAt = time.Now().UTC()
	m.rows[id] = r
	return &r, nil
}

func (m *memWidgets) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}
