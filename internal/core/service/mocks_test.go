package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rl1809/pack-n-strap/internal/core/domain"
)

// Mock ProfileRepository
type mockProfileRepo struct {
	mu          sync.Mutex
	inventories map[string]*domain.Inventory
	saves       int
	getErr      error
	saveErr     error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{inventories: make(map[string]*domain.Inventory)}
}

func (m *mockProfileRepo) put(sessionID string, inv domain.Inventory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.Items = domain.CloneItems(inv.Items)
	m.inventories[sessionID] = &inv
}

func (m *mockProfileRepo) stored(sessionID string) *domain.Inventory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inventories[sessionID]
}

func (m *mockProfileRepo) GetInventory(ctx context.Context, sessionID string) (*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	inv, ok := m.inventories[sessionID]
	if !ok {
		return nil, nil
	}
	cloned := *inv
	cloned.Items = domain.CloneItems(inv.Items)
	return &cloned, nil
}

func (m *mockProfileRepo) SaveInventory(ctx context.Context, sessionID string, inv domain.Inventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	inv.Items = domain.CloneItems(inv.Items)
	m.inventories[sessionID] = &inv
	m.saves++
	return nil
}

func (m *mockProfileRepo) MarkSessionStarted(ctx context.Context, sessionID string, at time.Time) error {
	return nil
}

// Mock TemplateRepository
type mockTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]domain.Template
	lookups   int
	getErr    error
	saveErr   error
}

func newMockTemplateRepo(templates ...domain.Template) *mockTemplateRepo {
	m := &mockTemplateRepo{templates: make(map[string]domain.Template)}
	for _, tpl := range templates {
		m.templates[tpl.ID] = tpl.Clone()
	}
	return m
}

func (m *mockTemplateRepo) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lookups++
	if m.getErr != nil {
		return nil, m.getErr
	}
	tpl, ok := m.templates[id]
	if !ok {
		return nil, nil
	}
	cloned := tpl.Clone()
	return &cloned, nil
}

func (m *mockTemplateRepo) ListByParent(ctx context.Context, parentID string) ([]domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Template
	for _, tpl := range m.templates {
		if tpl.ParentID == parentID {
			out = append(out, tpl.Clone())
		}
	}
	return out, nil
}

func (m *mockTemplateRepo) SaveTemplate(ctx context.Context, tpl domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	if tpl.ID == "" {
		return errors.New("template id is required")
	}
	m.templates[tpl.ID] = tpl.Clone()
	return nil
}

func (m *mockTemplateRepo) get(id string) domain.Template {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templates[id].Clone()
}
