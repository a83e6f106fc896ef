package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/infra/storage"
)

// IntegrationRepo is an in-memory storage.IntegrationRepository, used in
// tests and store-less runs.
type IntegrationRepo struct {
	mu           sync.RWMutex
	integrations map[domain.CheckKey]*domain.Integration
}

// NewIntegrationRepo creates an empty in-memory repository.
func NewIntegrationRepo() *IntegrationRepo {
	return &IntegrationRepo{integrations: make(map[domain.CheckKey]*domain.Integration)}
}

// Put inserts or replaces an integration.
func (r *IntegrationRepo) Put(integ *domain.Integration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *integ
	r.integrations[integ.Key()] = &cp
}

// Remove deletes an integration, for simulating mid-scan deletion.
func (r *IntegrationRepo) Remove(typ domain.IntegrationType, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.integrations, domain.CheckKey{Type: typ, IntegrationID: id})
}

func (r *IntegrationRepo) ListActive(ctx context.Context, typ domain.IntegrationType) ([]*domain.Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Integration
	for _, integ := range r.integrations {
		if integ.Type == typ && integ.IsActive {
			cp := *integ
			out = append(out, &cp)
		}
	}
	sortByID(out)
	return out, nil
}

func (r *IntegrationRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Integration
	for _, integ := range r.integrations {
		if integ.UserID == userID {
			cp := *integ
			out = append(out, &cp)
		}
	}
	sortByID(out)
	return out, nil
}

func (r *IntegrationRepo) Get(ctx context.Context, typ domain.IntegrationType, id int64) (*domain.Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	integ, ok := r.integrations[domain.CheckKey{Type: typ, IntegrationID: id}]
	if !ok {
		return nil, storage.ErrIntegrationNotFound
	}
	cp := *integ
	return &cp, nil
}

func (r *IntegrationRepo) SetActive(ctx context.Context, typ domain.IntegrationType, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	integ, ok := r.integrations[domain.CheckKey{Type: typ, IntegrationID: id}]
	if !ok {
		return storage.ErrIntegrationNotFound
	}
	integ.IsActive = active
	return nil
}

func sortByID(integrations []*domain.Integration) {
	sort.Slice(integrations, func(i, j int) bool {
		return integrations[i].ID < integrations[j].ID
	})
}

var _ storage.IntegrationRepository = (*IntegrationRepo)(nil)
