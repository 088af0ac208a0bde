package campaigns

import (
	"context"
	"sync"
)

// Repository abstracts campaign persistence.
// Implementations must enforce org filtering on every read.
type Repository interface {
	Create(ctx context.Context, c Campaign) error
	Get(ctx context.Context, orgID, id string) (Campaign, bool, error)
	Update(ctx context.Context, c Campaign) error
	ListIDsByOrg(ctx context.Context, orgID string) ([]string, error)
}

// MemoryRepo is an in-memory Repository for tests and early development.
type MemoryRepo struct {
	mu         sync.RWMutex
	byID       map[string]Campaign
	orderByOrg map[string][]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Campaign{}, orderByOrg: map[string][]string{}}
}

func (r *MemoryRepo) Create(ctx context.Context, c Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[c.ID]; exists {
		return ErrAlreadyExists
	}
	r.byID[c.ID] = c
	r.orderByOrg[c.OrgID] = append(r.orderByOrg[c.OrgID], c.ID)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, orgID, id string) (Campaign, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok || c.OrgID != orgID {
		return Campaign{}, false, nil
	}
	return c, true, nil
}

func (r *MemoryRepo) Update(ctx context.Context, c Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[c.ID]
	if !ok || cur.OrgID != c.OrgID {
		return ErrNotFound
	}
	r.byID[c.ID] = c
	return nil
}

func (r *MemoryRepo) ListIDsByOrg(ctx context.Context, orgID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.orderByOrg[orgID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}
