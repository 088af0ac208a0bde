package reporting

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory A/B test repository for tests and early
// development. It enforces org isolation on reads.
type MemoryRepo struct {
	mu    sync.RWMutex
	tests map[string]ABTest
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tests: map[string]ABTest{}}
}

func (r *MemoryRepo) Put(test ABTest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests[test.ID] = test
}

func (r *MemoryRepo) PutABTest(ctx context.Context, test ABTest) error {
	r.Put(test)
	return nil
}

func (r *MemoryRepo) GetABTest(ctx context.Context, orgID, id string) (ABTest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tests[id]
	if !ok || t.OrgID != orgID {
		return ABTest{}, false, nil
	}
	return t, true, nil
}
