package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and early development.
// Entries are held per org in commit order; reads re-sort by (created_at, id)
// so replay stays deterministic even with an injected clock.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]CreditTransaction

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string][]CreditTransaction{},
		clock:   time.Now,
	}
}

// WithClock overrides the timestamp source. Test use only.
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	s.clock = clock
	return s
}

func (s *MemoryStore) Append(ctx context.Context, d Draft) (CreditTransaction, error) {
	if err := validateDraft(d); err != nil {
		return CreditTransaction{}, err
	}

	tx := CreditTransaction{
		ID:          uuid.NewString(),
		OrgID:       d.OrgID,
		Amount:      d.Amount,
		Kind:        d.Kind,
		ReferenceID: d.ReferenceID,
		Description: d.Description,
		CreatedAt:   s.clock().UTC(),
	}

	s.mu.Lock()
	s.entries[d.OrgID] = append(s.entries[d.OrgID], tx)
	s.mu.Unlock()

	return tx, nil
}

func (s *MemoryStore) Balance(ctx context.Context, orgID string) (int64, error) {
	if orgID == "" {
		return 0, ErrInvalidArgument
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bal int64
	for _, tx := range s.entries[orgID] {
		bal += tx.Signed()
	}
	return bal, nil
}

func (s *MemoryStore) BalanceAsOf(ctx context.Context, orgID string, at time.Time) (int64, error) {
	if orgID == "" {
		return 0, ErrInvalidArgument
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bal int64
	for _, tx := range s.entries[orgID] {
		if tx.CreatedAt.After(at) {
			continue
		}
		bal += tx.Signed()
	}
	return bal, nil
}

func (s *MemoryStore) History(ctx context.Context, orgID string, page, pageSize int) (Page, error) {
	if orgID == "" {
		return Page{}, ErrInvalidArgument
	}
	page, pageSize = normalizePaging(page, pageSize)

	s.mu.RLock()
	all := make([]CreditTransaction, len(s.entries[orgID]))
	copy(all, s.entries[orgID])
	s.mu.RUnlock()

	sortReplayOrder(all)
	// newest-first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}

	out := Page{Page: page, PageSize: pageSize, Total: len(all)}
	start := (page - 1) * pageSize
	if start >= len(all) {
		out.Transactions = []CreditTransaction{}
		return out, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	out.Transactions = all[start:end]
	return out, nil
}

func (s *MemoryStore) List(ctx context.Context, orgID string, from, to time.Time) ([]CreditTransaction, error) {
	if orgID == "" {
		return nil, ErrInvalidArgument
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CreditTransaction, 0)
	for _, tx := range s.entries[orgID] {
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(to) {
			continue
		}
		out = append(out, tx)
	}
	sortReplayOrder(out)
	return out, nil
}

func (s *MemoryStore) ConsumedByReference(ctx context.Context, orgID, referenceID string) (int64, error) {
	if orgID == "" || referenceID == "" {
		return 0, ErrInvalidArgument
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var consumed int64
	for _, tx := range s.entries[orgID] {
		if tx.ReferenceID != referenceID {
			continue
		}
		switch tx.Kind {
		case KindConsume:
			consumed += tx.Amount
		case KindRefund:
			consumed -= tx.Amount
		}
	}
	if consumed < 0 {
		consumed = 0
	}
	return consumed, nil
}

func sortReplayOrder(txs []CreditTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
}
