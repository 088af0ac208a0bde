package analytics

import (
	"context"
	"sync"
)

// InteractionStore abstracts the immutable interaction record store.
//
// Put must be idempotent on interaction id: re-putting an already-stored id
// reports inserted=false and must not alter the stored record.
type InteractionStore interface {
	Put(ctx context.Context, in Interaction) (inserted bool, err error)
	ListByCampaign(ctx context.Context, orgID, campaignID string) ([]Interaction, error)
	ListByOrg(ctx context.Context, orgID string) ([]Interaction, error)
}

// MemoryInteractionStore keeps interactions in memory for tests and early
// development. First write wins; duplicates are ignored.
type MemoryInteractionStore struct {
	mu   sync.RWMutex
	byID map[string]Interaction
}

func NewMemoryInteractionStore() *MemoryInteractionStore {
	return &MemoryInteractionStore{byID: map[string]Interaction{}}
}

func (s *MemoryInteractionStore) Put(ctx context.Context, in Interaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[in.ID]; exists {
		return false, nil
	}
	s.byID[in.ID] = in
	return true, nil
}

func (s *MemoryInteractionStore) ListByCampaign(ctx context.Context, orgID, campaignID string) ([]Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Interaction, 0)
	for _, in := range s.byID {
		if in.OrgID != orgID || in.CampaignID != campaignID {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (s *MemoryInteractionStore) ListByOrg(ctx context.Context, orgID string) ([]Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Interaction, 0)
	for _, in := range s.byID {
		if in.OrgID != orgID {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}
