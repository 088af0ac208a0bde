package credits

import (
	"context"
	"sync"
)

// orgLocks hands out one mutex per org key. Debits for a single org are
// serialized through it; unrelated orgs never contend.
//
// Mutexes are created lazily and never reclaimed. Key cardinality equals the
// number of orgs ever debited by this process, which is acceptable for the
// expected tenant counts.
type orgLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newOrgLocks() *orgLocks {
	return &orgLocks{locks: map[string]*sync.Mutex{}}
}

func (l *orgLocks) get(orgID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[orgID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[orgID] = m
	}
	return m
}

// DistributedLocker extends the per-org exclusion across processes.
// Implementations must be best-effort safe: Acquire blocks or errors, and the
// returned release func is always safe to call once.
//
// pkg/utils provides a Redis-backed implementation.
type DistributedLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
