package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidAmount   = errors.New("ledger: invalid amount")
	ErrInvalidArgument = errors.New("ledger: invalid argument")
	ErrNotFound        = errors.New("ledger: not found")
)

// Store is the append-only transaction log.
//
// Invariants:
//   - Entries are never updated or deleted.
//   - Replay order is deterministic: created_at, then id.
//   - Balance is always derived by folding entries; there is no authoritative
//     stored balance (Postgres keeps a projection, but the fold wins).
//
// Balance-sufficiency checks are NOT enforced here; the credits coordinator
// serializes debits per org and is the only writer allowed to append consume
// entries.
type Store interface {
	// Append commits a new transaction. Fails with ErrInvalidAmount when the
	// magnitude is not positive or the kind is unknown.
	Append(ctx context.Context, d Draft) (CreditTransaction, error)

	// Balance folds every committed transaction for the org.
	Balance(ctx context.Context, orgID string) (int64, error)

	// BalanceAsOf folds transactions with created_at <= at.
	BalanceAsOf(ctx context.Context, orgID string, at time.Time) (int64, error)

	// History returns one page of transactions, newest-first. page starts at 1.
	History(ctx context.Context, orgID string, page, pageSize int) (Page, error)

	// List returns transactions in replay order with created_at in [from, to).
	List(ctx context.Context, orgID string, from, to time.Time) ([]CreditTransaction, error)

	// ConsumedByReference sums consume magnitudes attributed to referenceID,
	// net of refunds carrying the same reference.
	ConsumedByReference(ctx context.Context, orgID, referenceID string) (int64, error)
}

func validateDraft(d Draft) error {
	if d.OrgID == "" {
		return ErrInvalidArgument
	}
	if !d.Kind.Valid() {
		return ErrInvalidAmount
	}
	if d.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}
