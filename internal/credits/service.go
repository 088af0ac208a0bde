package credits

import (
	"context"
	"errors"
	"fmt"

	"campaign-platform/internal/audit"
	"campaign-platform/internal/ledger"
)

var (
	ErrInsufficientCredits = errors.New("credits: insufficient credits")
	ErrInvalidArgument     = errors.New("credits: invalid argument")
)

// Service is the debit/credit coordinator: the only component allowed to
// write to the ledger.
//
// Money invariants:
//   - balance(org) >= 0 at every committed state
//   - a debit observes a balance reflecting every previously committed
//     transaction for that org; the check-then-append sequence is atomic with
//     respect to concurrent debits on the same org
//   - no partial writes: either the transaction is appended in full or not at all
//
// Exclusion is per org (keyed mutex), never global. An optional
// DistributedLocker extends it across processes.
type Service struct {
	store ledger.Store
	locks *orgLocks

	// dist, when set, is acquired around the debit critical section in
	// addition to the in-process lock.
	dist DistributedLocker

	// auditor records privileged manual adjustments. Best-effort: audit
	// failures never roll back money operations.
	auditor *audit.Service
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store, locks: newOrgLocks()}
}

// WithDistributedLocker enables cross-process debit exclusion.
func (s *Service) WithDistributedLocker(d DistributedLocker) *Service {
	s.dist = d
	return s
}

// WithAuditor enables audit events for admin adjustments.
func (s *Service) WithAuditor(a *audit.Service) *Service {
	s.auditor = a
	return s
}

// Purchase credits the org. Always succeeds for a positive amount.
func (s *Service) Purchase(ctx context.Context, orgID string, amount int64, description string) (ledger.CreditTransaction, error) {
	if orgID == "" {
		return ledger.CreditTransaction{}, ErrInvalidArgument
	}
	return s.store.Append(ctx, ledger.Draft{
		OrgID:       orgID,
		Amount:      amount,
		Kind:        ledger.KindPurchase,
		Description: description,
	})
}

// Refund credits the org back, referencing the campaign or transaction being
// compensated. Always succeeds for a positive amount; it is the only
// cancellation mechanism for committed consumption.
func (s *Service) Refund(ctx context.Context, orgID string, amount int64, referenceID string) (ledger.CreditTransaction, error) {
	if orgID == "" || referenceID == "" {
		return ledger.CreditTransaction{}, ErrInvalidArgument
	}
	return s.store.Append(ctx, ledger.Draft{
		OrgID:       orgID,
		Amount:      amount,
		Kind:        ledger.KindRefund,
		ReferenceID: referenceID,
	})
}

// Debit consumes credits for the given reference (typically a campaign id).
// Fails fast with ErrInsufficientCredits when the committed balance cannot
// cover the amount; no entry is written in that case.
func (s *Service) Debit(ctx context.Context, orgID string, amount int64, referenceID string) (ledger.CreditTransaction, error) {
	if orgID == "" || referenceID == "" {
		return ledger.CreditTransaction{}, ErrInvalidArgument
	}
	if amount <= 0 {
		return ledger.CreditTransaction{}, ledger.ErrInvalidAmount
	}

	if s.dist != nil {
		release, err := s.dist.Acquire(ctx, "credits:debit:"+orgID)
		if err != nil {
			return ledger.CreditTransaction{}, fmt.Errorf("acquire org lock: %w", err)
		}
		defer release()
	}

	mu := s.locks.get(orgID)
	mu.Lock()
	defer mu.Unlock()

	bal, err := s.store.Balance(ctx, orgID)
	if err != nil {
		return ledger.CreditTransaction{}, err
	}
	if bal < amount {
		return ledger.CreditTransaction{}, ErrInsufficientCredits
	}

	return s.store.Append(ctx, ledger.Draft{
		OrgID:       orgID,
		Amount:      amount,
		Kind:        ledger.KindConsume,
		ReferenceID: referenceID,
	})
}

// AdminAdjust is a privileged manual purchase or refund, recorded in the
// audit trail with the acting admin's identity.
func (s *Service) AdminAdjust(ctx context.Context, orgID, adminUserID, adminRole string, amount int64, kind ledger.Kind, reason string) (ledger.CreditTransaction, error) {
	if orgID == "" || adminUserID == "" || adminRole == "" || reason == "" {
		return ledger.CreditTransaction{}, ErrInvalidArgument
	}
	if kind != ledger.KindPurchase && kind != ledger.KindRefund {
		return ledger.CreditTransaction{}, ErrInvalidArgument
	}

	tx, err := s.store.Append(ctx, ledger.Draft{
		OrgID:       orgID,
		Amount:      amount,
		Kind:        kind,
		Description: reason,
	})
	if err != nil {
		return ledger.CreditTransaction{}, err
	}

	if s.auditor != nil {
		_ = s.auditor.LogCreditAdjustment(ctx, orgID, adminUserID, adminRole, tx.ID, reason, amount)
	}
	return tx, nil
}

// Balance reads the current committed balance.
func (s *Service) Balance(ctx context.Context, orgID string) (int64, error) {
	if orgID == "" {
		return 0, ErrInvalidArgument
	}
	return s.store.Balance(ctx, orgID)
}

// History pages through the org's transactions, newest-first.
func (s *Service) History(ctx context.Context, orgID string, page, pageSize int) (ledger.Page, error) {
	if orgID == "" {
		return ledger.Page{}, ErrInvalidArgument
	}
	return s.store.History(ctx, orgID, page, pageSize)
}
