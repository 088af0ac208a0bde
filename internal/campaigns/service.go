package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campaign-platform/internal/audit"
	"campaign-platform/internal/ledger"
	"campaign-platform/internal/pricing"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("campaigns: not found")
	ErrAlreadyExists     = errors.New("campaigns: already exists")
	ErrInvalidArgument   = errors.New("campaigns: invalid argument")
	ErrInvalidTransition = errors.New("campaigns: invalid status transition")
)

// Debitor is the coordinator surface the launch flow needs. The campaign
// service never touches the ledger directly.
type Debitor interface {
	Debit(ctx context.Context, orgID string, amount int64, referenceID string) (ledger.CreditTransaction, error)
	Refund(ctx context.Context, orgID string, amount int64, referenceID string) (ledger.CreditTransaction, error)
}

// Estimator is the pricing surface used before a debit.
type Estimator interface {
	Estimate(ctx context.Context, req pricing.EstimateRequest) (pricing.Estimate, error)
}

// Service manages the campaign lifecycle. Cost estimation and the debit both
// happen on the draft -> scheduled transition (Launch); launching is blocked
// when the org cannot afford the estimated total.
type Service struct {
	repo      Repository
	estimator Estimator
	debitor   Debitor
	auditor   *audit.Service
	clock     func() time.Time
}

func NewService(repo Repository, estimator Estimator, debitor Debitor) *Service {
	return &Service{repo: repo, estimator: estimator, debitor: debitor, clock: time.Now}
}

// WithAuditor enables status-transition audit events.
func (s *Service) WithAuditor(a *audit.Service) *Service {
	s.auditor = a
	return s
}

type CreateRequest struct {
	OrgID        string           `json:"org_id"`
	Name         string           `json:"name"`
	Type         Type             `json:"type"`
	Category     pricing.Category `json:"category"`
	ContactCount int              `json:"contact_count"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Campaign, error) {
	if req.OrgID == "" || req.Name == "" {
		return Campaign{}, ErrInvalidArgument
	}
	if !req.Type.Valid() || !req.Category.Valid() {
		return Campaign{}, ErrInvalidArgument
	}
	if req.ContactCount <= 0 {
		return Campaign{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	c := Campaign{
		ID:           uuid.NewString(),
		OrgID:        req.OrgID,
		Name:         req.Name,
		Type:         req.Type,
		Category:     req.Category,
		Status:       StatusDraft,
		ContactCount: req.ContactCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (Campaign, error) {
	if orgID == "" || id == "" {
		return Campaign{}, ErrInvalidArgument
	}
	c, ok, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return Campaign{}, err
	}
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

// Estimate prices the campaign without debiting.
func (s *Service) Estimate(ctx context.Context, orgID, id string) (pricing.Estimate, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return pricing.Estimate{}, err
	}
	return s.estimator.Estimate(ctx, pricing.EstimateRequest{
		OrgID:        c.OrgID,
		Category:     c.Category,
		ContactCount: c.ContactCount,
	})
}

// Launch estimates the campaign cost, debits the org (reference_id = campaign
// id) and moves the campaign draft -> scheduled. A failed debit leaves the
// campaign in draft with no ledger entry written.
func (s *Service) Launch(ctx context.Context, orgID, id string) (Campaign, ledger.CreditTransaction, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return Campaign{}, ledger.CreditTransaction{}, err
	}
	if !c.Status.CanTransitionTo(StatusScheduled) {
		return Campaign{}, ledger.CreditTransaction{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, StatusScheduled)
	}

	est, err := s.estimator.Estimate(ctx, pricing.EstimateRequest{
		OrgID:        c.OrgID,
		Category:     c.Category,
		ContactCount: c.ContactCount,
	})
	if err != nil {
		return Campaign{}, ledger.CreditTransaction{}, err
	}

	tx, err := s.debitor.Debit(ctx, c.OrgID, est.EstimatedTotalCost, c.ID)
	if err != nil {
		return Campaign{}, ledger.CreditTransaction{}, err
	}

	updated, err := s.transition(ctx, c, StatusScheduled)
	if err != nil {
		// The debit committed; compensate with a refund so money state stays
		// consistent even when the status write fails.
		_, _ = s.debitor.Refund(ctx, c.OrgID, est.EstimatedTotalCost, c.ID)
		return Campaign{}, ledger.CreditTransaction{}, err
	}
	return updated, tx, nil
}

func (s *Service) Activate(ctx context.Context, orgID, id string) (Campaign, error) {
	return s.transitionByID(ctx, orgID, id, StatusActive)
}

func (s *Service) Pause(ctx context.Context, orgID, id string) (Campaign, error) {
	return s.transitionByID(ctx, orgID, id, StatusPaused)
}

func (s *Service) Resume(ctx context.Context, orgID, id string) (Campaign, error) {
	return s.transitionByID(ctx, orgID, id, StatusActive)
}

// Complete finishes the campaign and refunds undelivered contacts at the
// launch-time rate. Already-aggregated analytics for completed interactions
// are untouched; the refund is the only cancellation mechanism.
func (s *Service) Complete(ctx context.Context, orgID, id string, undeliveredContacts int) (Campaign, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return Campaign{}, err
	}
	if undeliveredContacts < 0 || undeliveredContacts > c.ContactCount {
		return Campaign{}, ErrInvalidArgument
	}

	updated, err := s.transition(ctx, c, StatusCompleted)
	if err != nil {
		return Campaign{}, err
	}

	if undeliveredContacts > 0 {
		est, err := s.estimator.Estimate(ctx, pricing.EstimateRequest{
			OrgID:        c.OrgID,
			Category:     c.Category,
			ContactCount: undeliveredContacts,
		})
		if err != nil {
			return Campaign{}, err
		}
		if est.EstimatedTotalCost > 0 {
			if _, err := s.debitor.Refund(ctx, c.OrgID, est.EstimatedTotalCost, c.ID); err != nil {
				return Campaign{}, err
			}
		}
	}
	return updated, nil
}

func (s *Service) transitionByID(ctx context.Context, orgID, id string, to Status) (Campaign, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return Campaign{}, err
	}
	return s.transition(ctx, c, to)
}

func (s *Service) transition(ctx context.Context, c Campaign, to Status) (Campaign, error) {
	if !c.Status.CanTransitionTo(to) {
		return Campaign{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	from := c.Status
	c.Status = to
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Campaign{}, err
	}
	if s.auditor != nil {
		_ = s.auditor.LogCampaignTransition(ctx, c.OrgID, "", c.ID, string(from), string(to))
	}
	return c, nil
}
