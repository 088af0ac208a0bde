package audit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// Audit is internal-only; records are not exposed to tenant users by default.
// Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.OrgID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogCreditAdjustment records a privileged manual ledger adjustment.
func (s *Service) LogCreditAdjustment(ctx context.Context, orgID, actorUserID, actorRole, transactionID, reason string, amount int64) error {
	return s.Append(ctx, Event{
		OrgID:         orgID,
		Type:          EventTypeCreditAdjustment,
		ActorUserID:   actorUserID,
		ActorRole:     actorRole,
		TransactionID: transactionID,
		Message:       reason,
		Metadata:      `{"amount":` + strconv.FormatInt(amount, 10) + `}`,
	})
}

// LogCampaignTransition records a campaign status change.
func (s *Service) LogCampaignTransition(ctx context.Context, orgID, actorUserID, campaignID, from, to string) error {
	return s.Append(ctx, Event{
		OrgID:       orgID,
		Type:        EventTypeCampaignTransition,
		ActorUserID: actorUserID,
		CampaignID:  campaignID,
		Message:     from + " -> " + to,
	})
}
