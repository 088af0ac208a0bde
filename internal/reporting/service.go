package reporting

import (
	"context"
	"errors"

	"campaign-platform/internal/analytics"
)

var (
	ErrInvalidRequest = errors.New("reporting: invalid request")
	ErrNotFound       = errors.New("reporting: not found")
)

// SnapshotSource is the aggregator surface reporting reads from.
// analytics.Service satisfies it.
type SnapshotSource interface {
	Snapshot(ctx context.Context, scope analytics.Scope, f analytics.Filters) (analytics.Snapshot, error)
}

// ConsumptionSource is the ledger view used for real cost attribution.
// ledger.Store satisfies it.
type ConsumptionSource interface {
	ConsumedByReference(ctx context.Context, orgID, referenceID string) (int64, error)
}

// Repository resolves A/B test definitions.
type Repository interface {
	GetABTest(ctx context.Context, orgID, id string) (ABTest, bool, error)
}

// Service derives ROI and A/B comparisons. It is read-only over the
// aggregator and the ledger and never faults on missing or zero-count data:
// every ratio has an explicit nil policy.
type Service struct {
	snapshots SnapshotSource
	spend     ConsumptionSource
	repo      Repository
}

func NewService(snapshots SnapshotSource, spend ConsumptionSource, repo Repository) *Service {
	return &Service{snapshots: snapshots, spend: spend, repo: repo}
}

func (s *Service) ROI(ctx context.Context, orgID, campaignID string) (CampaignROI, error) {
	if orgID == "" || campaignID == "" {
		return CampaignROI{}, ErrInvalidRequest
	}

	snap, err := s.snapshots.Snapshot(ctx, analytics.Scope{OrgID: orgID, CampaignID: campaignID}, analytics.Filters{})
	if err != nil {
		return CampaignROI{}, err
	}
	consumed, err := s.spend.ConsumedByReference(ctx, orgID, campaignID)
	if err != nil {
		return CampaignROI{}, err
	}

	out := CampaignROI{
		CampaignID:        campaignID,
		OrgID:             orgID,
		TotalInteractions: snap.Total,
		Completed:         snap.StatusCounts[analytics.StatusCompleted],
		TotalCost:         consumed,
		TTSCost:           snap.CostTotals.TTS,
		TelephonyCost:     snap.CostTotals.Telephony,
		GeminiCost:        snap.CostTotals.Gemini,
	}
	if out.TotalInteractions > 0 {
		rate := float64(out.Completed) / float64(out.TotalInteractions)
		out.ConversionRate = &rate
	}
	if out.Completed > 0 {
		cpc := float64(out.TotalCost) / float64(out.Completed)
		out.CostPerConversion = &cpc
	}
	return out, nil
}

func (s *Service) ABTestResult(ctx context.Context, orgID, testID string) (ABTestResult, error) {
	if orgID == "" || testID == "" {
		return ABTestResult{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return ABTestResult{}, errors.New("reporting: repository not configured")
	}

	test, ok, err := s.repo.GetABTest(ctx, orgID, testID)
	if err != nil {
		return ABTestResult{}, err
	}
	if !ok {
		return ABTestResult{}, ErrNotFound
	}

	out := ABTestResult{TestID: test.ID, Name: test.Name}
	for _, v := range test.Variants {
		snap, err := s.snapshots.Snapshot(ctx, analytics.Scope{OrgID: orgID, CampaignID: v.CampaignID}, analytics.Filters{})
		if err != nil {
			return ABTestResult{}, err
		}
		cost, err := s.spend.ConsumedByReference(ctx, orgID, v.CampaignID)
		if err != nil {
			return ABTestResult{}, err
		}

		vr := VariantResult{
			Name:       v.Name,
			CampaignID: v.CampaignID,
			Total:      snap.Total,
			Completed:  snap.StatusCounts[analytics.StatusCompleted],
			TotalCost:  cost,
		}
		if vr.Total > 0 {
			rate := float64(vr.Completed) / float64(vr.Total)
			vr.ConversionRate = &rate
		}
		out.Variants = append(out.Variants, vr)
	}

	applySignificance(&out)
	return out, nil
}
