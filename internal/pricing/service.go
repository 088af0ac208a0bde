package pricing

import (
	"context"
	"errors"
)

// Service estimates campaign costs against the org's current credit balance.
//
// Contract:
// - Pure read: never debits, never writes.
// - Rates come from the configured RateTable (external policy).
// - sufficient_credits = current_balance >= estimated_total_cost.
type Service struct {
	rates    RateTable
	balances BalanceReader
}

// BalanceReader is the minimal ledger view this service needs.
type BalanceReader interface {
	Balance(ctx context.Context, orgID string) (int64, error)
}

func NewService(rates RateTable, balances BalanceReader) *Service {
	return &Service{rates: rates, balances: balances}
}

type EstimateRequest struct {
	OrgID        string   `json:"org_id"`
	Category     Category `json:"category"`
	ContactCount int      `json:"contact_count"`
}

type Estimate struct {
	OrgID        string   `json:"org_id"`
	Category     Category `json:"category"`
	ContactCount int      `json:"contact_count"`

	CostPerInteraction int64 `json:"cost_per_interaction"`
	EstimatedTotalCost int64 `json:"estimated_total_cost"`
	CurrentBalance     int64 `json:"current_balance"`
	SufficientCredits  bool  `json:"sufficient_credits"`
}

var (
	ErrInvalidEstimateReq = errors.New("pricing: invalid estimate request")
	ErrRateNotFound       = errors.New("pricing: rate not found")
)

func (s *Service) Estimate(ctx context.Context, req EstimateRequest) (Estimate, error) {
	if req.OrgID == "" || !req.Category.Valid() {
		return Estimate{}, ErrInvalidEstimateReq
	}
	if req.ContactCount < 0 {
		return Estimate{}, ErrInvalidEstimateReq
	}

	rate, ok := s.rates.Rate(req.Category)
	if !ok {
		return Estimate{}, ErrRateNotFound
	}

	bal, err := s.balances.Balance(ctx, req.OrgID)
	if err != nil {
		return Estimate{}, err
	}

	total := rate * int64(req.ContactCount)
	return Estimate{
		OrgID:              req.OrgID,
		Category:           req.Category,
		ContactCount:       req.ContactCount,
		CostPerInteraction: rate,
		EstimatedTotalCost: total,
		CurrentBalance:     bal,
		SufficientCredits:  bal >= total,
	}, nil
}
