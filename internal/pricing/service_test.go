package pricing

import (
	"context"
	"errors"
	"testing"
)

type staticBalance int64

func (b staticBalance) Balance(ctx context.Context, orgID string) (int64, error) {
	return int64(b), nil
}

func testRates() RateTable {
	return RateTable{Rates: map[Category]int64{
		CategoryText:     1,
		CategoryVoice:    3,
		CategorySurvey:   5,
		CategoryCombined: 8,
	}}
}

func TestRateTable_ValidateEnforcesTierOrdering(t *testing.T) {
	if err := testRates().Validate(); err != nil {
		t.Fatalf("expected valid table, got %v", err)
	}

	broken := RateTable{Rates: map[Category]int64{
		CategoryText:     3,
		CategoryVoice:    3, // not strictly greater
		CategorySurvey:   5,
		CategoryCombined: 8,
	}}
	if err := broken.Validate(); !errors.Is(err, ErrInvalidRateTable) {
		t.Fatalf("expected ErrInvalidRateTable, got %v", err)
	}

	missing := RateTable{Rates: map[Category]int64{CategoryText: 1}}
	if err := missing.Validate(); !errors.Is(err, ErrInvalidRateTable) {
		t.Fatalf("expected ErrInvalidRateTable for missing tiers, got %v", err)
	}
}

func TestParseRates(t *testing.T) {
	rt, err := ParseRates([]byte("rates:\n  text: 1\n  voice: 3\n  survey: 5\n  combined: 8\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r, _ := rt.Rate(CategorySurvey); r != 5 {
		t.Fatalf("expected survey rate 5, got %d", r)
	}

	if _, err := ParseRates([]byte("rates:\n  text: 9\n  voice: 3\n  survey: 5\n  combined: 8\n")); err == nil {
		t.Fatalf("expected ordering violation to be rejected")
	}
}

func TestService_Estimate(t *testing.T) {
	svc := NewService(testRates(), staticBalance(500))

	est, err := svc.Estimate(context.Background(), EstimateRequest{OrgID: "org", Category: CategoryText, ContactCount: 100})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.CostPerInteraction != 1 || est.EstimatedTotalCost != 100 {
		t.Fatalf("unexpected estimate: %+v", est)
	}
	if est.CurrentBalance != 500 || !est.SufficientCredits {
		t.Fatalf("expected sufficient credits at balance 500: %+v", est)
	}

	est, err = svc.Estimate(context.Background(), EstimateRequest{OrgID: "org", Category: CategoryCombined, ContactCount: 100})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.EstimatedTotalCost != 800 || est.SufficientCredits {
		t.Fatalf("expected insufficient credits for 800 > 500: %+v", est)
	}
}

func TestService_EstimateRejectsInvalidRequests(t *testing.T) {
	svc := NewService(testRates(), staticBalance(0))

	if _, err := svc.Estimate(context.Background(), EstimateRequest{Category: CategoryText, ContactCount: 1}); !errors.Is(err, ErrInvalidEstimateReq) {
		t.Fatalf("expected ErrInvalidEstimateReq for missing org, got %v", err)
	}
	if _, err := svc.Estimate(context.Background(), EstimateRequest{OrgID: "o", Category: Category("fax"), ContactCount: 1}); !errors.Is(err, ErrInvalidEstimateReq) {
		t.Fatalf("expected ErrInvalidEstimateReq for unknown category, got %v", err)
	}
	if _, err := svc.Estimate(context.Background(), EstimateRequest{OrgID: "o", Category: CategoryText, ContactCount: -1}); !errors.Is(err, ErrInvalidEstimateReq) {
		t.Fatalf("expected ErrInvalidEstimateReq for negative contacts, got %v", err)
	}
}
