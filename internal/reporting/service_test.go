package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"campaign-platform/internal/analytics"
	"campaign-platform/internal/ledger"
)

func newFixture(t *testing.T) (*Service, *analytics.Service, *ledger.MemoryStore, *MemoryRepo) {
	t.Helper()
	store := ledger.NewMemoryStore()
	agg := analytics.NewService(analytics.NewMemoryInteractionStore())
	repo := NewMemoryRepo()
	svc := NewService(agg, store, repo)
	return svc, agg, store, repo
}

func ingestBatch(t *testing.T, agg *analytics.Service, campaignID string, completed, other int) {
	t.Helper()
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < completed+other; i++ {
		status := analytics.StatusCompleted
		if i >= completed {
			status = analytics.StatusUnanswered
		}
		in := analytics.Interaction{
			ID:         campaignID + "-" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+(i/676)%26)),
			OrgID:      "org",
			CampaignID: campaignID,
			ContactID:  "c",
			Carrier:    "acme-tel",
			Status:     status,
			Cost:       analytics.CostBreakdown{TTS: 1, Telephony: 2, Gemini: 0},
			StartedAt:  started.Add(time.Duration(i) * time.Minute),
		}
		if err := agg.Ingest(context.Background(), in); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
}

func TestService_ROICombinesLedgerAndAggregator(t *testing.T) {
	svc, agg, store, _ := newFixture(t)
	ctx := context.Background()

	ingestBatch(t, agg, "camp", 3, 2)
	if _, err := store.Append(ctx, ledger.Draft{OrgID: "org", Amount: 50, Kind: ledger.KindConsume, ReferenceID: "camp"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	roi, err := svc.ROI(ctx, "org", "camp")
	if err != nil {
		t.Fatalf("roi: %v", err)
	}
	if roi.TotalInteractions != 5 || roi.Completed != 3 {
		t.Fatalf("unexpected counts: %+v", roi)
	}
	if roi.TotalCost != 50 {
		t.Fatalf("total cost must come from the ledger, got %d", roi.TotalCost)
	}
	if roi.TTSCost != 5 || roi.TelephonyCost != 10 {
		t.Fatalf("unexpected component costs: %+v", roi)
	}
	if roi.ConversionRate == nil || *roi.ConversionRate != 0.6 {
		t.Fatalf("expected conversion rate 0.6, got %v", roi.ConversionRate)
	}
	if roi.CostPerConversion == nil || *roi.CostPerConversion != 50.0/3.0 {
		t.Fatalf("unexpected cost per conversion: %v", roi.CostPerConversion)
	}
}

func TestService_ROINilRatiosOnZeroDenominators(t *testing.T) {
	svc, agg, _, _ := newFixture(t)
	ctx := context.Background()

	// Brand-new campaign: no interactions at all.
	roi, err := svc.ROI(ctx, "org", "empty-camp")
	if err != nil {
		t.Fatalf("roi: %v", err)
	}
	if roi.ConversionRate != nil || roi.CostPerConversion != nil {
		t.Fatalf("expected nil ratios for empty campaign: %+v", roi)
	}

	// Interactions but zero conversions.
	ingestBatch(t, agg, "cold-camp", 0, 4)
	roi, err = svc.ROI(ctx, "org", "cold-camp")
	if err != nil {
		t.Fatalf("roi: %v", err)
	}
	if roi.ConversionRate == nil || *roi.ConversionRate != 0 {
		t.Fatalf("expected conversion rate 0, got %v", roi.ConversionRate)
	}
	if roi.CostPerConversion != nil {
		t.Fatalf("expected nil cost per conversion with zero completions")
	}
}

func TestService_ABTestEqualVariantsNotSignificant(t *testing.T) {
	svc, agg, _, repo := newFixture(t)
	ctx := context.Background()

	// Two variants, equal conversion rate and sample size.
	ingestBatch(t, agg, "camp-a", 30, 70)
	ingestBatch(t, agg, "camp-b", 30, 70)
	repo.Put(ABTest{ID: "ab1", OrgID: "org", Name: "greeting", Status: ABTestStatusRunning, Variants: []Variant{
		{Name: "A", CampaignID: "camp-a"},
		{Name: "B", CampaignID: "camp-b"},
	}})

	res, err := svc.ABTestResult(ctx, "org", "ab1")
	if err != nil {
		t.Fatalf("abtest: %v", err)
	}
	if res.ChiSquared == nil || res.PValue == nil {
		t.Fatalf("expected statistic for two populated variants")
	}
	if *res.ChiSquared > 1e-9 {
		t.Fatalf("expected chi-squared ~0, got %v", *res.ChiSquared)
	}
	if *res.PValue < 0.999 {
		t.Fatalf("expected p ~1, got %v", *res.PValue)
	}
	if res.IsSignificant || res.Winner != nil {
		t.Fatalf("equal variants must not be significant: %+v", res)
	}
}

func TestService_ABTestClearWinner(t *testing.T) {
	svc, agg, _, repo := newFixture(t)
	ctx := context.Background()

	ingestBatch(t, agg, "camp-a", 80, 20)
	ingestBatch(t, agg, "camp-b", 20, 80)
	repo.Put(ABTest{ID: "ab2", OrgID: "org", Name: "script", Status: ABTestStatusRunning, Variants: []Variant{
		{Name: "A", CampaignID: "camp-a"},
		{Name: "B", CampaignID: "camp-b"},
	}})

	res, err := svc.ABTestResult(ctx, "org", "ab2")
	if err != nil {
		t.Fatalf("abtest: %v", err)
	}
	if res.PValue == nil || *res.PValue >= 0.05 {
		t.Fatalf("expected significant p-value, got %v", res.PValue)
	}
	if !res.IsSignificant {
		t.Fatalf("expected significance")
	}
	if res.Winner == nil || *res.Winner != "A" {
		t.Fatalf("expected winner A, got %v", res.Winner)
	}
}

func TestService_ABTestFewerThanTwoPopulatedVariants(t *testing.T) {
	svc, agg, _, repo := newFixture(t)
	ctx := context.Background()

	// Only one variant has any interactions.
	ingestBatch(t, agg, "camp-a", 10, 10)
	repo.Put(ABTest{ID: "ab3", OrgID: "org", Name: "lonely", Status: ABTestStatusRunning, Variants: []Variant{
		{Name: "A", CampaignID: "camp-a"},
		{Name: "B", CampaignID: "camp-empty"},
	}})

	res, err := svc.ABTestResult(ctx, "org", "ab3")
	if err != nil {
		t.Fatalf("abtest: %v", err)
	}
	if res.ChiSquared != nil || res.PValue != nil {
		t.Fatalf("expected nil statistics, got %+v", res)
	}
	if res.IsSignificant || res.Winner != nil {
		t.Fatalf("expected not significant with no winner")
	}
}

func TestService_ABTestNotFound(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	if _, err := svc.ABTestResult(context.Background(), "org", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ABTestOrgIsolation(t *testing.T) {
	svc, _, _, repo := newFixture(t)
	repo.Put(ABTest{ID: "ab4", OrgID: "other", Name: "x", Variants: nil})
	if _, err := svc.ABTestResult(context.Background(), "org", "ab4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across orgs, got %v", err)
	}
}

func TestPickWinner_TieYieldsNil(t *testing.T) {
	half := 0.5
	quarter := 0.25
	vs := []VariantResult{
		{Name: "A", ConversionRate: &half},
		{Name: "B", ConversionRate: &half},
		{Name: "C", ConversionRate: &quarter},
	}
	if w := pickWinner(vs); w != nil {
		t.Fatalf("expected nil winner on tie, got %v", *w)
	}
	vs[0].ConversionRate = &quarter
	if w := pickWinner(vs); w == nil || *w != "B" {
		t.Fatalf("expected B to win")
	}
}
