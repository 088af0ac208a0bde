package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"campaign-platform/internal/ledger"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func baseInteraction(id string) Interaction {
	return Interaction{
		ID:              id,
		OrgID:           "org",
		CampaignID:      "camp",
		ContactID:       "contact-" + id,
		Carrier:         "acme-tel",
		Status:          StatusCompleted,
		DurationSeconds: 30,
		StartedAt:       time.Date(2026, 8, 1, 14, 30, 0, 0, time.UTC),
	}
}

func TestService_IngestValidates(t *testing.T) {
	svc := NewService(NewMemoryInteractionStore())
	ctx := context.Background()

	in := baseInteraction("i1")
	in.OrgID = ""
	if err := svc.Ingest(ctx, in); !errors.Is(err, ErrInvalidInteraction) {
		t.Fatalf("expected ErrInvalidInteraction, got %v", err)
	}

	in = baseInteraction("i2")
	in.Status = InteractionStatus("ghosted")
	if err := svc.Ingest(ctx, in); !errors.Is(err, ErrInvalidInteraction) {
		t.Fatalf("expected ErrInvalidInteraction for bad status, got %v", err)
	}

	in = baseInteraction("i3")
	in.PlaybackPercentage = intPtr(120)
	if err := svc.Ingest(ctx, in); !errors.Is(err, ErrInvalidInteraction) {
		t.Fatalf("expected ErrInvalidInteraction for playback > 100, got %v", err)
	}
}

func TestService_IngestIsIdempotent(t *testing.T) {
	svc := NewService(NewMemoryInteractionStore())
	ctx := context.Background()

	in := baseInteraction("i1")
	if err := svc.Ingest(ctx, in); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	// Re-ingesting the same terminal interaction must be a silent no-op.
	if err := svc.Ingest(ctx, in); err != nil {
		t.Fatalf("duplicate ingest: %v", err)
	}

	snap, err := svc.Snapshot(ctx, Scope{OrgID: "org", CampaignID: "camp"}, Filters{})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Total != 1 {
		t.Fatalf("expected total 1 after duplicate ingest, got %d", snap.Total)
	}
}

func TestService_SnapshotStatusAndCarrierBreakdown(t *testing.T) {
	svc := NewService(NewMemoryInteractionStore())
	ctx := context.Background()

	rows := []Interaction{baseInteraction("a"), baseInteraction("b"), baseInteraction("c"), baseInteraction("d")}
	rows[1].Status = StatusUnanswered
	rows[2].Status = StatusFailed
	rows[3].Carrier = "other-tel"
	for _, in := range rows {
		if err := svc.Ingest(ctx, in); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	snap, err := svc.Snapshot(ctx, Scope{OrgID: "org", CampaignID: "camp"}, Filters{})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Total != 4 {
		t.Fatalf("expected 4, got %d", snap.Total)
	}
	if snap.StatusCounts[StatusCompleted] != 2 || snap.StatusCounts[StatusUnanswered] != 1 || snap.StatusCounts[StatusFailed] != 1 {
		t.Fatalf("unexpected status counts: %+v", snap.StatusCounts)
	}

	acme := snap.Carriers["acme-tel"]
	if acme.Total != 3 || acme.Success != 1 || acme.Fail != 2 {
		t.Fatalf("unexpected acme stats: %+v", acme)
	}
	if acme.PickupPct < 0 || acme.PickupPct > 1 {
		t.Fatalf("pickup_pct out of [0,1]: %v", acme.PickupPct)
	}
	if want := 1.0 / 3.0; acme.PickupPct != want {
		t.Fatalf("expected pickup %v, got %v", want, acme.PickupPct)
	}
}

func TestService_SnapshotEmptyIsWellFormed(t *testing.T) {
	svc := NewService(NewMemoryInteractionStore())

	snap, err := svc.Snapshot(context.Background(), Scope{OrgID: "org", CampaignID: "new-camp"}, Filters{})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Total != 0 || len(snap.Carriers) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	// no carrier entry means no pickup_pct to check, but the snapshot itself
	// must never fault on zero counts
}

func TestPlaybackBuckets(t *testing.T) {
	cases := []struct {
		pct    int
		bucket int
	}{
		{0, 0}, {1, 0}, {25, 0},
		{26, 1}, {50, 1},
		{51, 2}, {75, 2},
		{76, 3}, {99, 3}, {100, 3},
	}
	for _, c := range cases {
		if got := playbackBucket(c.pct); got != c.bucket {
			t.Fatalf("pct %d: expected bucket %d, got %d", c.pct, c.bucket, got)
		}
	}
}

func TestService_SnapshotPlaybackBucketsSumToScored(t *testing.T) {
	svc := NewService(NewMemoryInteractionStore())
	ctx := context.Background()

	pcts := []int{0, 25, 26, 50, 75, 76, 100}
	for i, p := range pcts {
		in := baseInteraction(string(rune('a' + i)))
		in.PlaybackPercentage = intPtr(p)
		if err := svc.Ingest(ctx, in); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
	// one interaction without playback
	if err := svc.Ingest(ctx, baseInteraction("z")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	snap, err := svc.Snapshot(ctx, Scope{OrgID: "org", CampaignID: "camp"}, Filters{})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	sum := 0
	for _, n := range snap.PlaybackBuckets {
		sum += n
	}
	if sum != len(pcts) || snap.PlaybackTotal != len(pcts) {
		t.Fatalf("bucket sum %d and playback total %d must equal scored count %d", sum, snap.PlaybackTotal, len(pcts))
	}
	if snap.PlaybackBuckets[0] != 2 { // 0 and 25
		t.Fatalf("expected 25 in the first bucket: %+v", snap.PlaybackBuckets)
	}
	if snap.PlaybackBuckets[3] != 2 { // 76 and 100
		t.Fatalf("expected 100 in the top bucket: %+v", snap.PlaybackBuckets)
	}
}

func TestService_SnapshotBucketsByInteractionTime(t *testing.T) {
	svc := NewService(NewMemoryInteractionStore())
	ctx := context.Background()

	early := baseInteraction("early")
	early.StartedAt = time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	late := baseInteraction("late")
	late.StartedAt = time.Date(2026, 7, 31, 22, 0, 0, 0, time.UTC)

	// Ingest in reverse order: a late-arriving event still lands in its own
	// historical bucket.
	for _, in := range []Interaction{late, early} {
		if err := svc.Ingest(ctx, in); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	snap, err := svc.Snapshot(ctx, Scope{OrgID: "org", CampaignID: "camp"}, Filters{})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Hourly[9] != 1 || snap.Hourly[22] != 1 {
		t.Fatalf("unexpected hourly: %v", snap.Hourly)
	}
	if snap.Daily["2026-07-30"] != 1 || snap.Daily["2026-07-31"] != 1 {
		t.Fatalf("unexpected daily: %v", snap.Daily)
	}
}

func TestService_SnapshotFilters(t *testing.T) {
	svc := NewService(NewMemoryInteractionStore())
	ctx := context.Background()

	a := baseInteraction("a")
	b := baseInteraction("b")
	b.Carrier = "other-tel"
	b.StartedAt = a.StartedAt.Add(48 * time.Hour)
	for _, in := range []Interaction{a, b} {
		if err := svc.Ingest(ctx, in); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	snap, err := svc.Snapshot(ctx, Scope{OrgID: "org", CampaignID: "camp"}, Filters{Carrier: "other-tel"})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Total != 1 {
		t.Fatalf("expected carrier filter to keep 1, got %d", snap.Total)
	}

	snap, err = svc.Snapshot(ctx, Scope{OrgID: "org", CampaignID: "camp"}, Filters{To: a.StartedAt.Add(time.Hour)})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Total != 1 {
		t.Fatalf("expected time filter to keep 1, got %d", snap.Total)
	}
}

func TestService_SnapshotCreditsConsumed(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	mustLedgerAppend(t, store, ledger.Draft{OrgID: "org", Amount: 500, Kind: ledger.KindPurchase})
	mustLedgerAppend(t, store, ledger.Draft{OrgID: "org", Amount: 120, Kind: ledger.KindConsume, ReferenceID: "camp"})
	mustLedgerAppend(t, store, ledger.Draft{OrgID: "org", Amount: 20, Kind: ledger.KindRefund, ReferenceID: "camp"})
	mustLedgerAppend(t, store, ledger.Draft{OrgID: "org", Amount: 30, Kind: ledger.KindConsume, ReferenceID: "other"})

	svc := NewService(NewMemoryInteractionStore()).WithConsumptionReader(store)

	snap, err := svc.Snapshot(ctx, Scope{OrgID: "org", CampaignID: "camp"}, Filters{})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.CreditsConsumed != 100 {
		t.Fatalf("expected campaign consumption 120-20=100, got %d", snap.CreditsConsumed)
	}

	orgSnap, err := svc.Snapshot(ctx, Scope{OrgID: "org"}, Filters{})
	if err != nil {
		t.Fatalf("org snapshot: %v", err)
	}
	if orgSnap.CreditsConsumed != 130 {
		t.Fatalf("expected org consumption 130, got %d", orgSnap.CreditsConsumed)
	}
}

func TestService_SnapshotCostTotalsAndSentiment(t *testing.T) {
	svc := NewService(NewMemoryInteractionStore())
	ctx := context.Background()

	a := baseInteraction("a")
	a.Cost = CostBreakdown{TTS: 2, Telephony: 5, Gemini: 1}
	a.SentimentScore = floatPtr(0.5)
	a.DetectedIntent = strPtr("callback")
	b := baseInteraction("b")
	b.Cost = CostBreakdown{TTS: 1, Telephony: 3, Gemini: 2}
	b.SentimentScore = floatPtr(-0.5)
	for _, in := range []Interaction{a, b} {
		if err := svc.Ingest(ctx, in); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	snap, err := svc.Snapshot(ctx, Scope{OrgID: "org", CampaignID: "camp"}, Filters{})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.CostTotals != (CostBreakdown{TTS: 3, Telephony: 8, Gemini: 3}) {
		t.Fatalf("unexpected cost totals: %+v", snap.CostTotals)
	}
	if snap.AvgSentiment == nil || *snap.AvgSentiment != 0 {
		t.Fatalf("expected avg sentiment 0, got %v", snap.AvgSentiment)
	}
	if snap.IntentCounts["callback"] != 1 {
		t.Fatalf("unexpected intents: %v", snap.IntentCounts)
	}
}

func TestFilters_HashStable(t *testing.T) {
	f := Filters{Carrier: "acme-tel", Status: StatusCompleted}
	if f.Hash() != f.Hash() {
		t.Fatalf("hash must be deterministic")
	}
	if f.Hash() == (Filters{}).Hash() {
		t.Fatalf("different filters must hash differently")
	}
}

func TestDecodeInteractionEvent(t *testing.T) {
	raw := []byte(`{"id":"i1","org_id":"org","campaign_id":"camp","contact_id":"c1","carrier":"acme-tel","status":"completed","duration_seconds":42,"playback_percentage":80,"tts_cost":2,"telephony_cost":4,"gemini_cost":1,"started_at":"2026-08-01T14:30:00Z"}`)
	in, err := decodeInteractionEvent(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("decoded event must validate: %v", err)
	}
	if in.Status != StatusCompleted || *in.PlaybackPercentage != 80 || in.Cost.Telephony != 4 {
		t.Fatalf("unexpected interaction: %+v", in)
	}
}

func mustLedgerAppend(t *testing.T, s ledger.Store, d ledger.Draft) {
	t.Helper()
	if _, err := s.Append(context.Background(), d); err != nil {
		t.Fatalf("ledger append: %v", err)
	}
}
