package analytics

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"campaign-platform/internal/ledger"
)

var ErrInvalidScope = errors.New("analytics: invalid scope")

// Scope selects either one campaign or a whole org. CampaignID takes
// precedence when both are set; OrgID is always required (tenancy).
type Scope struct {
	OrgID      string `json:"org_id"`
	CampaignID string `json:"campaign_id,omitempty"`
}

func (s Scope) validate() error {
	if s.OrgID == "" {
		return ErrInvalidScope
	}
	return nil
}

func (s Scope) key() string {
	if s.CampaignID != "" {
		return "campaign:" + s.OrgID + ":" + s.CampaignID
	}
	return "org:" + s.OrgID
}

// Filters narrow a snapshot. Zero values mean "no filter".
type Filters struct {
	From    time.Time         `json:"from,omitempty"`
	To      time.Time         `json:"to,omitempty"`
	Carrier string            `json:"carrier,omitempty"`
	Status  InteractionStatus `json:"status,omitempty"`
}

// Hash is a stable cache-key component for the filter set.
func (f Filters) Hash() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%s|%s", f.From.UnixNano(), f.To.UnixNano(), f.Carrier, f.Status)
	return fmt.Sprintf("%016x", h.Sum64())
}

func (f Filters) match(in Interaction) bool {
	if !f.From.IsZero() && in.StartedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !in.StartedAt.Before(f.To) {
		return false
	}
	if f.Carrier != "" && in.Carrier != f.Carrier {
		return false
	}
	if f.Status != "" && in.Status != f.Status {
		return false
	}
	return true
}

type CarrierStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Fail    int `json:"fail"`

	// PickupPct = Success / Total, in [0,1]. 0 when Total is 0.
	PickupPct float64 `json:"pickup_pct"`
}

// Snapshot is a derived, recomputable aggregate over interactions. It is a
// cache, never authoritative: it may be dropped and rebuilt from the
// interaction store at any time.
type Snapshot struct {
	Scope       Scope     `json:"scope"`
	GeneratedAt time.Time `json:"generated_at"`

	Total        int                       `json:"total"`
	StatusCounts map[InteractionStatus]int `json:"status_counts"`

	Carriers map[string]CarrierStats `json:"carriers"`

	// Hourly buckets StartedAt by hour of day (UTC); Daily by calendar day.
	Hourly [24]int        `json:"hourly"`
	Daily  map[string]int `json:"daily"`

	// PlaybackBuckets are the four fixed playback ranges 0-25, 26-50, 51-75,
	// 76-100; PlaybackTotal counts interactions with a non-nil percentage.
	PlaybackBuckets [4]int `json:"playback_buckets"`
	PlaybackTotal   int    `json:"playback_total"`

	TotalDurationSeconds int `json:"total_duration_seconds"`

	AvgSentiment *float64       `json:"avg_sentiment,omitempty"`
	IntentCounts map[string]int `json:"intent_counts"`

	// Cost component sums from ingested interactions.
	CostTotals CostBreakdown `json:"cost_totals"`

	// CreditsConsumed is real ledger consumption: for a campaign scope the
	// net consume attributed to the campaign id, for an org scope the net
	// consume across the filter window. ConsumedByDay breaks the org-scope
	// figure down per calendar day.
	CreditsConsumed int64            `json:"credits_consumed"`
	ConsumedByDay   map[string]int64 `json:"consumed_by_day,omitempty"`
}

// ConsumptionReader is the ledger view snapshots need for cost attribution.
// ledger.Store satisfies it.
type ConsumptionReader interface {
	ConsumedByReference(ctx context.Context, orgID, referenceID string) (int64, error)
	List(ctx context.Context, orgID string, from, to time.Time) ([]ledger.CreditTransaction, error)
}

// Service is the event aggregator. Ingestion is idempotent by interaction id
// and tolerates out-of-order and duplicate delivery; snapshots are pure folds
// over the immutable interaction store and are always well-formed, even for a
// brand-new campaign with no data.
type Service struct {
	store InteractionStore
	spend ConsumptionReader
	cache SnapshotCache
	ttl   time.Duration
	clock func() time.Time
}

func NewService(store InteractionStore) *Service {
	return &Service{store: store, clock: time.Now}
}

// WithConsumptionReader enables credits-consumed fields on snapshots.
func (s *Service) WithConsumptionReader(r ConsumptionReader) *Service {
	s.spend = r
	return s
}

// WithCache memoizes snapshots under (scope, filter-hash) for ttl. The cache
// is invalidation-free: entries simply expire and are recomputed.
func (s *Service) WithCache(c SnapshotCache, ttl time.Duration) *Service {
	s.cache = c
	s.ttl = ttl
	return s
}

// Ingest records one terminal interaction. Re-ingesting an id already stored
// is a silent no-op, never a double count and never an error.
func (s *Service) Ingest(ctx context.Context, in Interaction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	_, err := s.store.Put(ctx, in)
	return err
}

func (s *Service) Snapshot(ctx context.Context, scope Scope, f Filters) (Snapshot, error) {
	if err := scope.validate(); err != nil {
		return Snapshot{}, err
	}

	cacheKey := scope.key() + ":" + f.Hash()
	if s.cache != nil {
		if snap, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			return snap, nil
		}
		// cache errors fall through to recompute; the cache is never
		// authoritative
	}

	snap, err := s.compute(ctx, scope, f)
	if err != nil {
		return Snapshot{}, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, snap, s.ttl)
	}
	return snap, nil
}

func (s *Service) compute(ctx context.Context, scope Scope, f Filters) (Snapshot, error) {
	var (
		rows []Interaction
		err  error
	)
	if scope.CampaignID != "" {
		rows, err = s.store.ListByCampaign(ctx, scope.OrgID, scope.CampaignID)
	} else {
		rows, err = s.store.ListByOrg(ctx, scope.OrgID)
	}
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Scope:        scope,
		GeneratedAt:  s.clock().UTC(),
		StatusCounts: map[InteractionStatus]int{},
		Carriers:     map[string]CarrierStats{},
		Daily:        map[string]int{},
		IntentCounts: map[string]int{},
	}

	var sentimentSum float64
	var sentimentN int

	for _, in := range rows {
		if !f.match(in) {
			continue
		}
		snap.Total++
		snap.StatusCounts[in.Status]++
		snap.TotalDurationSeconds += in.DurationSeconds

		if in.Carrier != "" {
			cs := snap.Carriers[in.Carrier]
			cs.Total++
			if in.Status == StatusCompleted {
				cs.Success++
			} else {
				cs.Fail++
			}
			snap.Carriers[in.Carrier] = cs
		}

		ts := in.StartedAt.UTC()
		snap.Hourly[ts.Hour()]++
		snap.Daily[ts.Format("2006-01-02")]++

		if in.PlaybackPercentage != nil {
			snap.PlaybackBuckets[playbackBucket(*in.PlaybackPercentage)]++
			snap.PlaybackTotal++
		}
		if in.SentimentScore != nil {
			sentimentSum += *in.SentimentScore
			sentimentN++
		}
		if in.DetectedIntent != nil && *in.DetectedIntent != "" {
			snap.IntentCounts[*in.DetectedIntent]++
		}
		snap.CostTotals = snap.CostTotals.add(in.Cost)
	}

	for carrier, cs := range snap.Carriers {
		if cs.Total > 0 {
			cs.PickupPct = float64(cs.Success) / float64(cs.Total)
		}
		snap.Carriers[carrier] = cs
	}
	if sentimentN > 0 {
		avg := sentimentSum / float64(sentimentN)
		snap.AvgSentiment = &avg
	}

	if s.spend != nil {
		if err := s.attachConsumption(ctx, scope, f, &snap); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

func (s *Service) attachConsumption(ctx context.Context, scope Scope, f Filters, snap *Snapshot) error {
	if scope.CampaignID != "" {
		consumed, err := s.spend.ConsumedByReference(ctx, scope.OrgID, scope.CampaignID)
		if err != nil {
			return err
		}
		snap.CreditsConsumed = consumed
		return nil
	}

	from, to := f.From, f.To
	if from.IsZero() {
		from = time.Unix(0, 0).UTC()
	}
	if to.IsZero() {
		to = s.clock().UTC().Add(time.Second)
	}
	txs, err := s.spend.List(ctx, scope.OrgID, from, to)
	if err != nil {
		return err
	}
	byDay := map[string]int64{}
	var total int64
	for _, tx := range txs {
		var delta int64
		switch tx.Kind {
		case ledger.KindConsume:
			delta = tx.Amount
		case ledger.KindRefund:
			delta = -tx.Amount
		default:
			continue
		}
		total += delta
		byDay[tx.CreatedAt.UTC().Format("2006-01-02")] += delta
	}
	if total < 0 {
		total = 0
	}
	snap.CreditsConsumed = total
	snap.ConsumedByDay = byDay
	return nil
}
