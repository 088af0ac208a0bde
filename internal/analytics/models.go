package analytics

import (
	"errors"
	"fmt"
	"time"
)

// Interaction is one terminal contact attempt (call or message) within a
// campaign. Records are immutable once the terminal status is written; the
// ingestion pipeline owns their creation, this package only reads and folds
// them.
//
// Multi-tenant invariant: OrgID is required on every row.
type Interaction struct {
	ID         string `json:"id" db:"id"`
	OrgID      string `json:"org_id" db:"org_id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	ContactID  string `json:"contact_id" db:"contact_id"`

	Carrier string `json:"carrier,omitempty" db:"carrier"`

	Status InteractionStatus `json:"status" db:"status"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// PlaybackPercentage is how much of the message the contact heard,
	// 0..100. Nil for interactions with no playback (e.g. unanswered).
	PlaybackPercentage *int `json:"playback_percentage,omitempty" db:"playback_percentage"`

	// SentimentScore in [-1, 1] and DetectedIntent are supplied by an
	// external classifier; this core only aggregates the labels.
	SentimentScore *float64 `json:"sentiment_score,omitempty" db:"sentiment_score"`
	DetectedIntent *string  `json:"detected_intent,omitempty" db:"detected_intent"`

	// Cost components attributed to this interaction by the ingestion
	// source. The authoritative campaign total lives in the credit ledger;
	// these only explain its decomposition.
	Cost CostBreakdown `json:"cost" db:"cost"`

	// StartedAt is the interaction's own timestamp. Time-bucketed analytics
	// always use it, never ingestion time, so late-arriving events land in
	// the correct historical bucket.
	StartedAt time.Time `json:"started_at" db:"started_at"`
}

type InteractionStatus string

const (
	StatusCompleted  InteractionStatus = "completed"
	StatusUnanswered InteractionStatus = "unanswered"
	StatusHungUp     InteractionStatus = "hung_up"
	StatusFailed     InteractionStatus = "failed"
	StatusTerminated InteractionStatus = "terminated"
)

func (s InteractionStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusUnanswered, StatusHungUp, StatusFailed, StatusTerminated:
		return true
	default:
		return false
	}
}

type CostBreakdown struct {
	TTS       int64 `json:"tts" db:"tts_cost"`
	Telephony int64 `json:"telephony" db:"telephony_cost"`
	Gemini    int64 `json:"gemini" db:"gemini_cost"`
}

func (c CostBreakdown) add(o CostBreakdown) CostBreakdown {
	return CostBreakdown{
		TTS:       c.TTS + o.TTS,
		Telephony: c.Telephony + o.Telephony,
		Gemini:    c.Gemini + o.Gemini,
	}
}

var ErrInvalidInteraction = errors.New("analytics: invalid interaction")

func (i Interaction) Validate() error {
	if i.ID == "" || i.OrgID == "" || i.CampaignID == "" {
		return fmt.Errorf("%w: id, org_id, campaign_id required", ErrInvalidInteraction)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInteraction, i.Status)
	}
	if i.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidInteraction)
	}
	if i.PlaybackPercentage != nil && (*i.PlaybackPercentage < 0 || *i.PlaybackPercentage > 100) {
		return fmt.Errorf("%w: playback_percentage out of range", ErrInvalidInteraction)
	}
	if i.SentimentScore != nil && (*i.SentimentScore < -1 || *i.SentimentScore > 1) {
		return fmt.Errorf("%w: sentiment_score out of range", ErrInvalidInteraction)
	}
	if i.StartedAt.IsZero() {
		return fmt.Errorf("%w: started_at required", ErrInvalidInteraction)
	}
	return nil
}

// playbackBucket partitions a playback percentage into four fixed buckets,
// each inclusive of its upper bound: 0-25, 26-50, 51-75, 76-100. Exactly 25
// stays in the first bucket and exactly 100 folds into the top bucket rather
// than opening a fifth.
func playbackBucket(pct int) int {
	if pct <= 0 {
		return 0
	}
	b := (pct - 1) / 25
	if b > 3 {
		b = 3
	}
	return b
}
