package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Consumer reads terminal interaction events from Kafka and feeds them to the
// aggregator. Duplicate and out-of-order messages are safe: ingestion is
// idempotent by interaction id, so redelivery after a crash only re-ingests
// already-stored records.
type Consumer struct {
	reader *kafka.Reader
	svc    *Service
	log    *slog.Logger
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func NewConsumer(cfg ConsumerConfig, svc *Service, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: r, svc: svc, log: log}
}

// Run consumes until ctx is cancelled. Malformed messages are logged and
// committed so they cannot wedge the partition; ingest errors for valid
// messages are logged and left uncommitted for redelivery.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		in, err := decodeInteractionEvent(m.Value)
		if err != nil {
			c.log.Warn("interaction_event_decode_failed", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				c.log.Error("kafka_commit_failed", "err", err)
			}
			continue
		}

		if err := c.svc.Ingest(ctx, in); err != nil {
			if errors.Is(err, ErrInvalidInteraction) {
				c.log.Warn("interaction_event_invalid", "interaction_id", in.ID, "err", err)
				if err := c.reader.CommitMessages(ctx, m); err != nil {
					c.log.Error("kafka_commit_failed", "err", err)
				}
				continue
			}
			c.log.Error("interaction_ingest_failed", "interaction_id", in.ID, "err", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Error("kafka_commit_failed", "err", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// interactionEvent is the wire shape published by the delivery layer.
type interactionEvent struct {
	ID                 string    `json:"id"`
	OrgID              string    `json:"org_id"`
	CampaignID         string    `json:"campaign_id"`
	ContactID          string    `json:"contact_id"`
	Carrier            string    `json:"carrier"`
	Status             string    `json:"status"`
	DurationSeconds    int       `json:"duration_seconds"`
	PlaybackPercentage *int      `json:"playback_percentage"`
	SentimentScore     *float64  `json:"sentiment_score"`
	DetectedIntent     *string   `json:"detected_intent"`
	TTSCost            int64     `json:"tts_cost"`
	TelephonyCost      int64     `json:"telephony_cost"`
	GeminiCost         int64     `json:"gemini_cost"`
	StartedAt          time.Time `json:"started_at"`
}

func decodeInteractionEvent(b []byte) (Interaction, error) {
	var e interactionEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return Interaction{}, err
	}
	return Interaction{
		ID:                 e.ID,
		OrgID:              e.OrgID,
		CampaignID:         e.CampaignID,
		ContactID:          e.ContactID,
		Carrier:            e.Carrier,
		Status:             InteractionStatus(e.Status),
		DurationSeconds:    e.DurationSeconds,
		PlaybackPercentage: e.PlaybackPercentage,
		SentimentScore:     e.SentimentScore,
		DetectedIntent:     e.DetectedIntent,
		Cost: CostBreakdown{
			TTS:       e.TTSCost,
			Telephony: e.TelephonyCost,
			Gemini:    e.GeminiCost,
		},
		StartedAt: e.StartedAt,
	}, nil
}
