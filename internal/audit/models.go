package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - org_id is required for tenancy isolation.
// - Audit writes are best-effort; money and campaign flows never block on them.
//
// Storage recommendation (Postgres): INSERT-only audit_events table, optional
// trigger to prevent UPDATE/DELETE, partition by time for retention.

type Event struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// Target identifiers (optional, depending on the event type).
	CampaignID    string `json:"campaign_id,omitempty" db:"campaign_id"`
	TransactionID string `json:"transaction_id,omitempty" db:"transaction_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCreditAdjustment   EventType = "credit_adjustment"
	EventTypeCampaignTransition EventType = "campaign_transition"
)
