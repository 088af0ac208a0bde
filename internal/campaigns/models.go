package campaigns

import (
	"time"

	"campaign-platform/internal/pricing"
)

// Campaign is a tenant-scoped outreach campaign.
//
// Multi-tenant invariant: OrgID is required on every row.
//
// Money invariant reminder: launch charging references the campaign id in the
// credit ledger (reference_id) rather than storing money state here.
type Campaign struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	Name string `json:"name" db:"name"`

	Type     Type             `json:"type" db:"type"`
	Category pricing.Category `json:"category" db:"category"`

	Status Status `json:"status" db:"status"`

	// ContactCount is the number of contacts targeted by this campaign,
	// fixed at creation and used for cost estimation.
	ContactCount int `json:"contact_count" db:"contact_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Type string

const (
	TypeVoice Type = "voice"
	TypeText  Type = "text"
	TypeForm  Type = "form"
)

func (t Type) Valid() bool {
	switch t {
	case TypeVoice, TypeText, TypeForm:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// transitions is the closed status machine:
// draft -> scheduled -> active -> {paused <-> active} -> completed.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusScheduled},
	StatusScheduled: {StatusActive},
	StatusActive:    {StatusPaused, StatusCompleted},
	StatusPaused:    {StatusActive, StatusCompleted},
	StatusCompleted: {},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}
