package ledger

import "time"

// CreditTransaction is an immutable append-only ledger entry.
// Amount is always a positive magnitude; the sign is derived from Kind.
// Corrections are never edits: a mistaken consume is compensated by a new
// refund entry referencing the original via ReferenceID.
//
// Multi-tenant invariant: org_id required on every row.
type CreditTransaction struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	// Amount is the positive credit magnitude of this entry.
	Amount int64 `json:"amount" db:"amount"`

	Kind Kind `json:"kind" db:"kind"`

	// ReferenceID is optional: campaign_id, interaction_id, or the id of a
	// prior transaction being corrected.
	ReferenceID string `json:"reference_id,omitempty" db:"reference_id"`

	Description string `json:"description,omitempty" db:"description"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Kind string

const (
	KindPurchase Kind = "purchase"
	KindConsume  Kind = "consume"
	KindRefund   Kind = "refund"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPurchase, KindConsume, KindRefund:
		return true
	default:
		return false
	}
}

// Sign is +1 for entries that add credits and -1 for consumption.
func (k Kind) Sign() int64 {
	if k == KindConsume {
		return -1
	}
	return 1
}

// Signed returns the balance contribution of the entry.
func (t CreditTransaction) Signed() int64 {
	return t.Kind.Sign() * t.Amount
}

// Draft is the caller-supplied shape of a transaction before commit.
// ID and CreatedAt are assigned by the store.
type Draft struct {
	OrgID       string `json:"org_id"`
	Amount      int64  `json:"amount"`
	Kind        Kind   `json:"kind"`
	ReferenceID string `json:"reference_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// Page is one page of transaction history, newest-first.
type Page struct {
	Transactions []CreditTransaction `json:"transactions"`
	Page         int                 `json:"page"`
	PageSize     int                 `json:"page_size"`
	Total        int                 `json:"total"`
}
