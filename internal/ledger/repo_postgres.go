package ledger

import (
	"context"
	"database/sql"
	"time"

	"campaign-platform/pkg/utils"

	"github.com/google/uuid"
)

// PostgresStore persists the ledger in an append-only table.
//
// Assumed schema:
//
//	credit_transactions (
//	  id UUID PRIMARY KEY,
//	  org_id TEXT NOT NULL,
//	  amount BIGINT NOT NULL CHECK (amount > 0),
//	  kind TEXT NOT NULL,
//	  reference_id TEXT NOT NULL DEFAULT '',
//	  description TEXT NOT NULL DEFAULT '',
//	  created_at TIMESTAMPTZ NOT NULL
//	)
//
// with an INSERT-only policy; no UPDATE/DELETE is ever issued here.
//
// Appends for one org are serialized with a per-org transaction-scoped
// advisory lock so concurrent writers cannot interleave between the
// coordinator's balance check and its append. The lock key is derived from
// org_id only; unrelated orgs never contend.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) Append(ctx context.Context, d Draft) (CreditTransaction, error) {
	if err := validateDraft(d); err != nil {
		return CreditTransaction{}, err
	}

	tx := CreditTransaction{
		ID:          uuid.NewString(),
		OrgID:       d.OrgID,
		Amount:      d.Amount,
		Kind:        d.Kind,
		ReferenceID: d.ReferenceID,
		Description: d.Description,
		CreatedAt:   s.clock().UTC(),
	}

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, dbtx *sql.Tx) error {
		if err := lockOrg(ctx, dbtx, d.OrgID); err != nil {
			return err
		}
		const q = `
INSERT INTO credit_transactions (id, org_id, amount, kind, reference_id, description, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
		_, err := dbtx.ExecContext(ctx, q,
			tx.ID, tx.OrgID, tx.Amount, tx.Kind, tx.ReferenceID, tx.Description, tx.CreatedAt)
		return err
	})
	if err != nil {
		return CreditTransaction{}, err
	}
	return tx, nil
}

// lockOrg takes a transaction-scoped advisory lock for the org. Released
// automatically on commit/rollback.
func lockOrg(ctx context.Context, tx *sql.Tx, orgID string) error {
	const q = `SELECT pg_advisory_xact_lock(hashtext($1))`
	_, err := tx.ExecContext(ctx, q, orgID)
	return err
}

func (s *PostgresStore) Balance(ctx context.Context, orgID string) (int64, error) {
	return s.BalanceAsOf(ctx, orgID, s.clock().UTC())
}

func (s *PostgresStore) BalanceAsOf(ctx context.Context, orgID string, at time.Time) (int64, error) {
	if orgID == "" {
		return 0, ErrInvalidArgument
	}
	const q = `
SELECT COALESCE(SUM(CASE WHEN kind = 'consume' THEN -amount ELSE amount END), 0)
FROM credit_transactions
WHERE org_id = $1 AND created_at <= $2
`
	var bal int64
	if err := s.db.QueryRowContext(ctx, q, orgID, at).Scan(&bal); err != nil {
		return 0, err
	}
	return bal, nil
}

func (s *PostgresStore) History(ctx context.Context, orgID string, page, pageSize int) (Page, error) {
	if orgID == "" {
		return Page{}, ErrInvalidArgument
	}
	page, pageSize = normalizePaging(page, pageSize)

	const countQ = `SELECT COUNT(*) FROM credit_transactions WHERE org_id = $1`
	out := Page{Page: page, PageSize: pageSize, Transactions: []CreditTransaction{}}
	if err := s.db.QueryRowContext(ctx, countQ, orgID).Scan(&out.Total); err != nil {
		return Page{}, err
	}

	const q = `
SELECT id, org_id, amount, kind, reference_id, description, created_at
FROM credit_transactions
WHERE org_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`
	rows, err := s.db.QueryContext(ctx, q, orgID, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var t CreditTransaction
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Amount, &t.Kind, &t.ReferenceID, &t.Description, &t.CreatedAt); err != nil {
			return Page{}, err
		}
		out.Transactions = append(out.Transactions, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) List(ctx context.Context, orgID string, from, to time.Time) ([]CreditTransaction, error) {
	if orgID == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT id, org_id, amount, kind, reference_id, description, created_at
FROM credit_transactions
WHERE org_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at ASC, id ASC
`
	rows, err := s.db.QueryContext(ctx, q, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CreditTransaction, 0)
	for rows.Next() {
		var t CreditTransaction
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Amount, &t.Kind, &t.ReferenceID, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ConsumedByReference(ctx context.Context, orgID, referenceID string) (int64, error) {
	if orgID == "" || referenceID == "" {
		return 0, ErrInvalidArgument
	}
	const q = `
SELECT COALESCE(SUM(CASE kind WHEN 'consume' THEN amount WHEN 'refund' THEN -amount ELSE 0 END), 0)
FROM credit_transactions
WHERE org_id = $1 AND reference_id = $2
`
	var consumed int64
	if err := s.db.QueryRowContext(ctx, q, orgID, referenceID).Scan(&consumed); err != nil {
		return 0, err
	}
	if consumed < 0 {
		consumed = 0
	}
	return consumed, nil
}
