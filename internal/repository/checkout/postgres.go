package checkout

import (
	"context"
	"encoding/json"
	"errors"

	"tutormarket/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Save(ctx context.Context, snap domain.ReservationSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO checkout_snapshots (payment_ref, user_id, session_id, total_cents, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, snap.PaymentRef, snap.Owner.UserID, snap.Owner.SessionID, snap.TotalCents, payload, snap.CreatedAt)
	return err
}

func (r *postgresRepo) GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.ReservationSnapshot, error) {
	const q = `
SELECT user_id::text, session_id::text, payload
FROM checkout_snapshots
WHERE payment_ref = $1
`
	var owner domain.Identity
	var payload []byte
	err := r.pool.QueryRow(ctx, q, paymentRef).Scan(&owner.UserID, &owner.SessionID, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var snap domain.ReservationSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, err
	}
	snap.Owner = owner
	return &snap, nil
}
