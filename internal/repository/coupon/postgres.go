package coupon

import (
	"context"
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

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	const q = `
SELECT id::text, code, type, value, active, expires_at, redemption_count, max_redemptions, created_at
FROM coupons
WHERE code = $1
`
	var c domain.Coupon
	err := r.pool.QueryRow(ctx, q, domain.NormalizeCouponCode(code)).Scan(
		&c.ID,
		&c.Code,
		&c.Type,
		&c.Value,
		&c.Active,
		&c.ExpiresAt,
		&c.RedemptionCount,
		&c.MaxRedemptions,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE coupons SET active = false WHERE id = $1`, id)
	return err
}

func (r *postgresRepo) IncrementRedemptions(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE coupons
SET redemption_count = redemption_count + 1
WHERE id = $1
  AND (max_redemptions IS NULL OR redemption_count < max_redemptions)
`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCouponLimitReached
	}
	return nil
}
