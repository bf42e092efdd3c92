package coupon

import (
	"context"

	"tutormarket/internal/domain"
)

type Repository interface {
	// GetByCode looks up a coupon by its normalized code.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// Deactivate flips the active flag off; expired coupons self-deactivate
	// on their next validation.
	Deactivate(ctx context.Context, id string) error
	// IncrementRedemptions bumps the redemption counter. Called by the
	// settlement step when a purchase finalizes, never at attach time.
	IncrementRedemptions(ctx context.Context, id string) error
}
