package coupon

import (
	"context"

	"tutormarket/internal/clock"
	"tutormarket/internal/domain"
	couponrepo "tutormarket/internal/repository/coupon"
)

// Service validates coupons against their active flag, expiry window, and
// redemption ceiling.
type Service struct {
	repo  repo
	clock clock.Clock
}

type repo interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Deactivate(ctx context.Context, id string) error
}

func New(r couponrepo.Repository, clk clock.Clock) *Service {
	return &Service{repo: r, clock: clk}
}

// ValidateCode looks up the code and validates the coupon in one step.
func (s *Service) ValidateCode(ctx context.Context, code string) (*domain.Coupon, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks a loaded coupon. An expired coupon is flipped inactive as
// a side effect, so it self-deactivates on first touch instead of waiting
// for a sweep.
func (s *Service) Validate(ctx context.Context, c *domain.Coupon) error {
	if !c.Active {
		return domain.ErrCouponInactive
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(s.clock.Now()) {
		if err := s.repo.Deactivate(ctx, c.ID); err != nil {
			return err
		}
		c.Active = false
		return domain.ErrCouponExpired
	}
	if c.MaxRedemptions != nil && c.RedemptionCount >= *c.MaxRedemptions {
		return domain.ErrCouponLimitReached
	}
	return nil
}
