package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInactive indicates the catalog entity exists but is disabled.
	ErrInactive = errors.New("inactive")

	// ErrInvalidDuration indicates a session length outside 60/90/120 minutes.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrSlotUnavailable indicates the tutor slot is held by another
	// identity or already booked as a confirmed appointment.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrDuplicateItem indicates the slot is already in the caller's cart.
	ErrDuplicateItem = errors.New("duplicate cart item")

	// ErrEmptyCart indicates checkout was attempted with nothing to buy.
	ErrEmptyCart = errors.New("empty cart")

	// ErrCouponInactive indicates the coupon is switched off.
	ErrCouponInactive = errors.New("coupon inactive")

	// ErrCouponExpired indicates the coupon's expiry window has passed.
	ErrCouponExpired = errors.New("coupon expired")

	// ErrCouponLimitReached indicates the coupon hit its redemption ceiling.
	ErrCouponLimitReached = errors.New("coupon redemption limit reached")
)
